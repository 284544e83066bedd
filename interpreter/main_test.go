package interpreter

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, source string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	code := Run(source, &out)
	return out.String(), code
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantOut  string
		wantCode int
	}{
		{
			"exit code",
			`fn main(): f32 { ret 12; }`,
			"", 12,
		},
		{
			"print",
			`fn main(): f32 { print("test!"); ret 0; }`,
			"test!\n", 0,
		},
		{
			"string interpolation",
			`fn main(): f32 { print("test " : 1 : " other"); ret 0; }`,
			"test 1.000000 other\n", 0,
		},
		{
			"recursion through lazy if",
			`fn factorial(n: f32): f32 { ret if(n == 0, 1, n * factorial(n - 1)); }
			 fn main(): f32 { print("" : factorial(4)); ret 0; }`,
			"24.000000\n", 0,
		},
		{
			"lambda call",
			`fn main(): f32 { let x: f32 = (\(y: f32, z: f32): f32 = { ret y + z; })(1, 2); print("" : x); ret 0; }`,
			"3.000000\n", 0,
		},
		{
			"context capture",
			`fn main(): f32 { let m: f32 = 1; let f: function = \(y: f32, z: f32): f32 = { ret y + z + m; }; m = 2; print("" : f(2, 2)); ret 0; }`,
			"5.000000\n", 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := run(t, tt.source)
			if out != tt.wantOut {
				t.Errorf("expected output %q, got %q", tt.wantOut, out)
			}
			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
		})
	}
}

func TestPhaseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"lex error", `fn main(): f32 { ret 01; }`},
		{"parse error", `fn main(): f32 { ret 10 + ; }`},
		{"semantic error", `fn main(): f32 { ret x; }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := run(t, tt.source)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.HasPrefix(out, "ERROR (Ln ") {
				t.Errorf("expected positioned diagnostic, got %q", out)
			}
		})
	}
}
