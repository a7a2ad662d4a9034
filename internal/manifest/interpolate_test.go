package manifest

import (
	"os"
	"testing"
)

func Test_interpolateEnvPlaceholders_AllPresent(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")
	in := "a ${FOO} ${BAZ} z"
	out, missing := interpolateEnvPlaceholders(in)
	if out != "a bar qux z" {
		t.Fatalf("unexpected interpolation output: %q", out)
	}
	if missing != nil {
		t.Fatalf("expected nil missing slice, got: %#v", missing)
	}
}

func Test_interpolateEnvPlaceholders_MissingSorted(t *testing.T) {
	// Ensure variables are not set
	os.Unsetenv("A")
	os.Unsetenv("B")
	in := "x ${B} y ${A}"
	out, missing := interpolateEnvPlaceholders(in)
	if out != "x  y " {
		t.Fatalf("unexpected interpolation output: %q", out)
	}
	if len(missing) != 2 || missing[0] != "A" || missing[1] != "B" {
		t.Fatalf("expected missing [A B], got: %#v", missing)
	}
}

func Test_interpolateEnvPlaceholders_LeavesMalformedAlone(t *testing.T) {
	in := "plain $FOO ${not-a-name} ${}"
	out, missing := interpolateEnvPlaceholders(in)
	if out != in {
		t.Fatalf("unexpected rewrite: %q", out)
	}
	if missing != nil {
		t.Fatalf("expected nil missing slice, got: %#v", missing)
	}
}
