package cmd

import (
	"testing"

	pkgversion "github.com/bianoble/repoforge/internal/version"
)

func TestVerString(t *testing.T) {
	if got := verString(nil); got != "-" {
		t.Errorf("verString(nil) = %q, want \"-\"", got)
	}

	v, err := pkgversion.Parse("1:2.0-3")
	if err != nil {
		t.Fatal(err)
	}
	if got := verString(v); got != "1:2.0-3" {
		t.Errorf("verString = %q, want \"1:2.0-3\"", got)
	}
}
