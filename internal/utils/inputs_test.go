package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestPromptYesNoYes(t *testing.T) {
	for _, input := range []string{"y\n", "yes\n", "  Y  \n"} {
		var out bytes.Buffer
		if !PromptYesNoWithReader("Delete?", strings.NewReader(input), &out) {
			t.Errorf("input %q should be yes", input)
		}
		if !strings.Contains(out.String(), "Delete? (y/n): ") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestPromptYesNoNo(t *testing.T) {
	for _, input := range []string{"n\n", "no\n", ""} {
		if PromptYesNoWithReader("Delete?", strings.NewReader(input), &bytes.Buffer{}) {
			t.Errorf("input %q should be no", input)
		}
	}
}

// TestPromptYesNoRetryOnInvalid verifies the prompt repeats until a valid answer
func TestPromptYesNoRetryOnInvalid(t *testing.T) {
	var out bytes.Buffer
	if !PromptYesNoWithReader("Delete?", strings.NewReader("maybe\nyes\n"), &out) {
		t.Error("expected yes after retry")
	}
	if n := strings.Count(out.String(), "(y/n)"); n != 2 {
		t.Errorf("prompt shown %d times, want 2", n)
	}
}
