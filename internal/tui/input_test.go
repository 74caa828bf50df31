package tui

import (
	"strings"
	"testing"
)

func TestEditRuneAddCharacters(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append to empty", "", "a", "a"},
		{"append letter", "hel", "l", "hell"},
		{"append digit", "abc", "1", "abc1"},
		{"append space", "hello", " ", "hello "},
		{"append special", "abc", "@", "abc@"},
		{"append multibyte", "caf", "é", "café"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, tc.key, 0)
			if got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}

func TestEditRuneBackspace(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"backspace on single char", "a", ""},
		{"backspace on longer string", "hello", "hell"},
		{"backspace on empty does nothing", "", ""},
		{"backspace removes whole rune", "café", "caf"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, "backspace", 0)
			if got != tc.want {
				t.Errorf("editRune(%q, 'backspace') = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestEditRuneIgnoresNamedKeys(t *testing.T) {
	for _, key := range []string{"enter", "esc", "tab", "ctrl+c", "left"} {
		if got := editRune("abc", key, 0); got != "abc" {
			t.Errorf("editRune with %q = %q, want unchanged", key, got)
		}
	}
}

func TestEditRuneLimit(t *testing.T) {
	if got := editRune("abc", "d", 3); got != "abc" {
		t.Errorf("expected limit to hold, got %q", got)
	}
	long := strings.Repeat("x", maxInputLen)
	if got := editRune(long, "y", 0); got != long {
		t.Error("expected maxInputLen to hold when no limit is set")
	}
}

func TestTruncateToHeight(t *testing.T) {
	s := "a\nb\nc\nd\n"
	if got := truncateToHeight(s, 2); got != "a\nb\n" {
		t.Errorf("truncateToHeight(2) = %q", got)
	}
	if got := truncateToHeight(s, 0); got != s {
		t.Errorf("truncateToHeight(0) = %q", got)
	}
	if got := truncateToHeight(s, 10); got != s {
		t.Errorf("truncateToHeight(10) = %q", got)
	}
}

func TestFormFocusCycles(t *testing.T) {
	f := newForm(formField{label: "a"}, formField{label: "b"})
	f.handleKey("tab")
	if f.focus != 1 || !f.onLast() {
		t.Errorf("expected focus on last field, got %d", f.focus)
	}
	f.handleKey("tab")
	if f.focus != 0 {
		t.Errorf("expected focus to wrap, got %d", f.focus)
	}
	f.handleKey("shift+tab")
	if f.focus != 1 {
		t.Errorf("expected focus to wrap backwards, got %d", f.focus)
	}
}

func TestFormEditsFocusedField(t *testing.T) {
	f := newForm(formField{label: "a"}, formField{label: "b"})
	for _, k := range []string{" ", "h", "i", " "} {
		f.handleKey(k)
	}
	if got := f.raw(0); got != " hi " {
		t.Errorf("raw = %q", got)
	}
	if got := f.value(0); got != "hi" {
		t.Errorf("value = %q", got)
	}
	if f.handleKey("enter") {
		t.Error("enter must not be consumed")
	}
}

func TestFormMasksSecrets(t *testing.T) {
	f := newForm(formField{label: "password", value: "hunter2", secret: true})
	view := f.View()
	if strings.Contains(view, "hunter2") {
		t.Error("secret value leaked into view")
	}
	if !strings.Contains(view, strings.Repeat("•", 7)) {
		t.Errorf("expected mask, got %q", view)
	}
}

func TestFormShowsCounterForLimitedField(t *testing.T) {
	f := newForm(formField{label: "name", value: "abc", limit: 60})
	if !strings.Contains(f.View(), "3/60") {
		t.Errorf("expected counter, got %q", f.View())
	}
}
