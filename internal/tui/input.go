package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in any form input.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to limit runes, or maxInputLen when limit is 0.
func editRune(text string, key string, limit int) string {
	if limit <= 0 || limit > maxInputLen {
		limit = maxInputLen
	}
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= limit {
			return text
		}
		return text + key
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// formField is one labelled input of a form.
type formField struct {
	label  string
	value  string
	secret bool
	limit  int // max runes, 0 = maxInputLen
	hint   string
}

// form is a vertical list of inputs with one focused field.
type form struct {
	fields []formField
	focus  int
}

func newForm(fields ...formField) form {
	return form{fields: fields}
}

func (f form) value(i int) string {
	return strings.TrimSpace(f.fields[i].value)
}

// raw returns the untrimmed value, for passwords.
func (f form) raw(i int) string {
	return f.fields[i].value
}

func (f *form) set(i int, v string) {
	f.fields[i].value = v
}

func (f form) onLast() bool {
	return f.focus == len(f.fields)-1
}

// handleKey applies navigation and editing keys. It reports whether the key
// was consumed; enter is never consumed.
func (f *form) handleKey(key string) bool {
	switch key {
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
		return true
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
		return true
	case "enter":
		return false
	}
	cur := &f.fields[f.focus]
	cur.value = editRune(cur.value, key, cur.limit)
	return key == "backspace" || utf8.RuneCountInString(key) == 1
}

func (f form) View() string {
	var b strings.Builder
	for i, fld := range f.fields {
		shown := fld.value
		if fld.secret {
			shown = strings.Repeat("•", utf8.RuneCountInString(fld.value))
		}
		label := inputPromptStyle.Render(fld.label + ":")
		if i == f.focus {
			b.WriteString("   " + accentStyle.Render(">") + " " + label + " " + shown + accentStyle.Render("_"))
		} else {
			b.WriteString("     " + label + " " + dimStyle.Render(shown))
		}
		if fld.hint != "" && fld.value == "" {
			b.WriteString("  " + inputPlaceholderStyle.Render(fld.hint))
		}
		if fld.limit > 0 && i == f.focus {
			b.WriteString("  " + metaStyle.Render(counter(fld.value, fld.limit)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func counter(s string, limit int) string {
	return fmt.Sprintf("%d/%d", utf8.RuneCountInString(s), limit)
}
