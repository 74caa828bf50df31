package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toastTTL is how long a notification stays on screen.
const toastTTL = 4 * time.Second

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

type toastMsg struct {
	kind toastKind
	text string
}

type toastExpiredMsg struct {
	id int
}

type toast struct {
	id   int
	kind toastKind
	text string
}

func notify(kind toastKind, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{kind: kind, text: text} }
}

func notifySuccess(text string) tea.Cmd { return notify(toastSuccess, text) }
func notifyError(text string) tea.Cmd   { return notify(toastError, text) }

func expireToast(id int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

func (t toast) View() string {
	if t.text == "" {
		return ""
	}
	if t.kind == toastError {
		return " " + errorStyle.Render("✗ "+t.text)
	}
	return " " + successStyle.Render("✓ "+t.text)
}
