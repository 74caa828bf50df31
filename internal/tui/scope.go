package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// scope is the lifetime of one mounted page. Work started by the page runs
// under ctx and its result is tagged with id, so the app can drop results
// that arrive after the page is gone.
type scope struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
}

func newScope(id uint64) scope {
	ctx, cancel := context.WithCancel(context.Background())
	return scope{id: id, ctx: ctx, cancel: cancel}
}

// scopedMsg wraps a result produced under a scope.
type scopedMsg struct {
	scope uint64
	msg   tea.Msg
}

// run returns a command that calls fn with the scope's context.
func (s scope) run(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	id, ctx := s.id, s.ctx
	return func() tea.Msg {
		return scopedMsg{scope: id, msg: fn(ctx)}
	}
}

func (s scope) close() {
	if s.cancel != nil {
		s.cancel()
	}
}
