package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/taskboard/pkg/auth"
	"github.com/naveenspark/taskboard/pkg/domain"
)

type guardState int

const (
	guardPending guardState = iota
	guardAllowed
	guardDenied
)

// authEventMsg carries one auth-state change. closed is set once the
// subscription has ended.
type authEventMsg struct {
	event  auth.Event
	closed bool
}

// guardModel renders a protected page only while a session exists.
type guardModel struct {
	env         env
	state       guardState
	build       func(env, *domain.Session) page
	inner       page
	events      <-chan auth.Event
	unsubscribe func()
}

func newGuard(e env, build func(env, *domain.Session) page) guardModel {
	events, unsubscribe := e.Auth.Subscribe()
	return guardModel{
		env:         e,
		build:       build,
		events:      events,
		unsubscribe: unsubscribe,
	}
}

func (m guardModel) Init() tea.Cmd {
	return tea.Batch(m.checkSession(), m.waitForEvent())
}

func (m guardModel) checkSession() tea.Cmd {
	a := m.env.Auth
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		s, err := a.Session(ctx)
		return sessionCheckedMsg{session: s, err: err}
	})
}

func (m guardModel) waitForEvent() tea.Cmd {
	ch := m.events
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		select {
		case ev, ok := <-ch:
			if !ok {
				return authEventMsg{closed: true}
			}
			return authEventMsg{event: ev}
		case <-ctx.Done():
			return authEventMsg{closed: true}
		}
	})
}

func (m guardModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.env.size = msg

	case sessionCheckedMsg:
		if msg.err != nil {
			m.env.log.WithError(msg.err).Warn("session lookup failed")
		}
		if msg.err != nil || msg.session == nil {
			m.state = guardDenied
			return m, navigate("/login")
		}
		if m.state == guardAllowed {
			return m, nil
		}
		m.state = guardAllowed
		m.inner = m.build(m.env, msg.session)
		return m, m.inner.Init()

	case authEventMsg:
		if msg.closed {
			return m, nil
		}
		if msg.event.Type == auth.EventSignedOut {
			m.state = guardDenied
			return m, navigate("/login")
		}
		return m, tea.Batch(m.checkSession(), m.waitForEvent())
	}

	if m.state != guardAllowed {
		return m, nil
	}
	var cmd tea.Cmd
	m.inner, cmd = m.inner.Update(msg)
	return m, cmd
}

func (m guardModel) View() string {
	switch m.state {
	case guardPending:
		return " " + dimStyle.Render("loading...") + "\n"
	case guardDenied:
		return ""
	}
	return m.inner.View()
}

func (m guardModel) helpKeys() string {
	if m.state != guardAllowed {
		return helpBar("ctrl+c", "quit")
	}
	return m.inner.helpKeys()
}

func (m guardModel) capturing() bool {
	return m.state == guardAllowed && m.inner.capturing()
}

func (m guardModel) unmount() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if u, ok := m.inner.(unmounter); ok {
		u.unmount()
	}
}

// homeModel sends the root route to the dashboard or the login page.
type homeModel struct {
	env env
}

func (m homeModel) Init() tea.Cmd {
	a := m.env.Auth
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		s, err := a.Session(ctx)
		return sessionCheckedMsg{session: s, err: err}
	})
}

func (m homeModel) Update(msg tea.Msg) (page, tea.Cmd) {
	if msg, ok := msg.(sessionCheckedMsg); ok {
		if msg.err != nil || msg.session == nil {
			return m, navigate("/login")
		}
		return m, navigate("/dashboard")
	}
	return m, nil
}

func (m homeModel) View() string {
	return " " + dimStyle.Render("loading...") + "\n"
}

func (m homeModel) helpKeys() string { return helpBar("ctrl+c", "quit") }
func (m homeModel) capturing() bool  { return false }

// notFoundModel is the catch-all page.
type notFoundModel struct {
	path string
}

func (m notFoundModel) Init() tea.Cmd { return nil }

func (m notFoundModel) Update(msg tea.Msg) (page, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "esc":
			return m, navigate("/")
		}
	}
	return m, nil
}

func (m notFoundModel) View() string {
	return "\n " + titleStyle.Render("page not found") + "\n " + metaStyle.Render(m.path) + "\n"
}

func (m notFoundModel) helpKeys() string { return helpBar("enter", "home", "q", "quit") }
func (m notFoundModel) capturing() bool  { return false }
