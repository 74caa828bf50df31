package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/naveenspark/taskboard/pkg/domain"
)

// page is one mounted screen.
type page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (page, tea.Cmd)
	View() string
	helpKeys() string
	// capturing reports whether a text input has focus, so global keys
	// must be passed through as text.
	capturing() bool
}

// unmounter is implemented by pages that release state when they leave.
type unmounter interface {
	unmount()
}

// env is what every page gets: the dependencies plus its lifetime scope.
type env struct {
	Deps
	scope scope
	log   logrus.FieldLogger
	size  tea.WindowSizeMsg
}

func (e env) forPage(name string) env {
	e.log = e.Log.WithField("page", name)
	return e
}

// sessionUser returns the user id held in the session store.
func (e env) sessionUser() string {
	st, _ := e.Session.Snapshot()
	return st.UserID
}

type navigateMsg struct {
	path string
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

// sessionCheckedMsg carries the result of a session lookup.
type sessionCheckedMsg struct {
	session *domain.Session
	err     error
}
