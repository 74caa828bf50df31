package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/taskboard/pkg/domain"
)

const (
	loginEmail = iota
	loginPassword
)

type loginInput struct {
	Email    string `label:"email" validate:"required,email"`
	Password string `label:"password" validate:"required"`
}

type loginDoneMsg struct {
	session *domain.Session
	profile *domain.Profile
	err     error
}

type loginModel struct {
	env    env
	form   form
	submit submitGuard
	err    string
}

func newLoginModel(e env) loginModel {
	return loginModel{
		env: e,
		form: newForm(
			formField{label: "email", hint: "you@example.com"},
			formField{label: "password", secret: true},
		),
	}
}

func (m loginModel) Init() tea.Cmd { return nil }

func (m loginModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submit.done()
		if msg.err != nil {
			m.err = errorText(m.env.log, "sign-in", msg.err)
			return m, nil
		}
		s := msg.session
		m.env.Session.SetUser(s.UserID, s.Email, msg.profile, "")
		if msg.profile == nil || !msg.profile.HasAvatar() {
			return m, navigate("/welcome")
		}
		return m, navigate("/dashboard")

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			return m, navigate("/sign-up")
		case "ctrl+f":
			return m, navigate("/forgot-password")
		case "enter":
			if !m.form.onLast() {
				m.form.focus++
				return m, nil
			}
			return m.doSubmit()
		}
		m.err = ""
		m.form.handleKey(msg.String())
	}
	return m, nil
}

func (m loginModel) doSubmit() (page, tea.Cmd) {
	in := loginInput{Email: m.form.value(loginEmail), Password: m.form.raw(loginPassword)}
	if problem := checkForm(in); problem != "" {
		m.err = problem
		return m, nil
	}
	if !m.submit.begin() {
		return m, nil
	}
	m.err = ""
	a, api, log := m.env.Auth, m.env.API, m.env.log
	return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
		s, err := a.SignIn(ctx, in.Email, in.Password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		p, err := api.GetProfile(ctx, s.UserID)
		if err != nil {
			// Signed in either way; the welcome page re-checks the profile.
			log.WithError(err).Warn("load profile after sign-in")
			p = nil
		}
		return loginDoneMsg{session: s, profile: p}
	})
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Sign in") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	if m.submit.pending {
		b.WriteString(" " + dimStyle.Render("signing in...") + "\n")
	} else if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n " + metaStyle.Render("no account? ctrl+r to sign up · forgot your password? ctrl+f") + "\n")
	return b.String()
}

func (m loginModel) helpKeys() string {
	return helpBar("tab", "next", "enter", "sign in", "ctrl+r", "sign up", "ctrl+f", "forgot password", "ctrl+c", "quit")
}

func (m loginModel) capturing() bool { return true }
