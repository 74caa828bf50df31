package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// msgResetSent is shown whatever the provider answers, so the page never
// reveals whether an address has an account.
const msgResetSent = "Check your email, we sent a link to reset your password."

type forgotInput struct {
	Email string `label:"email" validate:"required,email"`
}

type resetRequestedMsg struct {
	err error
}

type forgotModel struct {
	env    env
	form   form
	submit submitGuard
	err    string
	sent   bool
}

func newForgotModel(e env) forgotModel {
	return forgotModel{
		env:  e,
		form: newForm(formField{label: "email", hint: "you@example.com"}),
	}
}

func (m forgotModel) Init() tea.Cmd { return nil }

func (m forgotModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case resetRequestedMsg:
		m.submit.done()
		if msg.err != nil {
			m.env.log.WithError(msg.err).Warn("request password reset")
		}
		m.sent = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+l":
			return m, navigate("/login")
		case "enter":
			return m.doSubmit()
		}
		m.err = ""
		m.form.handleKey(msg.String())
	}
	return m, nil
}

func (m forgotModel) doSubmit() (page, tea.Cmd) {
	in := forgotInput{Email: m.form.value(0)}
	if problem := checkForm(in); problem != "" {
		m.err = problem
		return m, nil
	}
	if !m.submit.begin() {
		return m, nil
	}
	m.err = ""
	a, redirect := m.env.Auth, m.env.redirect("/reset-password")
	return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
		return resetRequestedMsg{err: a.ResetPasswordForEmail(ctx, in.Email, redirect)}
	})
}

func (m forgotModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Forgot password") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.submit.pending:
		b.WriteString(" " + dimStyle.Render("sending...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	case m.sent:
		b.WriteString(" " + successStyle.Render(msgResetSent) + "\n")
		b.WriteString(" " + metaStyle.Render("paste the link on the reset page: taskboard --route /reset-password") + "\n")
	}
	return b.String()
}

func (m forgotModel) helpKeys() string {
	return helpBar("enter", "send link", "esc", "back", "ctrl+c", "quit")
}

func (m forgotModel) capturing() bool { return true }
