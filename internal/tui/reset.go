package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	msgResetFailed = "Invalid or expired link. Request a new password reset."
	msgResetDone   = "Password updated, sign in again"
)

const (
	resetLink = iota
	resetPassword
	resetConfirm
)

type resetInput struct {
	Link     string `label:"recovery link" validate:"required"`
	Password string `label:"new password" validate:"required,min=6"`
	Confirm  string `label:"confirmation" validate:"eqfield=Password"`
}

type passwordResetMsg struct {
	err error
}

type resetModel struct {
	env    env
	form   form
	submit submitGuard
	err    string
}

func newResetModel(e env) resetModel {
	return resetModel{
		env: e,
		form: newForm(
			formField{label: "recovery link", hint: "paste the link from the email"},
			formField{label: "new password", secret: true},
			formField{label: "confirm password", secret: true},
		),
	}
}

func (m resetModel) Init() tea.Cmd { return nil }

func (m resetModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case passwordResetMsg:
		m.submit.done()
		if msg.err != nil {
			m.env.log.WithError(msg.err).Warn("reset password")
			m.err = msgResetFailed
			return m, nil
		}
		return m, tea.Batch(notifySuccess(msgResetDone), navigate("/login"))

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, navigate("/login")
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

func (m resetModel) doSubmit() (page, tea.Cmd) {
	in := resetInput{
		Link:     m.form.value(resetLink),
		Password: m.form.raw(resetPassword),
		Confirm:  m.form.raw(resetConfirm),
	}
	if problem := checkForm(in); problem != "" {
		m.err = problem
		return m, nil
	}
	if !m.submit.begin() {
		return m, nil
	}
	m.err = ""
	a := m.env.Auth
	return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
		if _, err := a.VerifyRecoveryLink(ctx, in.Link); err != nil {
			return passwordResetMsg{err: err}
		}
		if err := a.UpdatePassword(ctx, in.Password); err != nil {
			return passwordResetMsg{err: err}
		}
		return passwordResetMsg{err: a.SignOut(ctx)}
	})
}

func (m resetModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Reset password") + "\n\n")
	b.WriteString(m.form.View())
	b.WriteString("\n")
	if m.submit.pending {
		b.WriteString(" " + dimStyle.Render("updating password...") + "\n")
	} else if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func (m resetModel) helpKeys() string {
	return helpBar("tab", "next", "enter", "update", "esc", "back", "ctrl+c", "quit")
}

func (m resetModel) capturing() bool { return true }
