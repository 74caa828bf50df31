package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	msgSignUpDone   = "If this email is registered you will receive a confirmation email."
	msgSignUpFailed = "There was a problem registering the user"
)

type signUpInput struct {
	Email    string `label:"email" validate:"required,email"`
	Password string `label:"password" validate:"required,min=6"`
}

type signUpDoneMsg struct {
	err error
}

type signUpModel struct {
	env      env
	form     form
	submit   submitGuard
	err      string
	finished bool
}

func newSignUpModel(e env) signUpModel {
	return signUpModel{
		env: e,
		form: newForm(
			formField{label: "email", hint: "you@example.com"},
			formField{label: "password", secret: true, hint: "at least 6 characters"},
		),
	}
}

func (m signUpModel) Init() tea.Cmd { return nil }

func (m signUpModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case signUpDoneMsg:
		m.submit.done()
		if msg.err != nil {
			m.env.log.WithError(msg.err).Error("sign up")
			m.err = msgSignUpFailed
			return m, nil
		}
		m.finished = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+l":
			return m, navigate("/login")
		}
		if m.finished {
			if msg.String() == "enter" {
				return m, navigate("/login")
			}
			return m, nil
		}
		if msg.String() == "enter" {
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

func (m signUpModel) doSubmit() (page, tea.Cmd) {
	in := signUpInput{Email: m.form.value(0), Password: m.form.raw(1)}
	if problem := checkForm(in); problem != "" {
		m.err = problem
		return m, nil
	}
	if !m.submit.begin() {
		return m, nil
	}
	m.err = ""
	a, redirect := m.env.Auth, m.env.redirect("/login")
	return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
		return signUpDoneMsg{err: a.SignUp(ctx, in.Email, in.Password, redirect)}
	})
}

func (m signUpModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Create an account") + "\n\n")
	if m.finished {
		b.WriteString(" " + successStyle.Render(msgSignUpDone) + "\n")
		b.WriteString("\n " + metaStyle.Render("enter to go to sign in") + "\n")
		return b.String()
	}
	b.WriteString(m.form.View())
	b.WriteString("\n")
	if m.submit.pending {
		b.WriteString(" " + dimStyle.Render("creating account...") + "\n")
	} else if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n " + metaStyle.Render("already registered? ctrl+l to sign in") + "\n")
	return b.String()
}

func (m signUpModel) helpKeys() string {
	if m.finished {
		return helpBar("enter", "sign in", "ctrl+c", "quit")
	}
	return helpBar("tab", "next", "enter", "sign up", "esc", "back", "ctrl+c", "quit")
}

func (m signUpModel) capturing() bool { return !m.finished }
