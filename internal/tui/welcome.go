package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/taskboard/pkg/auth"
	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

type welcomeProfileMsg struct {
	user    *auth.User
	profile *domain.Profile
	err     error
}

type avatarSavedMsg struct {
	profile *domain.Profile
	err     error
}

type welcomeModel struct {
	env     env
	userID  string
	profile *domain.Profile
	loading bool
	form    form
	submit  submitGuard
	err     string
}

func newWelcomeModel(e env, s *domain.Session) welcomeModel {
	return welcomeModel{
		env:     e,
		userID:  s.UserID,
		loading: true,
		form:    newForm(formField{label: "avatar file", hint: "optional, e.g. ~/me.png"}),
	}
}

func (m welcomeModel) Init() tea.Cmd {
	a, api := m.env.Auth, m.env.API
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		u, err := a.User(ctx)
		if err != nil {
			return welcomeProfileMsg{err: err}
		}
		p, err := api.GetProfile(ctx, u.ID)
		return welcomeProfileMsg{user: u, profile: p, err: err}
	})
}

func (m welcomeModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case welcomeProfileMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(m.env.log, "load profile", msg.err)
			return m, nil
		}
		m.userID = msg.user.ID
		m.profile = msg.profile
		if m.profile.HasAvatar() {
			return m, navigate("/dashboard")
		}
		return m, nil

	case avatarSavedMsg:
		m.submit.done()
		if msg.err != nil {
			m.err = avatarErrorText(m.env, msg.err)
			return m, nil
		}
		m.env.Session.SetProfile(msg.profile)
		return m, tea.Batch(notifySuccess("Avatar saved"), navigate("/dashboard"))

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate("/dashboard")
		case "enter":
			return m.doSubmit()
		}
		m.err = ""
		m.form.handleKey(msg.String())
	}
	return m, nil
}

func (m welcomeModel) doSubmit() (page, tea.Cmd) {
	path := m.form.value(0)
	if path == "" || m.profile == nil {
		return m, navigate("/dashboard")
	}
	if !m.submit.begin() {
		return m, nil
	}
	m.err = ""
	e, uid, prof := m.env, m.userID, *m.profile
	key := m.submit
	return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
		url, err := uploadAvatarFile(ctx, e, uid, path)
		if err != nil {
			return avatarSavedMsg{err: err}
		}
		p, err := e.API.UpdateProfile(key.ctx(ctx), uid, client.UpdateProfileRequest{
			FirstName: prof.FirstName,
			LastName:  prof.LastName,
			AvatarURL: url,
		})
		return avatarSavedMsg{profile: p, err: err}
	})
}

// avatarErrorText explains avatar failures that errorText does not know about.
func avatarErrorText(e env, err error) string {
	switch {
	case errors.Is(err, auth.ErrNotImage):
		return "That file is not an image."
	case errors.Is(err, os.ErrNotExist):
		return "File not found."
	case errors.Is(err, errAvatarIsDir):
		return "That path is a directory."
	case errors.Is(err, errAvatarTooLarge):
		return fmt.Sprintf("File is larger than %d MB.", maxAvatarBytes>>20)
	}
	return errorText(e.log, "save avatar", err)
}

func (m welcomeModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Welcome to taskboard!") + "\n\n")
	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
		return b.String()
	}
	if m.profile != nil {
		b.WriteString(" " + normalStyle.Render("Your account is confirmed. Add an avatar to complete your profile, or continue to the dashboard.") + "\n\n")
		b.WriteString(m.form.View())
		b.WriteString("\n")
	}
	if m.submit.pending {
		b.WriteString(" " + dimStyle.Render("uploading...") + "\n")
	} else if m.err != "" {
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func (m welcomeModel) helpKeys() string {
	return helpBar("enter", "save and continue", "esc", "skip", "ctrl+c", "quit")
}

func (m welcomeModel) capturing() bool { return !m.loading && m.profile != nil }
