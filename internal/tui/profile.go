package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

type profileLoadedMsg struct {
	profile *domain.Profile
	err     error
}

type profileSavedMsg struct {
	profile *domain.Profile
	err     error
}

type urlOpenedMsg struct {
	err error
}

const (
	profileFirst = iota
	profileLast
	profileAvatar
)

type profileInput struct {
	FirstName string `label:"first name" validate:"max=50"`
	LastName  string `label:"last name" validate:"max=50"`
}

type profileModel struct {
	env     env
	id      string
	owner   bool
	profile *domain.Profile
	loading bool
	err     string
	editing bool
	form    form
	formErr string
	submit  submitGuard
}

func newProfileModel(e env, s *domain.Session, id string) profileModel {
	return profileModel{env: e, id: id, owner: id == s.UserID, loading: true}
}

func (m profileModel) Init() tea.Cmd {
	return m.load()
}

func (m profileModel) load() tea.Cmd {
	api, id := m.env.API, m.id
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		p, err := api.GetProfile(ctx, id)
		return profileLoadedMsg{profile: p, err: err}
	})
}

// avatarLink is the avatar URL with a cache buster tied to the last update.
func avatarLink(p domain.Profile) string {
	if !p.HasAvatar() {
		return ""
	}
	if p.UpdatedAt == nil {
		return p.AvatarURL
	}
	sep := "?"
	if strings.Contains(p.AvatarURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%su=%d", p.AvatarURL, sep, p.UpdatedAt.UnixMilli())
}

func (m profileModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.env.size = msg

	case profileLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(m.env.log, "load profile", msg.err)
			return m, nil
		}
		m.err = ""
		m.profile = msg.profile

	case profileSavedMsg:
		m.submit.done()
		if msg.err != nil {
			m.formErr = avatarErrorText(m.env, msg.err)
			return m, notifyError("Could not update profile")
		}
		m.editing = false
		m.profile = msg.profile
		m.env.Session.SetProfile(msg.profile)
		return m, notifySuccess("Profile updated")

	case urlOpenedMsg:
		if msg.err != nil {
			m.env.log.WithError(msg.err).Warn("open avatar")
			return m, notifyError("Could not open the avatar")
		}

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		switch msg.String() {
		case "e":
			if m.owner && m.profile != nil {
				m.editing = true
				m.formErr = ""
				m.form = newForm(
					formField{label: "first name", value: m.profile.FirstName, limit: 50},
					formField{label: "last name", value: m.profile.LastName, limit: 50},
					formField{label: "avatar file", hint: "leave empty to keep the current one"},
				)
			}
		case "o":
			if m.profile == nil || !m.profile.HasAvatar() {
				return m, nil
			}
			link, open := avatarLink(*m.profile), m.env.OpenURL
			return m, func() tea.Msg { return urlOpenedMsg{err: open(link)} }
		case "r":
			m.loading = true
			return m, m.load()
		case "esc":
			return m, navigate("/dashboard")
		}
	}
	return m, nil
}

func (m profileModel) handleEditKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.submit.pending {
			m.editing = false
		}
		return m, nil
	case "enter":
		if !m.form.onLast() {
			m.form.focus++
			return m, nil
		}
		in := profileInput{FirstName: m.form.value(profileFirst), LastName: m.form.value(profileLast)}
		if problem := checkForm(in); problem != "" {
			m.formErr = problem
			return m, nil
		}
		if !m.submit.begin() {
			return m, nil
		}
		m.formErr = ""
		e, id, g := m.env, m.id, m.submit
		path, current := m.form.value(profileAvatar), m.profile.AvatarURL
		return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
			avatar := current
			if path != "" {
				url, err := uploadAvatarFile(ctx, e, id, path)
				if err != nil {
					return profileSavedMsg{err: err}
				}
				avatar = url
			}
			p, err := e.API.UpdateProfile(g.ctx(ctx), id, client.UpdateProfileRequest{
				FirstName: in.FirstName,
				LastName:  in.LastName,
				AvatarURL: avatar,
			})
			return profileSavedMsg{profile: p, err: err}
		})
	}
	if !m.submit.pending {
		m.formErr = ""
		m.form.handleKey(msg.String())
	}
	return m, nil
}

func (m profileModel) View() string {
	var b strings.Builder
	switch {
	case m.loading && m.profile == nil:
		return " " + dimStyle.Render("loading...") + "\n"
	case m.err != "":
		return " " + errorStyle.Render("error: "+m.err) + "\n"
	case m.profile == nil:
		return " " + dimStyle.Render("profile not found") + "\n"
	}
	p := *m.profile

	name := p.FullName()
	if name == "" {
		name = "Unnamed"
	}
	b.WriteString(" " + accentStyle.Render("("+p.Initial()+")") + " " + titleStyle.Render(name) + "\n")
	if p.Email != "" {
		b.WriteString("     " + dimStyle.Render(p.Email) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(" " + sectionHeaderStyle.Render("Member since") + " " + normalStyle.Render(formatDate(p.CreatedAt)) + "\n")
	if link := avatarLink(p); link != "" {
		b.WriteString(" " + sectionHeaderStyle.Render("Avatar") + "       " + metaStyle.Render(truncStr(link, max(m.env.size.Width-16, 20))) + "\n")
	} else {
		b.WriteString(" " + sectionHeaderStyle.Render("Avatar") + "       " + metaStyle.Render("none") + "\n")
	}

	if m.editing {
		var sb strings.Builder
		sb.WriteString(sectionHeaderStyle.Render("Edit profile") + "\n")
		sb.WriteString(m.form.View())
		if m.submit.pending {
			sb.WriteString(dimStyle.Render("saving...") + "\n")
		} else if m.formErr != "" {
			sb.WriteString(errorStyle.Render(m.formErr) + "\n")
		}
		b.WriteString("\n" + dialogStyle.Render(strings.TrimRight(sb.String(), "\n")) + "\n")
	}
	return b.String()
}

func (m profileModel) helpKeys() string {
	if m.editing {
		return helpBar("tab", "next", "enter", "save", "esc", "cancel")
	}
	keys := []string{}
	if m.owner {
		keys = append(keys, "e", "edit")
	}
	if m.profile != nil && m.profile.HasAvatar() {
		keys = append(keys, "o", "open avatar")
	}
	keys = append(keys, "r", "refresh", "esc", "dashboard", "q", "quit")
	return helpBar(keys...)
}

func (m profileModel) capturing() bool { return m.editing }
