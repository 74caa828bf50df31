package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

type taskSavedMsg struct {
	task    *domain.Task
	created bool
	err     error
}

type taskDeletedMsg struct {
	id  string
	err error
}

type creatorLoadedMsg struct {
	taskID  string
	profile *domain.Profile
	err     error
}

type membersLoadedMsg struct {
	members []domain.BoardMember
	err     error
}

type copiedMsg struct {
	err error
}

const (
	taskTitle = iota
	taskDescription
)

type taskInput struct {
	Title       string `label:"title" validate:"required"`
	Description string `label:"description"`
}

type memberInput struct {
	Email string `label:"email" validate:"required,email"`
}

const (
	msgMembersUnavailable = "Managing members is not available yet"
	msgCopied             = "Copied to clipboard"
)

func (m *boardPage) openTaskForm(t *domain.Task) {
	m.taskForm = newForm(
		formField{label: "title"},
		formField{label: "description", hint: "optional"},
	)
	m.editing = ""
	m.dialog = boardAdd
	if t != nil {
		m.taskForm.set(taskTitle, t.Title)
		m.taskForm.set(taskDescription, t.Description)
		m.editing = t.ID
		m.dialog = boardEdit
	}
	m.formErr = ""
}

func (m *boardPage) openDetail(t domain.Task) tea.Cmd {
	m.dialog = boardDetail
	m.detail = &t
	m.creator = nil
	m.creatorErr = ""
	if t.CreatedBy == "" {
		return nil
	}
	api := m.env.API
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		p, err := api.GetProfile(ctx, t.CreatedBy)
		return creatorLoadedMsg{taskID: t.ID, profile: p, err: err}
	})
}

func (m *boardPage) openMembers() tea.Cmd {
	m.dialog = boardMembers
	m.membersLoading = true
	m.membersErr = ""
	m.memberCursor = 0
	m.addingMember = false
	api, id := m.env.API, m.boardID
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		members, err := api.ListBoardMembers(ctx, id)
		return membersLoadedMsg{members: members, err: err}
	})
}

func (m boardPage) updateDialog(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case taskSavedMsg:
		m.submit.done()
		if msg.err != nil {
			m.formErr = errorText(m.env.log, "save task", msg.err)
			return m, nil
		}
		m.dialog = boardNone
		text := "Task updated"
		if msg.created {
			text = "Task created"
		}
		return m, tea.Batch(notifySuccess(text), m.loadTasks())

	case taskDeletedMsg:
		m.submit.done()
		m.dialog = boardNone
		if msg.err != nil {
			return m, notifyError("Could not delete task: " + errorText(m.env.log, "delete task", msg.err))
		}
		return m, tea.Batch(notifySuccess("Task deleted"), m.loadTasks())

	case creatorLoadedMsg:
		if m.detail == nil || m.detail.ID != msg.taskID {
			return m, nil
		}
		if msg.err != nil {
			m.creatorErr = errorText(m.env.log, "load creator", msg.err)
			return m, nil
		}
		m.creator = msg.profile

	case membersLoadedMsg:
		m.membersLoading = false
		if msg.err != nil {
			m.membersErr = errorText(m.env.log, "list members", msg.err)
			return m, nil
		}
		m.members = msg.members

	case copiedMsg:
		if msg.err != nil {
			m.env.log.WithError(msg.err).Warn("copy task")
			return m, notifyError("Could not copy to clipboard")
		}
		return m, notifySuccess(msgCopied)
	}
	return m, nil
}

func (m boardPage) handleDialogKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch m.dialog {
	case boardAdd, boardEdit:
		return m.handleTaskFormKey(msg)
	case boardDelete:
		return m.handleDeleteKey(msg)
	case boardDetail:
		return m.handleDetailKey(msg)
	case boardMembers:
		return m.handleMembersKey(msg)
	}
	return m, nil
}

func (m boardPage) handleTaskFormKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.submit.pending {
			m.dialog = boardNone
		}
		return m, nil
	case "enter":
		if !m.taskForm.onLast() {
			m.taskForm.focus++
			return m, nil
		}
		in := taskInput{Title: m.taskForm.value(taskTitle), Description: m.taskForm.value(taskDescription)}
		if problem := checkForm(in); problem != "" {
			m.formErr = problem
			return m, nil
		}
		if !m.submit.begin() {
			return m, nil
		}
		m.formErr = ""
		api, g, boardID := m.env.API, m.submit, m.boardID
		req := client.TaskRequest{Title: in.Title, Description: in.Description}
		if m.dialog == boardAdd {
			return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
				t, err := api.CreateTask(g.ctx(ctx), boardID, req)
				return taskSavedMsg{task: t, created: true, err: err}
			})
		}
		// A local-only drag must not reach the server through an edit.
		taskID := m.editing
		req.Status = m.saved[taskID]
		return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
			t, err := api.UpdateTask(g.ctx(ctx), boardID, taskID, req)
			return taskSavedMsg{task: t, err: err}
		})
	}
	if !m.submit.pending {
		m.formErr = ""
		m.taskForm.handleKey(msg.String())
	}
	return m, nil
}

func (m boardPage) handleDeleteKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		t := m.selected()
		if t == nil || !m.submit.begin() {
			return m, nil
		}
		api, g, boardID, id := m.env.API, m.submit, m.boardID, t.ID
		return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
			return taskDeletedMsg{id: id, err: api.DeleteTask(g.ctx(ctx), boardID, id)}
		})
	case "n", "N", "esc":
		if !m.submit.pending {
			m.dialog = boardNone
		}
	}
	return m, nil
}

func (m boardPage) handleDetailKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.dialog = boardNone
		m.detail = nil
	case "c":
		if m.detail == nil {
			return m, nil
		}
		text := m.detail.Title
		if m.detail.Description != "" {
			text += "\n\n" + m.detail.Description
		}
		copyText := m.env.CopyText
		return m, func() tea.Msg {
			return copiedMsg{err: copyText(text)}
		}
	case "e":
		if m.detail != nil {
			t := *m.detail
			m.detail = nil
			m.openTaskForm(&t)
		}
	}
	return m, nil
}

func (m boardPage) handleMembersKey(msg tea.KeyMsg) (page, tea.Cmd) {
	if m.addingMember {
		switch msg.String() {
		case "esc":
			m.addingMember = false
			return m, nil
		case "enter":
			if problem := checkForm(memberInput{Email: m.memberForm.value(0)}); problem != "" {
				m.formErr = problem
				return m, nil
			}
			m.addingMember = false
			return m, notifyError(msgMembersUnavailable)
		}
		m.formErr = ""
		m.memberForm.handleKey(msg.String())
		return m, nil
	}

	admin := m.role.CanManageMembers()
	switch msg.String() {
	case "esc", "m":
		m.dialog = boardNone
	case "j", "down":
		if m.memberCursor < len(m.members)-1 {
			m.memberCursor++
		}
	case "k", "up":
		if m.memberCursor > 0 {
			m.memberCursor--
		}
	case "a":
		if admin {
			m.addingMember = true
			m.memberForm = newForm(formField{label: "email"})
			m.formErr = ""
		}
	case "x":
		if admin && m.memberCursor < len(m.members) && m.members[m.memberCursor].Role == domain.RoleMember {
			return m, notifyError(msgMembersUnavailable)
		}
	}
	return m, nil
}

func (m boardPage) viewDialog() string {
	var sb strings.Builder
	switch m.dialog {
	case boardAdd, boardEdit:
		head := "New task"
		if m.dialog == boardEdit {
			head = "Edit task"
		}
		sb.WriteString(sectionHeaderStyle.Render(head) + "\n")
		sb.WriteString(m.taskForm.View())
		if m.submit.pending {
			sb.WriteString(dimStyle.Render("saving...") + "\n")
		} else if m.formErr != "" {
			sb.WriteString(errorStyle.Render(m.formErr) + "\n")
		}

	case boardDelete:
		t := m.selected()
		if t == nil {
			return ""
		}
		sb.WriteString(sectionHeaderStyle.Render("Delete task") + "\n")
		sb.WriteString(normalStyle.Render(fmt.Sprintf("Delete %q? This cannot be undone.", t.Title)) + "\n")
		if m.submit.pending {
			sb.WriteString(dimStyle.Render("deleting..."))
		} else {
			sb.WriteString(helpBar("y", "delete", "n", "cancel"))
		}

	case boardDetail:
		sb.WriteString(m.viewDetail())

	case boardMembers:
		sb.WriteString(m.viewMembers())
	}
	return dialogStyle.Render(strings.TrimRight(sb.String(), "\n")) + "\n"
}

func (m boardPage) viewDetail() string {
	t := m.detail
	if t == nil {
		return ""
	}
	width := max(m.env.size.Width-10, 30)
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(truncStr(t.Title, width)) + "  " + StatusStyle(t.Status).Render(t.Status.Title()) + "\n\n")
	if t.Description == "" {
		sb.WriteString(metaStyle.Render("no description") + "\n")
	}
	for _, line := range wrapText(t.Description, width) {
		if t.Description != "" {
			sb.WriteString(normalStyle.Render(line) + "\n")
		}
	}
	sb.WriteString("\n")

	now := m.env.Now()
	created := "-"
	if !t.CreatedAt.IsZero() {
		created = formatDate(t.CreatedAt) + " " + metaStyle.Render("("+formatTime(t.CreatedAt, now)+")")
	}
	sb.WriteString(dimStyle.Render("created  ") + created + "\n")
	if t.UpdatedAt != nil {
		sb.WriteString(dimStyle.Render("updated  ") + formatDate(*t.UpdatedAt) + " " + metaStyle.Render("("+formatTime(*t.UpdatedAt, now)+")") + "\n")
	}

	switch {
	case m.creator != nil:
		sb.WriteString(dimStyle.Render("by       ") + normalStyle.Render(m.creator.FullName()) + " " + metaStyle.Render(m.creator.Email) + "\n")
	case m.creatorErr != "":
		sb.WriteString(dimStyle.Render("by       ") + errorStyle.Render(m.creatorErr) + "\n")
	case t.CreatedBy != "":
		sb.WriteString(dimStyle.Render("by       ") + metaStyle.Render("loading...") + "\n")
	}
	return sb.String()
}

func (m boardPage) viewMembers() string {
	var sb strings.Builder
	sb.WriteString(sectionHeaderStyle.Render("Board members") + "\n")
	switch {
	case m.membersLoading:
		sb.WriteString(dimStyle.Render("loading...") + "\n")
	case m.membersErr != "":
		sb.WriteString(errorStyle.Render("error: "+m.membersErr) + "\n")
	case len(m.members) == 0:
		sb.WriteString(metaStyle.Render("no members") + "\n")
	}

	admin := m.role.CanManageMembers()
	for i, mem := range m.members {
		cursor := " "
		if i == m.memberCursor {
			cursor = accentStyle.Render("▸")
		}
		name := mem.Profile.FullName()
		if name == "" {
			name = mem.Profile.Email
		}
		line := fmt.Sprintf("%s %s %s  %s", cursor, RoleBadge(mem.Role), normalStyle.Render(name), metaStyle.Render(mem.Profile.Email))
		if admin && mem.Role == domain.RoleMember {
			line += "  " + metaStyle.Render("x remove")
		}
		sb.WriteString(line + "\n")
	}

	if m.addingMember {
		sb.WriteString("\n" + m.memberForm.View())
		if m.formErr != "" {
			sb.WriteString(errorStyle.Render(m.formErr) + "\n")
		}
	}
	return sb.String()
}

func (m boardPage) dialogHelpKeys() string {
	switch m.dialog {
	case boardAdd, boardEdit:
		return helpBar("tab", "next", "enter", "save", "esc", "cancel")
	case boardDelete:
		return helpBar("y", "confirm", "n", "cancel")
	case boardDetail:
		return helpBar("c", "copy", "e", "edit", "esc", "close")
	case boardMembers:
		if m.addingMember {
			return helpBar("enter", "add", "esc", "cancel")
		}
		if m.role.CanManageMembers() {
			return helpBar("j/k", "nav", "a", "add member", "x", "remove", "esc", "close")
		}
		return helpBar("j/k", "nav", "esc", "close")
	}
	return ""
}
