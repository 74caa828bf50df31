package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

// -- messages --

type boardsLoadedMsg struct {
	boards []domain.Board
	err    error
}

type boardCreatedMsg struct {
	board *domain.Board
	err   error
}

type boardDeletedMsg struct {
	id  string
	err error
}

// -- model --

type dashDialog int

const (
	dashNone dashDialog = iota
	dashCreate
	dashDelete
)

const (
	createName = iota
	createDescription
)

type createBoardInput struct {
	Name        string `label:"name" validate:"required,max=60"`
	Description string `label:"description" validate:"max=150"`
}

type dashboardModel struct {
	env     env
	userID  string
	boards  []domain.Board
	cursor  int
	loading bool
	err     string
	dialog  dashDialog
	create  form
	formErr string
	submit  submitGuard
}

func newDashboardModel(e env, s *domain.Session) dashboardModel {
	return dashboardModel{
		env:     e,
		userID:  s.UserID,
		boards:  e.Boards.Boards(),
		loading: true,
	}
}

func newCreateBoardForm() form {
	return newForm(
		formField{label: "name", limit: 60},
		formField{label: "description", limit: 150, hint: "optional"},
	)
}

func (m dashboardModel) Init() tea.Cmd {
	return m.loadBoards()
}

func (m dashboardModel) loadBoards() tea.Cmd {
	api := m.env.API
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		boards, err := api.ListBoards(ctx)
		return boardsLoadedMsg{boards: boards, err: err}
	})
}

func (m dashboardModel) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case boardsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(m.env.log, "list boards", msg.err)
			return m, nil
		}
		m.err = ""
		m.env.Boards.SetBoards(msg.boards)
		m.boards = m.env.Boards.Boards()
		if m.cursor >= len(m.boards) {
			m.cursor = max(len(m.boards)-1, 0)
		}

	case boardCreatedMsg:
		m.submit.done()
		if msg.err != nil {
			m.formErr = errorText(m.env.log, "create board", msg.err)
			return m, nil
		}
		m.dialog = dashNone
		m.create = form{}
		return m, tea.Batch(notifySuccess(fmt.Sprintf("Board %q created", msg.board.Name)), m.loadBoards())

	case boardDeletedMsg:
		m.submit.done()
		m.dialog = dashNone
		if msg.err != nil {
			return m, notifyError("Could not delete board: " + errorText(m.env.log, "delete board", msg.err))
		}
		return m, tea.Batch(notifySuccess("Board deleted"), m.loadBoards())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (page, tea.Cmd) {
	switch m.dialog {
	case dashCreate:
		return m.handleKeyCreate(msg)
	case dashDelete:
		return m.handleKeyDelete(msg)
	}

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.boards)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		m.dialog = dashCreate
		m.create = newCreateBoardForm()
		m.formErr = ""
	case "d":
		if m.selected() != nil {
			m.dialog = dashDelete
		}
	case "enter":
		if b := m.selected(); b != nil {
			return m, navigate(boardPath(b.ID))
		}
	case "p":
		return m, navigate(profilePath(m.userID))
	case "r":
		m.loading = true
		return m, m.loadBoards()
	}
	return m, nil
}

func (m dashboardModel) handleKeyCreate(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.submit.pending {
			m.dialog = dashNone
		}
		return m, nil
	case "enter":
		if !m.create.onLast() {
			m.create.focus++
			return m, nil
		}
		in := createBoardInput{Name: m.create.value(createName), Description: m.create.value(createDescription)}
		if problem := checkForm(in); problem != "" {
			m.formErr = problem
			return m, nil
		}
		if !m.submit.begin() {
			return m, nil
		}
		m.formErr = ""
		api, g := m.env.API, m.submit
		return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
			b, err := api.CreateBoard(g.ctx(ctx), client.CreateBoardRequest{Name: in.Name, Description: in.Description})
			return boardCreatedMsg{board: b, err: err}
		})
	}
	if !m.submit.pending {
		m.formErr = ""
		m.create.handleKey(msg.String())
	}
	return m, nil
}

func (m dashboardModel) handleKeyDelete(msg tea.KeyMsg) (page, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		b := m.selected()
		if b == nil || !m.submit.begin() {
			return m, nil
		}
		api, g, id := m.env.API, m.submit, b.ID
		return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
			return boardDeletedMsg{id: id, err: api.DeleteBoard(g.ctx(ctx), id)}
		})
	case "n", "N", "esc":
		if !m.submit.pending {
			m.dialog = dashNone
		}
	}
	return m, nil
}

func (m dashboardModel) selected() *domain.Board {
	if m.cursor < 0 || m.cursor >= len(m.boards) {
		return nil
	}
	return &m.boards[m.cursor]
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Your boards") + "\n\n")

	switch {
	case m.loading && len(m.boards) == 0:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render("error: "+m.err) + "\n")
	case len(m.boards) == 0:
		b.WriteString(" " + dimStyle.Render("no boards yet, press n to create one") + "\n")
	}

	nameWidth := max(m.env.size.Width/3, 20)
	for i, board := range m.boards {
		cursor := " "
		name := normalStyle.Render(fmt.Sprintf("%-*s", nameWidth, truncStr(board.Name, nameWidth)))
		if i == m.cursor {
			cursor = accentStyle.Render("▸")
			name = selectedStyle.Render(fmt.Sprintf("%-*s", nameWidth, truncStr(board.Name, nameWidth)))
		}
		desc := metaStyle.Render(truncStr(oneLine(board.Description), max(m.env.size.Width-nameWidth-8, 10)))
		b.WriteString(fmt.Sprintf(" %s %s  %s\n", cursor, name, desc))
	}

	switch m.dialog {
	case dashCreate:
		b.WriteString("\n" + m.viewCreateDialog())
	case dashDelete:
		b.WriteString("\n" + m.viewDeleteDialog())
	}
	return b.String()
}

func (m dashboardModel) viewCreateDialog() string {
	var sb strings.Builder
	sb.WriteString(sectionHeaderStyle.Render("New board") + "\n")
	sb.WriteString(m.create.View())
	if m.submit.pending {
		sb.WriteString(dimStyle.Render("creating...") + "\n")
	} else if m.formErr != "" {
		sb.WriteString(errorStyle.Render(m.formErr) + "\n")
	}
	return dialogStyle.Render(strings.TrimRight(sb.String(), "\n")) + "\n"
}

func (m dashboardModel) viewDeleteDialog() string {
	b := m.selected()
	if b == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(sectionHeaderStyle.Render("Delete board") + "\n")
	sb.WriteString(normalStyle.Render(fmt.Sprintf("Delete %q and all of its tasks? This cannot be undone.", b.Name)) + "\n")
	if m.submit.pending {
		sb.WriteString(dimStyle.Render("deleting..."))
	} else {
		sb.WriteString(helpBar("y", "delete", "n", "cancel"))
	}
	return dialogStyle.Render(sb.String()) + "\n"
}

func (m dashboardModel) helpKeys() string {
	switch m.dialog {
	case dashCreate:
		return helpBar("tab", "next", "enter", "create", "esc", "cancel")
	case dashDelete:
		return helpBar("y", "confirm", "n", "cancel")
	}
	return helpBar("j/k", "nav", "enter", "open", "n", "new board", "d", "delete", "p", "profile", "r", "refresh", "q", "quit")
}

func (m dashboardModel) capturing() bool { return m.dialog == dashCreate }
