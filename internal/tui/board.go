package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/taskboard/internal/kanban"
	"github.com/naveenspark/taskboard/pkg/client"
	"github.com/naveenspark/taskboard/pkg/domain"
)

// -- messages --

type boardResolvedMsg struct {
	boards []domain.Board
	err    error
}

type roleLoadedMsg struct {
	role domain.Role
	err  error
}

type tasksLoadedMsg struct {
	tasks []domain.Task
	err   error
}

type taskMovedMsg struct {
	taskID string
	status domain.Status
	prev   []domain.Task
	err    error
}

// -- model --

type boardDialog int

const (
	boardNone boardDialog = iota
	boardAdd
	boardEdit
	boardDelete
	boardDetail
	boardMembers
)

// dragState is a lifted card and where it would land.
type dragState struct {
	taskID string
	source kanban.Location
	target kanban.Location
}

type boardPage struct {
	env       env
	boardID   string
	userID    string
	board     *domain.Board
	resolving bool
	notFound  bool
	role      domain.Role
	tasks     []domain.Task
	saved     map[string]domain.Status // status per task as the server last reported it
	loading   bool
	err       string
	col       int
	row       int
	drag      *dragState

	dialog  boardDialog
	submit  submitGuard
	formErr string

	// add / edit
	taskForm form
	editing  string

	// detail
	detail     *domain.Task
	creator    *domain.Profile
	creatorErr string

	// members
	members        []domain.BoardMember
	membersLoading bool
	membersErr     string
	memberCursor   int
	memberForm     form
	addingMember   bool
}

func newBoardPage(e env, s *domain.Session, boardID string) boardPage {
	m := boardPage{env: e, boardID: boardID, userID: s.UserID, loading: true}
	if b, ok := e.Boards.GetBoardByID(boardID); ok {
		m.board = &b
	} else {
		m.resolving = true
	}
	e.Boards.SetCurrentBoardID(boardID)
	return m
}

func (m boardPage) unmount() {
	m.env.Boards.ClearCurrentBoard()
}

func (m boardPage) Init() tea.Cmd {
	if m.resolving {
		return m.resolveBoard()
	}
	return tea.Batch(m.loadRole(), m.loadTasks())
}

// resolveBoard refreshes the board list when the board is not cached,
// e.g. when the page is opened straight from the command line.
func (m boardPage) resolveBoard() tea.Cmd {
	api := m.env.API
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		boards, err := api.ListBoards(ctx)
		return boardResolvedMsg{boards: boards, err: err}
	})
}

func (m boardPage) loadRole() tea.Cmd {
	api, id := m.env.API, m.boardID
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		role, err := api.GetBoardRole(ctx, id)
		return roleLoadedMsg{role: role, err: err}
	})
}

func (m boardPage) loadTasks() tea.Cmd {
	api, id := m.env.API, m.boardID
	return m.env.scope.run(func(ctx context.Context) tea.Msg {
		tasks, err := api.ListTasks(ctx, id)
		return tasksLoadedMsg{tasks: tasks, err: err}
	})
}

func (m boardPage) Update(msg tea.Msg) (page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.env.size = msg

	case boardResolvedMsg:
		m.resolving = false
		if msg.err != nil {
			m.loading = false
			m.err = errorText(m.env.log, "list boards", msg.err)
			return m, nil
		}
		m.env.Boards.SetBoards(msg.boards)
		b, ok := m.env.Boards.GetBoardByID(m.boardID)
		if !ok {
			m.loading = false
			m.notFound = true
			return m, nil
		}
		m.board = &b
		return m, tea.Batch(m.loadRole(), m.loadTasks())

	case roleLoadedMsg:
		if msg.err != nil {
			m.env.log.WithError(msg.err).Warn("load board role")
			return m, nil
		}
		m.role = msg.role
		m.env.Session.SetBoardRole(msg.role)

	case tasksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = errorText(m.env.log, "list tasks", msg.err)
			return m, nil
		}
		m.err = ""
		m.tasks = msg.tasks
		m.saved = make(map[string]domain.Status, len(msg.tasks))
		for _, t := range msg.tasks {
			m.saved[t.ID] = t.Status
		}
		m.drag = nil
		m.clampCursor()

	case taskMovedMsg:
		if msg.err != nil {
			m.tasks = msg.prev
			m.clampCursor()
			return m, notifyError("Could not move task: " + errorText(m.env.log, "move task", msg.err))
		}
		saved := make(map[string]domain.Status, len(m.saved))
		for id, st := range m.saved {
			saved[id] = st
		}
		saved[msg.taskID] = msg.status
		m.saved = saved

	case taskSavedMsg, taskDeletedMsg, creatorLoadedMsg, membersLoadedMsg, copiedMsg:
		return m.updateDialog(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m boardPage) handleKey(msg tea.KeyMsg) (page, tea.Cmd) {
	if m.notFound || m.board == nil {
		if msg.String() == "esc" || msg.String() == "enter" {
			return m, navigate("/dashboard")
		}
		return m, nil
	}
	if m.dialog != boardNone {
		return m.handleDialogKey(msg)
	}
	if m.drag != nil {
		return m.handleDragKey(msg)
	}

	switch msg.String() {
	case "h", "left":
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}
	case "l", "right":
		if m.col < len(kanban.Columns)-1 {
			m.col++
			m.clampCursor()
		}
	case "j", "down":
		if m.row < len(m.column(m.col))-1 {
			m.row++
		}
	case "k", "up":
		if m.row > 0 {
			m.row--
		}
	case " ":
		if t := m.selected(); t != nil {
			loc := kanban.Location{Column: kanban.Columns[m.col], Index: m.row}
			m.drag = &dragState{taskID: t.ID, source: loc, target: loc}
		}
	case "<", ">":
		t := m.selected()
		if t == nil {
			return m, nil
		}
		step := 1
		if msg.String() == "<" {
			step = -1
		}
		src := kanban.Location{Column: kanban.Columns[m.col], Index: m.row}
		dst := kanban.Location{Column: kanban.Neighbor(src.Column, step), Index: 0}
		return m.applyDrag(kanban.DragResult{TaskID: t.ID, Source: src, Destination: &dst})
	case "a":
		m.openTaskForm(nil)
	case "e":
		if t := m.selected(); t != nil {
			m.openTaskForm(t)
		}
	case "d":
		if m.selected() == nil {
			return m, nil
		}
		if !m.role.CanDeleteTasks() {
			return m, notifyError("Only board admins can delete tasks")
		}
		m.dialog = boardDelete
	case "enter":
		if t := m.selected(); t != nil {
			return m, m.openDetail(*t)
		}
	case "m":
		return m, m.openMembers()
	case "r":
		m.loading = true
		return m, tea.Batch(m.loadRole(), m.loadTasks())
	case "esc":
		return m, navigate("/dashboard")
	}
	return m, nil
}

func (m boardPage) handleDragKey(msg tea.KeyMsg) (page, tea.Cmd) {
	d := *m.drag
	switch msg.String() {
	case "h", "left":
		d.target = m.dropTarget(kanban.Neighbor(d.target.Column, -1))
	case "l", "right":
		d.target = m.dropTarget(kanban.Neighbor(d.target.Column, 1))
	case "j", "down":
		if d.target.Index < m.lastSlot(d) {
			d.target.Index++
		}
	case "k", "up":
		if d.target.Index > 0 {
			d.target.Index--
		}
	case "enter", " ":
		m.drag = nil
		dst := d.target
		return m.applyDrag(kanban.DragResult{TaskID: d.taskID, Source: d.source, Destination: &dst})
	case "esc":
		m.drag = nil
		return m.applyDrag(kanban.DragResult{TaskID: d.taskID, Source: d.source})
	}
	m.drag = &d
	return m, nil
}

// dropTarget is where the lifted card lands in status. Cards keep list order
// inside a column, so only the column matters; the source column maps back
// onto the source slot.
func (m boardPage) dropTarget(status domain.Status) kanban.Location {
	if status == m.drag.source.Column {
		return m.drag.source
	}
	return kanban.Location{Column: status}
}

// lastSlot is the highest index the card can take in the target column.
// Another column gains a slot after its last card.
func (m boardPage) lastSlot(d dragState) int {
	n := len(kanban.Column(m.tasks, d.target.Column))
	if d.target.Column == d.source.Column {
		return n - 1
	}
	return n
}

// applyDrag applies a finished drag locally and, when configured, saves the
// new column. A failed save rolls the board back.
func (m boardPage) applyDrag(r kanban.DragResult) (page, tea.Cmd) {
	prev := m.tasks
	next, changed := kanban.Apply(m.tasks, r)
	if !changed {
		return m, nil
	}
	m.tasks = next
	m.follow(r.TaskID)

	if !m.env.PersistDrag || r.Destination.Column == r.Source.Column {
		return m, nil
	}
	var moved domain.Task
	for _, t := range next {
		if t.ID == r.TaskID {
			moved = t
		}
	}
	api, boardID := m.env.API, m.boardID
	key := client.NewIdempotencyKey()
	return m, m.env.scope.run(func(ctx context.Context) tea.Msg {
		_, err := api.UpdateTask(client.WithIdempotencyKey(ctx, key), boardID, moved.ID, client.TaskRequest{
			Title:       moved.Title,
			Description: moved.Description,
			Status:      moved.Status,
		})
		return taskMovedMsg{taskID: moved.ID, status: moved.Status, prev: prev, err: err}
	})
}

// follow moves the cursor onto a task.
func (m *boardPage) follow(taskID string) {
	for ci, status := range kanban.Columns {
		for ri, t := range kanban.Column(m.tasks, status) {
			if t.ID == taskID {
				m.col, m.row = ci, ri
				return
			}
		}
	}
}

func (m *boardPage) clampCursor() {
	n := len(m.column(m.col))
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m boardPage) column(i int) []domain.Task {
	return kanban.Column(m.tasks, kanban.Columns[i])
}

func (m boardPage) selected() *domain.Task {
	col := m.column(m.col)
	if m.row < 0 || m.row >= len(col) {
		return nil
	}
	t := col[m.row]
	return &t
}

func (m boardPage) View() string {
	if m.notFound {
		return "\n " + titleStyle.Render("board not found") + "\n " + metaStyle.Render(m.boardID) + "\n"
	}
	if m.board == nil {
		if m.err != "" {
			return " " + errorStyle.Render("error: "+m.err) + "\n"
		}
		return " " + dimStyle.Render("loading...") + "\n"
	}

	var b strings.Builder
	title := " " + titleStyle.Render(m.board.Name)
	if badge := RoleBadge(m.role); badge != "" {
		title += " " + badge
	}
	b.WriteString(title + "\n")
	if m.board.Description != "" {
		b.WriteString(" " + dimStyle.Render(truncStr(oneLine(m.board.Description), max(m.env.size.Width-2, 20))) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading && len(m.tasks) == 0:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render("error: "+m.err) + "\n")
	default:
		b.WriteString(m.viewColumns() + "\n")
	}

	if m.dialog != boardNone {
		b.WriteString(m.viewDialog())
	}
	return b.String()
}

func (m boardPage) viewColumns() string {
	width := m.env.size.Width
	if width <= 0 {
		width = 90
	}
	colWidth := max((width-2)/len(kanban.Columns)-4, 14)

	groups := kanban.Group(m.tasks)
	cols := make([]string, 0, len(kanban.Columns))
	for ci, status := range kanban.Columns {
		var sb strings.Builder
		tasks := groups[status]
		sb.WriteString(StatusStyle(status).Render(status.Title()) + " " + metaStyle.Render(fmt.Sprintf("%d", len(tasks))) + "\n")

		ghost := m.drag != nil && m.drag.target.Column == status && m.drag.target != m.drag.source
		for ri, t := range tasks {
			if ghost && ri == m.drag.target.Index {
				sb.WriteString(m.viewGhost(colWidth) + "\n")
			}
			line := truncStr(oneLine(t.Title), colWidth-2)
			switch {
			case m.drag != nil && t.ID == m.drag.taskID:
				sb.WriteString(metaStyle.Render("  "+line) + "\n")
			case m.drag == nil && ci == m.col && ri == m.row:
				sb.WriteString(accentStyle.Render("▸ ") + selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
			default:
				sb.WriteString("  " + normalStyle.Render(line) + "\n")
			}
		}
		if ghost && m.drag.target.Index >= len(tasks) {
			sb.WriteString(m.viewGhost(colWidth) + "\n")
		}
		if len(tasks) == 0 && (m.drag == nil || m.drag.target.Column != status) {
			sb.WriteString(metaStyle.Render("  empty") + "\n")
		}

		style := columnStyle
		switch {
		case m.drag != nil && m.drag.target.Column == status:
			style = dropTargetStyle
		case m.drag == nil && ci == m.col:
			style = activeColumnStyle
		}
		cols = append(cols, style.Width(colWidth).Render(strings.TrimRight(sb.String(), "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m boardPage) viewGhost(width int) string {
	for _, t := range m.tasks {
		if t.ID == m.drag.taskID {
			return draggingStyle.Render("» " + truncStr(oneLine(t.Title), width-2))
		}
	}
	return ""
}

func (m boardPage) helpKeys() string {
	if m.notFound || m.board == nil {
		return helpBar("esc", "dashboard", "q", "quit")
	}
	if m.dialog != boardNone {
		return m.dialogHelpKeys()
	}
	if m.drag != nil {
		return helpBar("h/l", "column", "j/k", "slot", "enter", "drop", "esc", "cancel")
	}
	keys := []string{"h/j/k/l", "nav", "space", "drag", "</>", "move", "a", "add", "e", "edit"}
	if m.role.CanDeleteTasks() {
		keys = append(keys, "d", "delete")
	}
	keys = append(keys, "enter", "details", "m", "members", "r", "reload", "esc", "back")
	return helpBar(keys...)
}

func (m boardPage) capturing() bool {
	switch m.dialog {
	case boardAdd, boardEdit:
		return true
	case boardMembers:
		return m.addingMember
	}
	return false
}
