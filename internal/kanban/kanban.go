// Package kanban groups tasks into status columns and applies drag results.
package kanban

import "github.com/naveenspark/taskboard/pkg/domain"

// Columns are the board columns in display order.
var Columns = domain.Statuses

// Location is a slot inside a column.
type Location struct {
	Column domain.Status
	Index  int
}

// DragResult describes a finished drag. Destination is nil when the card was
// dropped outside any column or the drag was cancelled.
type DragResult struct {
	TaskID      string
	Source      Location
	Destination *Location
}

// Column returns the tasks in status, keeping list order.
func Column(tasks []domain.Task, status domain.Status) []domain.Task {
	var out []domain.Task
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Group splits tasks into one slice per column.
func Group(tasks []domain.Task) map[domain.Status][]domain.Task {
	g := make(map[domain.Status][]domain.Task, len(Columns))
	for _, c := range Columns {
		g[c] = Column(tasks, c)
	}
	return g
}

// IsNoop reports whether r leaves the board unchanged.
func (r DragResult) IsNoop() bool {
	return r.Destination == nil || *r.Destination == r.Source
}

// Apply moves the dragged task to the destination column. It returns the input
// slice and false when nothing changes, otherwise a new slice where only the
// dragged task's status differs. The index is not kept: order within a column
// stays list order.
func Apply(tasks []domain.Task, r DragResult) ([]domain.Task, bool) {
	if r.IsNoop() || !domain.ValidStatus(r.Destination.Column) {
		return tasks, false
	}
	idx := -1
	for i, t := range tasks {
		if t.ID == r.TaskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return tasks, false
	}
	next := make([]domain.Task, len(tasks))
	copy(next, tasks)
	next[idx].Status = r.Destination.Column
	return next, true
}

// Neighbor returns the column n steps from status, clamped to the board edges.
func Neighbor(status domain.Status, n int) domain.Status {
	i := indexOf(status) + n
	if i < 0 {
		i = 0
	}
	if i >= len(Columns) {
		i = len(Columns) - 1
	}
	return Columns[i]
}

func indexOf(status domain.Status) int {
	for i, c := range Columns {
		if c == status {
			return i
		}
	}
	return 0
}
