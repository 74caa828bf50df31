package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the kanban column a task sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists the column keys in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

var statusTitles = map[Status]string{
	StatusTodo:       "To do",
	StatusInProgress: "In progress",
	StatusDone:       "Done",
}

// ValidStatus returns true if s is one of the three column keys.
func ValidStatus(s Status) bool {
	_, ok := statusTitles[s]
	return ok
}

// Title returns the column heading for the status.
func (s Status) Title() string {
	if t, ok := statusTitles[s]; ok {
		return t
	}
	return string(s)
}

// UnmarshalJSON rejects statuses outside the fixed column set.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if !ValidStatus(Status(raw)) {
		return fmt.Errorf("status: unknown value %q", raw)
	}
	*s = Status(raw)
	return nil
}

// Task is a unit of work inside a board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	BoardID     string     `json:"board_id"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
