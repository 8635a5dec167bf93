package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the referenced record does not exist.
var ErrNotFound = errors.New("record not found")

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is one of the three task states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the stored form of a task. CreatedBy, AssignedTo and Comment.User
// hold user IDs; display data is attached separately (see TaskView).
type Task struct {
	ID          string
	Title       string
	Description string
	Deadline    time.Time
	Status      Status
	Priority    Priority
	CreatedBy   string
	AssignedTo  string
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is append-only once stored.
type Comment struct {
	ID        string
	User      string
	Text      string
	CreatedAt time.Time
}

// Clone returns a deep copy so callers can't alias the comment slice.
func (t *Task) Clone() *Task {
	c := *t
	c.Comments = append([]Comment(nil), t.Comments...)
	return &c
}

// UserIDs lists creator, assignee and comment authors, without duplicates.
func (t *Task) UserIDs() []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	add(t.CreatedBy)
	add(t.AssignedTo)
	for _, c := range t.Comments {
		add(c.User)
	}
	return ids
}
