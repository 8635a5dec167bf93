package models

import (
	"strings"
	"time"
)

// TaskFilter is a conjunction of predicates; zero-valued fields are not applied.
type TaskFilter struct {
	AssignedTo string
	// Status is matched literally, so a value outside the enum simply matches nothing.
	Status    Status
	StatusNot Status
	// DeadlineBefore is an exclusive upper bound, DeadlineAtMost an inclusive one.
	DeadlineBefore *time.Time
	DeadlineAtMost *time.Time
}

// Matches evaluates the filter against a stored task.
func (f TaskFilter) Matches(t *Task) bool {
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.StatusNot != "" && t.Status == f.StatusNot {
		return false
	}
	if f.DeadlineBefore != nil && !t.Deadline.Before(*f.DeadlineBefore) {
		return false
	}
	if f.DeadlineAtMost != nil && t.Deadline.After(*f.DeadlineAtMost) {
		return false
	}
	return true
}

type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByDeadline  SortField = "deadline"
	SortByPriority  SortField = "priority"
	SortByStatus    SortField = "status"
)

type TaskSort struct {
	Field SortField
	Desc  bool
}

// Less orders a before b under s. Priority and status compare as stored
// strings; ties fall back to creation time, newest first.
func (s TaskSort) Less(a, b *Task) bool {
	var c int
	switch s.Field {
	case SortByDeadline:
		c = a.Deadline.Compare(b.Deadline)
	case SortByPriority:
		c = strings.Compare(string(a.Priority), string(b.Priority))
	case SortByStatus:
		c = strings.Compare(string(a.Status), string(b.Status))
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if s.Desc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	// Ties fall back to newest first, then to descending ID.
	if s.Field != SortByCreatedAt {
		if c = b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c < 0
		}
	}
	return a.ID > b.ID
}

// TaskFields is a set of field assignments for UpdateFields. Nil means
// "leave unchanged". UpdatedAt is stamped by the caller and applied when
// non-zero; it does not count toward Empty.
type TaskFields struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	Status      *Status
	Priority    *Priority
	AssignedTo  *string
	UpdatedAt   time.Time
}

func (f TaskFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Deadline == nil &&
		f.Status == nil && f.Priority == nil && f.AssignedTo == nil
}

// Apply writes the set fields onto t.
func (f TaskFields) Apply(t *Task) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Deadline != nil {
		t.Deadline = *f.Deadline
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.AssignedTo != nil {
		t.AssignedTo = *f.AssignedTo
	}
	if !f.UpdatedAt.IsZero() {
		t.UpdatedAt = f.UpdatedAt
	}
}
