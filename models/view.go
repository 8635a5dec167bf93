package models

import "time"

// TaskView is the wire form of a task with creator, assignee and comment
// authors expanded.
type TaskView struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Deadline    time.Time     `json:"deadline"`
	Status      Status        `json:"status"`
	Priority    Priority      `json:"priority"`
	CreatedBy   *UserSummary  `json:"createdBy"`
	AssignedTo  *UserSummary  `json:"assignedTo"`
	Comments    []CommentView `json:"comments"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type CommentView struct {
	ID        string       `json:"_id"`
	User      *UserSummary `json:"user"`
	Text      string       `json:"text"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

type TaskPage struct {
	Tasks      []*TaskView `json:"tasks"`
	Pagination Pagination  `json:"pagination"`
}

// NewTaskView expands t using users keyed by ID. A reference to a user that
// no longer exists is kept as a bare ID.
func NewTaskView(t *Task, users map[string]*User) *TaskView {
	v := &TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedBy:   summarize(t.CreatedBy, users),
		AssignedTo:  summarize(t.AssignedTo, users),
		Comments:    make([]CommentView, 0, len(t.Comments)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, c := range t.Comments {
		v.Comments = append(v.Comments, NewCommentView(c, users))
	}
	return v
}

func NewCommentView(c Comment, users map[string]*User) CommentView {
	return CommentView{
		ID:        c.ID,
		User:      summarize(c.User, users),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func summarize(id string, users map[string]*User) *UserSummary {
	if id == "" {
		return nil
	}
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return &UserSummary{ID: id}
}
