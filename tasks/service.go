// Package tasks resolves task queries and applies task mutations under the
// role and assignee rules of the policy table.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"team-task-manager/apperr"
	"team-task-manager/models"
)

const (
	msgTaskNotFound     = "Task not found"
	msgAccessDenied     = "Access denied"
	msgCannotReassign   = "Members cannot reassign tasks"
	msgAssigneeNotFound = "Assigned user not found"
)

type Service struct {
	tasks TaskRepository
	users UserDirectory
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the comment ID generator.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

func NewService(tasks TaskRepository, users UserDirectory, opts ...Option) *Service {
	s := &Service{
		tasks: tasks,
		users: users,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List runs a resolved list query and returns one page with pagination.
func (s *Service) List(ctx context.Context, c Caller, p ListParams) (*models.TaskPage, error) {
	q := ResolveListQuery(c, p, s.now())

	total, err := s.tasks.Count(ctx, q.Filter)
	if err != nil {
		return nil, apperr.Internal(err, "failed to count tasks")
	}
	found, err := s.tasks.Find(ctx, q.Filter, q.Sort, q.Skip(), q.Limit)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list tasks")
	}

	views, err := s.populate(ctx, found...)
	if err != nil {
		return nil, err
	}
	return &models.TaskPage{
		Tasks:      views,
		Pagination: NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, c Caller, id string) (*models.TaskView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Evaluate(OpRead, c, t).Allowed {
		return nil, apperr.Forbidden(msgAccessDenied)
	}
	return s.populateOne(ctx, t)
}

func (s *Service) Create(ctx context.Context, c Caller, in CreateTaskInput) (*models.TaskView, error) {
	if !RoleMayAttempt(OpCreate, c.Role) {
		return nil, apperr.Forbidden(msgAccessDenied)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	deadline, err := in.deadline(now)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
		return nil, err
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		priority = models.Priority(in.Priority)
	}
	t, err := s.tasks.Insert(ctx, &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Deadline:    deadline,
		Status:      models.StatusPending,
		Priority:    priority,
		CreatedBy:   c.ID,
		AssignedTo:  in.AssignedTo,
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to create task")
	}
	return s.populateOne(ctx, t)
}

// Update applies the fields of in that the caller may write. Fields outside
// the caller's grant are dropped, except that a rejected field fails the
// whole request.
func (s *Service) Update(ctx context.Context, c Caller, id string, in UpdateTaskInput) (*models.TaskView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	g := Evaluate(OpUpdate, c, t)
	if !g.Allowed {
		return nil, apperr.Forbidden(msgAccessDenied)
	}
	if in.Present().Intersects(g.Rejects) {
		return nil, apperr.Forbidden(msgCannotReassign)
	}

	now := s.now()
	fields, err := in.fields(g.Writable, now.Location())
	if err != nil {
		return nil, err
	}
	if fields.AssignedTo != nil && *fields.AssignedTo != t.AssignedTo {
		if err := s.checkAssignee(ctx, *fields.AssignedTo); err != nil {
			return nil, err
		}
	}
	if fields.Empty() {
		return s.populateOne(ctx, t)
	}

	fields.UpdatedAt = now
	updated, err := s.tasks.UpdateFields(ctx, id, fields)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound(msgTaskNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update task")
	}
	return s.populateOne(ctx, updated)
}

func (s *Service) Delete(ctx context.Context, c Caller, id string) error {
	if !RoleMayAttempt(OpDelete, c.Role) {
		return apperr.Forbidden(msgAccessDenied)
	}
	ok, err := s.tasks.DeleteByID(ctx, id)
	if err != nil {
		return apperr.Internal(err, "failed to delete task")
	}
	if !ok {
		return apperr.NotFound(msgTaskNotFound)
	}
	return nil
}

// AddComment appends a comment by the caller. text is expected to have
// passed CommentInput validation.
func (s *Service) AddComment(ctx context.Context, c Caller, id, text string) (*models.CommentView, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Evaluate(OpComment, c, t).Allowed {
		return nil, apperr.Forbidden(msgAccessDenied)
	}

	comment := models.Comment{
		ID:        s.newID(),
		User:      c.ID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if _, err := s.tasks.AppendComment(ctx, id, comment); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, apperr.NotFound(msgTaskNotFound)
		}
		return nil, apperr.Internal(err, "failed to add comment")
	}

	users, err := s.users.FindByIDs(ctx, []string{c.ID})
	if err != nil {
		return nil, apperr.Internal(err, "failed to load users")
	}
	v := models.NewCommentView(comment, users)
	return &v, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound(msgTaskNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load task")
	}
	return t, nil
}

func (s *Service) checkAssignee(ctx context.Context, id string) error {
	_, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return apperr.Validation(msgAssigneeNotFound, apperr.FieldError{Field: "assignedTo", Message: msgAssigneeNotFound})
	}
	if err != nil {
		return apperr.Internal(err, "failed to load assignee")
	}
	return nil
}

// populate expands user references with a single batch lookup.
func (s *Service) populate(ctx context.Context, ts ...*models.Task) ([]*models.TaskView, error) {
	seen := map[string]bool{}
	var ids []string
	for _, t := range ts {
		for _, id := range t.UserIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users := map[string]*models.User{}
	if len(ids) > 0 {
		var err error
		users, err = s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, apperr.Internal(err, "failed to load users")
		}
	}

	views := make([]*models.TaskView, 0, len(ts))
	for _, t := range ts {
		views = append(views, models.NewTaskView(t, users))
	}
	return views, nil
}

func (s *Service) populateOne(ctx context.Context, t *models.Task) (*models.TaskView, error) {
	views, err := s.populate(ctx, t)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}
