// Package memstore keeps tasks and users in process memory. It backs local
// development and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"team-task-manager/models"
)

type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[string]*models.Task{}}
}

func (s *TaskStore) Find(_ context.Context, filter models.TaskFilter, order models.TaskSort, skip, limit int) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(filter)
	sort.SliceStable(matched, func(i, j int) bool { return order.Less(matched[i], matched[j]) })

	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []*models.Task{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]*models.Task, len(matched))
	for i, t := range matched {
		out[i] = t.Clone()
	}
	return out, nil
}

func (s *TaskStore) Count(_ context.Context, filter models.TaskFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(filter))), nil
}

// match must be called with the lock held.
func (s *TaskStore) match(f models.TaskFilter) []*models.Task {
	var out []*models.Task
	for _, t := range s.tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskStore) FindByID(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *TaskStore) Insert(_ context.Context, t *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := t.Clone()
	stored.ID = uuid.NewString()
	s.tasks[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *TaskStore) UpdateFields(_ context.Context, id string, fields models.TaskFields) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	fields.Apply(t)
	return t.Clone(), nil
}

func (s *TaskStore) AppendComment(_ context.Context, id string, c models.Comment) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	t.Comments = append(t.Comments, c)
	t.UpdatedAt = c.CreatedAt
	return t.Clone(), nil
}

func (s *TaskStore) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}
