package tasks

import (
	"context"

	"team-task-manager/models"
)

// TaskRepository is the persistence boundary for tasks. Absent records are
// reported as models.ErrNotFound.
type TaskRepository interface {
	Find(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, skip, limit int) ([]*models.Task, error)
	Count(ctx context.Context, filter models.TaskFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	// Insert assigns the ID.
	Insert(ctx context.Context, task *models.Task) (*models.Task, error)
	UpdateFields(ctx context.Context, id string, fields models.TaskFields) (*models.Task, error)
	// AppendComment must push the comment in a single atomic write.
	AppendComment(ctx context.Context, id string, comment models.Comment) (*models.Task, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// UserDirectory is the read side of the user store that the task service
// needs: assignee checks and display data.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}
