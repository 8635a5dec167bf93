package firebase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"team-task-manager/models"
)

type taskRecord struct {
	Title       string          `firestore:"title"`
	Description string          `firestore:"description"`
	Deadline    time.Time       `firestore:"deadline"`
	Status      string          `firestore:"status"`
	Priority    string          `firestore:"priority"`
	CreatedBy   string          `firestore:"createdBy"`
	AssignedTo  string          `firestore:"assignedTo"`
	Comments    []commentRecord `firestore:"comments"`
	CreatedAt   time.Time       `firestore:"createdAt"`
	UpdatedAt   time.Time       `firestore:"updatedAt"`
}

// The ID makes each comment distinct, so ArrayUnion never merges two.
type commentRecord struct {
	ID        string    `firestore:"id"`
	User      string    `firestore:"user"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func newTaskRecord(t *models.Task) taskRecord {
	r := taskRecord{
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		Comments:    make([]commentRecord, 0, len(t.Comments)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, c := range t.Comments {
		r.Comments = append(r.Comments, commentRecord(c))
	}
	return r
}

func (r taskRecord) task(id string) *models.Task {
	t := &models.Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline,
		Status:      models.Status(r.Status),
		Priority:    models.Priority(r.Priority),
		CreatedBy:   r.CreatedBy,
		AssignedTo:  r.AssignedTo,
		Comments:    make([]models.Comment, 0, len(r.Comments)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, c := range r.Comments {
		t.Comments = append(t.Comments, models.Comment(c))
	}
	return t
}

type whereClause struct {
	Path  string
	Op    string
	Value any
}

// whereClauses translates f into Firestore filters. A status that must both
// equal and differ from the same value matches nothing, reported by ok=false;
// otherwise the equality makes the inequality redundant and it is dropped.
func whereClauses(f models.TaskFilter) (clauses []whereClause, ok bool) {
	if f.AssignedTo != "" {
		clauses = append(clauses, whereClause{"assignedTo", "==", f.AssignedTo})
	}
	switch {
	case f.Status != "" && f.StatusNot != "":
		if f.Status == f.StatusNot {
			return nil, false
		}
		clauses = append(clauses, whereClause{"status", "==", string(f.Status)})
	case f.Status != "":
		clauses = append(clauses, whereClause{"status", "==", string(f.Status)})
	case f.StatusNot != "":
		clauses = append(clauses, whereClause{"status", "!=", string(f.StatusNot)})
	}
	if f.DeadlineBefore != nil {
		clauses = append(clauses, whereClause{"deadline", "<", *f.DeadlineBefore})
	}
	if f.DeadlineAtMost != nil {
		clauses = append(clauses, whereClause{"deadline", "<=", *f.DeadlineAtMost})
	}
	return clauses, true
}

type orderClause struct {
	Path string
	Dir  firestore.Direction
}

func orderClauses(s models.TaskSort) []orderClause {
	dir := firestore.Asc
	if s.Desc {
		dir = firestore.Desc
	}
	field := string(s.Field)
	if field == "" {
		field = string(models.SortByCreatedAt)
	}
	out := []orderClause{{field, dir}}
	if field != string(models.SortByCreatedAt) {
		out = append(out, orderClause{string(models.SortByCreatedAt), firestore.Desc})
	}
	return append(out, orderClause{firestore.DocumentID, firestore.Desc})
}

func updates(f models.TaskFields) []firestore.Update {
	var out []firestore.Update
	if f.Title != nil {
		out = append(out, firestore.Update{Path: "title", Value: *f.Title})
	}
	if f.Description != nil {
		out = append(out, firestore.Update{Path: "description", Value: *f.Description})
	}
	if f.Deadline != nil {
		out = append(out, firestore.Update{Path: "deadline", Value: *f.Deadline})
	}
	if f.Status != nil {
		out = append(out, firestore.Update{Path: "status", Value: string(*f.Status)})
	}
	if f.Priority != nil {
		out = append(out, firestore.Update{Path: "priority", Value: string(*f.Priority)})
	}
	if f.AssignedTo != nil {
		out = append(out, firestore.Update{Path: "assignedTo", Value: *f.AssignedTo})
	}
	if !f.UpdatedAt.IsZero() {
		out = append(out, firestore.Update{Path: "updatedAt", Value: f.UpdatedAt})
	}
	return out
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// validID rejects IDs Firestore would read as a path.
func validID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}

type FirestoreTaskRepository struct {
	collection *firestore.CollectionRef
}

func NewFirestoreTaskRepository(client *firestore.Client, collection string) *FirestoreTaskRepository {
	return &FirestoreTaskRepository{collection: client.Collection(collection)}
}

func (r *FirestoreTaskRepository) filtered(f models.TaskFilter) (firestore.Query, bool) {
	clauses, ok := whereClauses(f)
	q := r.collection.Query
	for _, c := range clauses {
		q = q.Where(c.Path, c.Op, c.Value)
	}
	return q, ok
}

func (r *FirestoreTaskRepository) Find(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, skip, limit int) ([]*models.Task, error) {
	q, ok := r.filtered(filter)
	if !ok {
		return []*models.Task{}, nil
	}
	for _, o := range orderClauses(sort) {
		q = q.OrderBy(o.Path, o.Dir)
	}
	q = q.Offset(max(skip, 0)).Limit(limit)

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*models.Task{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		var rec taskRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("decoding task %s: %w", doc.Ref.ID, err)
		}
		out = append(out, rec.task(doc.Ref.ID))
	}
	return out, nil
}

func (r *FirestoreTaskRepository) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	q, ok := r.filtered(filter)
	if !ok {
		return 0, nil
	}
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("counting tasks: unexpected aggregation result %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}

func (r *FirestoreTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}
	doc, err := r.collection.Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	var rec taskRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decoding task %s: %w", id, err)
	}
	return rec.task(id), nil
}

func (r *FirestoreTaskRepository) Insert(ctx context.Context, t *models.Task) (*models.Task, error) {
	id := uuid.NewString()
	rec := newTaskRecord(t)
	if _, err := r.collection.Doc(id).Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return rec.task(id), nil
}

func (r *FirestoreTaskRepository) UpdateFields(ctx context.Context, id string, fields models.TaskFields) (*models.Task, error) {
	ups := updates(fields)
	if len(ups) == 0 {
		return r.FindByID(ctx, id)
	}
	return r.update(ctx, id, ups)
}

// AppendComment relies on ArrayUnion being applied server side in one write.
func (r *FirestoreTaskRepository) AppendComment(ctx context.Context, id string, c models.Comment) (*models.Task, error) {
	return r.update(ctx, id, []firestore.Update{
		{Path: "comments", Value: firestore.ArrayUnion(commentRecord(c))},
		{Path: "updatedAt", Value: c.CreatedAt},
	})
}

func (r *FirestoreTaskRepository) update(ctx context.Context, id string, ups []firestore.Update) (*models.Task, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}
	_, err := r.collection.Doc(id).Update(ctx, ups)
	if isNotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return r.FindByID(ctx, id)
}

func (r *FirestoreTaskRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	_, err := r.collection.Doc(id).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("deleting task %s: %w", id, err)
	}
	return true, nil
}
