package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"team-task-manager/models"
	"team-task-manager/utilities"
)

// User references are stored as plain strings so the task collection works
// with any user store.
type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Deadline    time.Time          `bson:"deadline"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	CreatedBy   string             `bson:"createdBy"`
	AssignedTo  string             `bson:"assignedTo"`
	Comments    []commentDocument  `bson:"comments"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type commentDocument struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

func newTaskDocument(t *models.Task) taskDocument {
	d := taskDocument{
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		Comments:    make([]commentDocument, 0, len(t.Comments)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, c := range t.Comments {
		d.Comments = append(d.Comments, newCommentDocument(c))
	}
	return d
}

func newCommentDocument(c models.Comment) commentDocument {
	return commentDocument{ID: c.ID, User: c.User, Text: c.Text, CreatedAt: c.CreatedAt}
}

func (d taskDocument) task() *models.Task {
	t := &models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Deadline:    d.Deadline,
		Status:      models.Status(d.Status),
		Priority:    models.Priority(d.Priority),
		CreatedBy:   d.CreatedBy,
		AssignedTo:  d.AssignedTo,
		Comments:    make([]models.Comment, 0, len(d.Comments)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range d.Comments {
		t.Comments = append(t.Comments, models.Comment{ID: c.ID, User: c.User, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return t
}

// taskFilterDocument translates f into a query document.
func taskFilterDocument(f models.TaskFilter) bson.M {
	doc := bson.M{}
	if f.AssignedTo != "" {
		doc["assignedTo"] = f.AssignedTo
	}

	status := bson.M{}
	if f.Status != "" {
		status["$eq"] = string(f.Status)
	}
	if f.StatusNot != "" {
		status["$ne"] = string(f.StatusNot)
	}
	if len(status) > 0 {
		doc["status"] = status
	}

	deadline := bson.M{}
	if f.DeadlineBefore != nil {
		deadline["$lt"] = *f.DeadlineBefore
	}
	if f.DeadlineAtMost != nil {
		deadline["$lte"] = *f.DeadlineAtMost
	}
	if len(deadline) > 0 {
		doc["deadline"] = deadline
	}
	return doc
}

// taskSortDocument orders by the requested field with newest-first as the
// tie breaker.
func taskSortDocument(s models.TaskSort) bson.D {
	dir := 1
	if s.Desc {
		dir = -1
	}
	field := string(s.Field)
	if field == "" {
		field = string(models.SortByCreatedAt)
	}
	sort := bson.D{{Key: field, Value: dir}}
	if field != string(models.SortByCreatedAt) {
		sort = append(sort, bson.E{Key: "createdAt", Value: -1})
	}
	return append(sort, bson.E{Key: "_id", Value: -1})
}

// taskUpdateDocument builds the $set for fields; nil when nothing is set.
func taskUpdateDocument(f models.TaskFields) bson.M {
	set := bson.M{}
	if f.Title != nil {
		set["title"] = *f.Title
	}
	if f.Description != nil {
		set["description"] = *f.Description
	}
	if f.Deadline != nil {
		set["deadline"] = *f.Deadline
	}
	if f.Status != nil {
		set["status"] = string(*f.Status)
	}
	if f.Priority != nil {
		set["priority"] = string(*f.Priority)
	}
	if f.AssignedTo != nil {
		set["assignedTo"] = *f.AssignedTo
	}
	if !f.UpdatedAt.IsZero() {
		set["updatedAt"] = f.UpdatedAt
	}
	if len(set) == 0 {
		return nil
	}
	return bson.M{"$set": set}
}

type MongoTaskRepository struct {
	collection *mongo.Collection
}

func NewMongoTaskRepository(db *mongo.Database) *MongoTaskRepository {
	collection := db.Collection("tasks")

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "deadline", Value: 1}}},
	})
	if err != nil {
		utilities.LogWarn("failed to create task indexes: %v", err)
	}
	return &MongoTaskRepository{collection: collection}
}

func (r *MongoTaskRepository) Find(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, skip, limit int) ([]*models.Task, error) {
	skip = max(skip, 0)
	opts := options.Find().
		SetSort(taskSortDocument(sort)).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, taskFilterDocument(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	out := make([]*models.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.task())
	}
	return out, nil
}

func (r *MongoTaskRepository) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, taskFilterDocument(filter))
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var d taskDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding task %s: %w", id, err)
	}
	return d.task(), nil
}

func (r *MongoTaskRepository) Insert(ctx context.Context, t *models.Task) (*models.Task, error) {
	d := newTaskDocument(t)
	d.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, d); err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return d.task(), nil
}

func (r *MongoTaskRepository) UpdateFields(ctx context.Context, id string, fields models.TaskFields) (*models.Task, error) {
	update := taskUpdateDocument(fields)
	if update == nil {
		return r.FindByID(ctx, id)
	}
	return r.findOneAndUpdate(ctx, id, update)
}

// AppendComment uses $push so concurrent appends never overwrite each other.
func (r *MongoTaskRepository) AppendComment(ctx context.Context, id string, c models.Comment) (*models.Task, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"comments": newCommentDocument(c)},
		"$set":  bson.M{"updatedAt": c.CreatedAt},
	})
}

func (r *MongoTaskRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var d taskDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return d.task(), nil
}

func (r *MongoTaskRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("deleting task %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}
