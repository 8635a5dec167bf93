package tasks

import (
	"strings"
	"time"

	"team-task-manager/apperr"
	"team-task-manager/models"
	"team-task-manager/validation"
)

const (
	msgTitle       = "Title must be between 1 and 100 characters"
	msgDescription = "Description must be between 1 and 500 characters"
	msgDeadline    = "Please provide a valid deadline"
	msgAssignee    = "Please provide a valid assignee ID"
	msgPriority    = "Priority must be Low, Medium, or High"
	msgStatus      = "Status must be Pending, In Progress, or Completed"
	msgComment     = "Comment must be between 1 and 200 characters"
)

var taskMessages = map[string]string{
	"title":       msgTitle,
	"description": msgDescription,
	"deadline":    msgDeadline,
	"assignedTo":  msgAssignee,
	"priority":    msgPriority,
	"status":      msgStatus,
}

// CreateTaskInput is the body of a create request.
type CreateTaskInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
	Deadline    string `json:"deadline" validate:"required,iso8601"`
	AssignedTo  string `json:"assignedTo" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,taskpriority"`
}

func (in *CreateTaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
}

// Validate trims the text fields in place and checks the shape of the input.
func (in *CreateTaskInput) Validate() error {
	in.normalize()
	return validation.Struct(in, taskMessages)
}

// deadline parses a validated input; it also rejects deadlines not after now.
func (in *CreateTaskInput) deadline(now time.Time) (time.Time, error) {
	d, err := validation.ParseTimestamp(in.Deadline, now.Location())
	if err != nil {
		return time.Time{}, apperr.Validation("Validation failed", apperr.FieldError{Field: "deadline", Message: msgDeadline})
	}
	if !d.After(now) {
		return time.Time{}, apperr.Validation("Validation failed", apperr.FieldError{Field: "deadline", Message: "Deadline must be in the future"})
	}
	return d, nil
}

// UpdateTaskInput is the body of an update request. Nil fields were not sent.
type UpdateTaskInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,min=1,max=500"`
	Deadline    *string `json:"deadline" validate:"omitnil,iso8601"`
	Status      *string `json:"status" validate:"omitnil,taskstatus"`
	Priority    *string `json:"priority" validate:"omitnil,taskpriority"`
	AssignedTo  *string `json:"assignedTo" validate:"omitnil,min=1"`
}

func (in *UpdateTaskInput) normalize() {
	for _, p := range []*string{in.Title, in.Description, in.AssignedTo} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

func (in *UpdateTaskInput) Validate() error {
	in.normalize()
	return validation.Struct(in, taskMessages)
}

// Present is the set of fields the request supplied.
func (in *UpdateTaskInput) Present() FieldSet {
	var s FieldSet
	add := func(ok bool, f Field) {
		if ok {
			s |= FieldSet(f)
		}
	}
	add(in.Title != nil, FieldTitle)
	add(in.Description != nil, FieldDescription)
	add(in.Deadline != nil, FieldDeadline)
	add(in.Status != nil, FieldStatus)
	add(in.Priority != nil, FieldPriority)
	add(in.AssignedTo != nil, FieldAssignedTo)
	return s
}

// fields converts a validated input into assignments, keeping only the
// fields in writable.
func (in *UpdateTaskInput) fields(writable FieldSet, loc *time.Location) (models.TaskFields, error) {
	var f models.TaskFields
	if in.Title != nil && writable.Has(FieldTitle) {
		f.Title = in.Title
	}
	if in.Description != nil && writable.Has(FieldDescription) {
		f.Description = in.Description
	}
	if in.Deadline != nil && writable.Has(FieldDeadline) {
		d, err := validation.ParseTimestamp(*in.Deadline, loc)
		if err != nil {
			return f, apperr.Validation("Validation failed", apperr.FieldError{Field: "deadline", Message: msgDeadline})
		}
		f.Deadline = &d
	}
	if in.Status != nil && writable.Has(FieldStatus) {
		s := models.Status(*in.Status)
		f.Status = &s
	}
	if in.Priority != nil && writable.Has(FieldPriority) {
		p := models.Priority(*in.Priority)
		f.Priority = &p
	}
	if in.AssignedTo != nil && writable.Has(FieldAssignedTo) {
		f.AssignedTo = in.AssignedTo
	}
	return f, nil
}

// CommentInput is the body of an add-comment request.
type CommentInput struct {
	Text string `json:"text" validate:"required,max=200"`
}

func (in *CommentInput) Validate() error {
	in.Text = strings.TrimSpace(in.Text)
	return validation.Struct(in, map[string]string{"text": msgComment})
}
