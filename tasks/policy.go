package tasks

import (
	"strings"

	"team-task-manager/models"
)

type Operation int

const (
	OpRead Operation = iota
	OpCreate
	OpUpdate
	OpDelete
	OpComment
)

func (o Operation) String() string {
	return [...]string{"read", "create", "update", "delete", "comment"}[o]
}

// Relation is how the caller stands to a particular task.
type Relation int

const (
	RelationNone Relation = iota
	RelationAssignee
)

// Field is a writable task field.
type Field uint8

const (
	FieldTitle Field = 1 << iota
	FieldDescription
	FieldDeadline
	FieldStatus
	FieldPriority
	FieldAssignedTo
)

// FieldSet is a bitmask of Fields.
type FieldSet uint8

const AllFields = FieldSet(FieldTitle | FieldDescription | FieldDeadline | FieldStatus | FieldPriority | FieldAssignedTo)

func Fields(fs ...Field) FieldSet {
	var s FieldSet
	for _, f := range fs {
		s |= FieldSet(f)
	}
	return s
}

func (s FieldSet) Has(f Field) bool { return s&FieldSet(f) != 0 }

// Intersects reports whether any field is in both sets.
func (s FieldSet) Intersects(o FieldSet) bool { return s&o != 0 }

func (s FieldSet) String() string {
	names := []string{"title", "description", "deadline", "status", "priority", "assignedTo"}
	var out []string
	for i, n := range names {
		if s.Has(Field(1 << i)) {
			out = append(out, n)
		}
	}
	return "{" + strings.Join(out, ",") + "}"
}

// Grant is the outcome of a policy lookup. Writable lists the fields an
// update may change; anything else supplied is dropped. Supplying any field
// in Rejects fails the whole request.
type Grant struct {
	Allowed  bool
	Writable FieldSet
	Rejects  FieldSet
}

var (
	denied     = Grant{}
	fullAccess = Grant{Allowed: true, Writable: AllFields}
	viewOnly   = Grant{Allowed: true}
)

type policyKey struct {
	op   Operation
	role models.Role
	rel  Relation
}

// Missing entries are denied.
var policyTable = map[policyKey]Grant{
	{OpRead, models.RoleAdmin, RelationNone}:     fullAccess,
	{OpRead, models.RoleAdmin, RelationAssignee}: fullAccess,
	{OpRead, models.RoleMember, RelationAssignee}: viewOnly,

	{OpCreate, models.RoleAdmin, RelationNone}: fullAccess,

	{OpUpdate, models.RoleAdmin, RelationNone}:     fullAccess,
	{OpUpdate, models.RoleAdmin, RelationAssignee}: fullAccess,
	{OpUpdate, models.RoleMember, RelationAssignee}: {
		Allowed:  true,
		Writable: Fields(FieldStatus),
		Rejects:  Fields(FieldAssignedTo),
	},

	{OpDelete, models.RoleAdmin, RelationNone}:     fullAccess,
	{OpDelete, models.RoleAdmin, RelationAssignee}: fullAccess,

	{OpComment, models.RoleAdmin, RelationNone}:      viewOnly,
	{OpComment, models.RoleAdmin, RelationAssignee}:  viewOnly,
	{OpComment, models.RoleMember, RelationAssignee}: viewOnly,
}

// RelationOf reports the caller's relation to t; a nil task has none.
func RelationOf(c Caller, t *models.Task) Relation {
	if t != nil && c.ID != "" && t.AssignedTo == c.ID {
		return RelationAssignee
	}
	return RelationNone
}

// Evaluate looks up the grant for op by c on t. Any role other than Admin
// is evaluated as Member.
func Evaluate(op Operation, c Caller, t *models.Task) Grant {
	return lookup(op, effectiveRole(c), RelationOf(c, t))
}

// RoleMayAttempt reports whether role is granted op under any relation.
// Used to reject role-gated operations before loading the task.
func RoleMayAttempt(op Operation, role models.Role) bool {
	r := effectiveRole(Caller{Role: role})
	return lookup(op, r, RelationNone).Allowed || lookup(op, r, RelationAssignee).Allowed
}

func lookup(op Operation, role models.Role, rel Relation) Grant {
	if g, ok := policyTable[policyKey{op, role, rel}]; ok {
		return g
	}
	return denied
}

func effectiveRole(c Caller) models.Role {
	if c.IsAdmin() {
		return models.RoleAdmin
	}
	return models.RoleMember
}
