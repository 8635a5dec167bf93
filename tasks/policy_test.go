package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"team-task-manager/models"
)

func TestPolicyTable(t *testing.T) {
	status := Fields(FieldStatus)
	reassign := Fields(FieldAssignedTo)

	tests := []struct {
		op   Operation
		role models.Role
		rel  Relation
		want Grant
	}{
		{OpRead, models.RoleAdmin, RelationNone, fullAccess},
		{OpRead, models.RoleAdmin, RelationAssignee, fullAccess},
		{OpRead, models.RoleMember, RelationNone, denied},
		{OpRead, models.RoleMember, RelationAssignee, viewOnly},

		{OpCreate, models.RoleAdmin, RelationNone, fullAccess},
		{OpCreate, models.RoleAdmin, RelationAssignee, denied},
		{OpCreate, models.RoleMember, RelationNone, denied},
		{OpCreate, models.RoleMember, RelationAssignee, denied},

		{OpUpdate, models.RoleAdmin, RelationNone, fullAccess},
		{OpUpdate, models.RoleAdmin, RelationAssignee, fullAccess},
		{OpUpdate, models.RoleMember, RelationNone, denied},
		{OpUpdate, models.RoleMember, RelationAssignee, Grant{Allowed: true, Writable: status, Rejects: reassign}},

		{OpDelete, models.RoleAdmin, RelationNone, fullAccess},
		{OpDelete, models.RoleAdmin, RelationAssignee, fullAccess},
		{OpDelete, models.RoleMember, RelationNone, denied},
		{OpDelete, models.RoleMember, RelationAssignee, denied},

		{OpComment, models.RoleAdmin, RelationNone, viewOnly},
		{OpComment, models.RoleAdmin, RelationAssignee, viewOnly},
		{OpComment, models.RoleMember, RelationNone, denied},
		{OpComment, models.RoleMember, RelationAssignee, viewOnly},
	}
	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, lookup(tt.op, tt.role, tt.rel), "relation %d", tt.rel)
		})
	}
}

func TestEvaluateRelation(t *testing.T) {
	task := &models.Task{AssignedTo: "m1"}

	assert.True(t, Evaluate(OpUpdate, Caller{ID: "m1", Role: models.RoleMember}, task).Allowed)
	assert.False(t, Evaluate(OpUpdate, Caller{ID: "m2", Role: models.RoleMember}, task).Allowed)
	assert.False(t, Evaluate(OpRead, Caller{Role: models.RoleMember}, &models.Task{}).Allowed)

	// unknown roles get member rights
	assert.Equal(t, lookup(OpUpdate, models.RoleMember, RelationAssignee),
		Evaluate(OpUpdate, Caller{ID: "m1", Role: "Guest"}, task))
	assert.False(t, Evaluate(OpDelete, Caller{ID: "m1", Role: "Guest"}, task).Allowed)
}

func TestRoleMayAttempt(t *testing.T) {
	assert.True(t, RoleMayAttempt(OpCreate, models.RoleAdmin))
	assert.True(t, RoleMayAttempt(OpDelete, models.RoleAdmin))
	assert.False(t, RoleMayAttempt(OpCreate, models.RoleMember))
	assert.False(t, RoleMayAttempt(OpDelete, models.RoleMember))
	assert.True(t, RoleMayAttempt(OpUpdate, models.RoleMember))
	assert.True(t, RoleMayAttempt(OpComment, models.RoleMember))
}

func TestFieldSet(t *testing.T) {
	s := Fields(FieldStatus, FieldAssignedTo)
	assert.True(t, s.Has(FieldStatus))
	assert.False(t, s.Has(FieldTitle))
	assert.True(t, s.Intersects(Fields(FieldAssignedTo)))
	assert.False(t, s.Intersects(Fields(FieldTitle, FieldPriority)))
	assert.Equal(t, "{status,assignedTo}", s.String())
	assert.Equal(t, "{title,description,deadline,status,priority,assignedTo}", AllFields.String())
}
