package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team-task-manager/models"
)

func TestTaskStoreWindowAndSort(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Insert(ctx, &models.Task{
			Title:      string(rune('a' + i)),
			AssignedTo: "u1",
			Status:     models.StatusPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	newest := models.TaskSort{Field: models.SortByCreatedAt, Desc: true}
	page, err := s.Find(ctx, models.TaskFilter{}, newest, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].Title)
	assert.Equal(t, "c", page[1].Title)

	first, err := s.Find(ctx, models.TaskFilter{}, newest, -36, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "e", first[0].Title)

	empty, err := s.Find(ctx, models.TaskFilter{}, newest, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	n, err := s.Count(ctx, models.TaskFilter{AssignedTo: "u2"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTaskStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore()
	in, err := s.Insert(ctx, &models.Task{Title: "x"})
	require.NoError(t, err)

	got, err := s.FindByID(ctx, in.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Comments = append(got.Comments, models.Comment{Text: "leak"})

	again, err := s.FindByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Title)
	assert.Empty(t, again.Comments)
}

func TestTaskStoreMissing(t *testing.T) {
	ctx := context.Background()
	s := NewTaskStore()

	_, err := s.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.UpdateFields(ctx, "nope", models.TaskFields{})
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.AppendComment(ctx, "nope", models.Comment{})
	assert.ErrorIs(t, err, models.ErrNotFound)
	ok, err := s.DeleteByID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	bob, err := s.Create(ctx, &models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleMember, IsActive: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, &models.User{Name: "Ann", Email: "ann@example.com", Role: models.RoleAdmin, IsActive: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, &models.User{Name: "Cid", Email: "cid@example.com", Role: models.RoleMember})
	require.NoError(t, err)

	_, err = s.Create(ctx, &models.User{Email: "BOB@example.com"})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	byEmail, err := s.FindByEmail(ctx, "Bob@Example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, byEmail.ID)

	found, err := s.FindByIDs(ctx, []string{bob.ID, "ghost"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	all, err := s.ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ann", all[0].Name)

	members, err := s.ListActive(ctx, models.RoleMember)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Bob", members[0].Name)
}
