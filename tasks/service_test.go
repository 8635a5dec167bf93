package tasks_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team-task-manager/apperr"
	"team-task-manager/memstore"
	"team-task-manager/models"
	"team-task-manager/tasks"
)

var clock = time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *tasks.Service
	store    *memstore.TaskStore
	admin    tasks.Caller
	memberA  tasks.Caller
	memberB  tasks.Caller
	tomorrow string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	users := memstore.NewUserStore()
	mk := func(name string, role models.Role) tasks.Caller {
		u, err := users.Create(ctx, &models.User{
			Name: name, Email: name + "@example.com", Role: role, IsActive: true,
		})
		require.NoError(t, err)
		return tasks.Caller{ID: u.ID, Role: role}
	}
	store := memstore.NewTaskStore()
	return &fixture{
		svc:      tasks.NewService(store, users, tasks.WithClock(func() time.Time { return clock })),
		store:    store,
		admin:    mk("admin", models.RoleAdmin),
		memberA:  mk("alice", models.RoleMember),
		memberB:  mk("bruno", models.RoleMember),
		tomorrow: clock.Add(24 * time.Hour).Format(time.RFC3339),
	}
}

func (f *fixture) create(t *testing.T, title string, assignee tasks.Caller) *models.TaskView {
	t.Helper()
	v, err := f.svc.Create(context.Background(), f.admin, tasks.CreateTaskInput{
		Title: title, Description: "release", Deadline: f.tomorrow, AssignedTo: assignee.ID,
	})
	require.NoError(t, err)
	return v
}

func ptr[T any](v T) *T { return &v }

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "%v", err)
}

func TestCreateDefaultsAndPopulation(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "  Ship v1 ", f.memberA)

	assert.Equal(t, "Ship v1", v.Title)
	assert.Equal(t, models.PriorityMedium, v.Priority)
	assert.Equal(t, models.StatusPending, v.Status)
	assert.Equal(t, &models.UserSummary{ID: f.admin.ID, Name: "admin", Email: "admin@example.com"}, v.CreatedBy)
	assert.Equal(t, "alice", v.AssignedTo.Name)
	assert.Empty(t, v.Comments)
	assert.Equal(t, clock, v.CreatedAt)
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.memberA, tasks.CreateTaskInput{
		Title: "x", Description: "y", Deadline: f.tomorrow, AssignedTo: f.memberA.ID,
	})
	requireKind(t, err, apperr.KindForbidden)

	_, err = f.svc.Create(ctx, f.admin, tasks.CreateTaskInput{
		Title: "x", Description: "y", Deadline: f.tomorrow, AssignedTo: "ghost",
	})
	requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, "assignedTo", apperr.As(err).Fields[0].Field)

	_, err = f.svc.Create(ctx, f.admin, tasks.CreateTaskInput{
		Title: "x", Description: "y", Deadline: clock.Add(-time.Minute).Format(time.RFC3339), AssignedTo: f.memberA.ID,
	})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.svc.Create(ctx, f.admin, tasks.CreateTaskInput{
		Title: "   ", Description: "y", Deadline: f.tomorrow, AssignedTo: f.memberA.ID, Priority: "Urgent",
	})
	requireKind(t, err, apperr.KindValidation)
	assert.ElementsMatch(t, []apperr.FieldError{
		{Field: "title", Message: "Title must be between 1 and 100 characters"},
		{Field: "priority", Message: "Priority must be Low, Medium, or High"},
	}, apperr.As(err).Fields)

	n, err := f.store.Count(ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.Zero(t, n, "no record may be created")
}

func TestGetScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "t", f.memberA)

	_, err := f.svc.Get(ctx, f.memberA, v.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.admin, v.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.memberB, v.ID)
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.svc.Get(ctx, f.admin, "missing")
	requireKind(t, err, apperr.KindNotFound)
}

func TestMemberUpdateKeepsOnlyStatus(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "t", f.memberA)

	got, err := f.svc.Update(context.Background(), f.memberA, v.ID, tasks.UpdateTaskInput{
		Status:   ptr("Completed"),
		Priority: ptr("High"),
		Title:    ptr("renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, "t", got.Title)
}

func TestMemberCannotReassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "t", f.memberA)

	_, err := f.svc.Update(ctx, f.memberA, v.ID, tasks.UpdateTaskInput{
		Status:     ptr("Completed"),
		AssignedTo: ptr(f.memberB.ID),
	})
	requireKind(t, err, apperr.KindForbidden)
	assert.Equal(t, "Members cannot reassign tasks", apperr.As(err).Message)

	stored, err := f.store.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, f.memberA.ID, stored.AssignedTo)
}

func TestUpdateByOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "t", f.memberA)

	_, err := f.svc.Update(ctx, f.memberB, v.ID, tasks.UpdateTaskInput{Status: ptr("Completed")})
	requireKind(t, err, apperr.KindForbidden)

	_, err = f.svc.Update(ctx, f.admin, "missing", tasks.UpdateTaskInput{Status: ptr("Completed")})
	requireKind(t, err, apperr.KindNotFound)

	_, err = f.svc.Update(ctx, f.admin, v.ID, tasks.UpdateTaskInput{Status: ptr("Done")})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.svc.Update(ctx, f.admin, v.ID, tasks.UpdateTaskInput{AssignedTo: ptr("ghost")})
	requireKind(t, err, apperr.KindValidation)

	_, err = f.svc.Update(ctx, f.admin, v.ID, tasks.UpdateTaskInput{Title: ptr("")})
	requireKind(t, err, apperr.KindValidation)
}

func TestAdminUpdate(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "t", f.memberA)
	past := clock.Add(-72 * time.Hour).Format(time.RFC3339)

	got, err := f.svc.Update(context.Background(), f.admin, v.ID, tasks.UpdateTaskInput{
		Title:      ptr("new"),
		Priority:   ptr("High"),
		Deadline:   ptr(past),
		AssignedTo: ptr(f.memberB.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.True(t, got.Deadline.Equal(clock.Add(-72*time.Hour)), "deadline is not re-checked on update")
	assert.Equal(t, f.memberB.ID, got.AssignedTo.ID)
}

func TestEmptyUpdateIsNoop(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "t", f.memberA)

	got, err := f.svc.Update(context.Background(), f.memberA, v.ID, tasks.UpdateTaskInput{Priority: ptr("High")})
	require.NoError(t, err)
	assert.Equal(t, v.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, models.PriorityMedium, got.Priority)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "t", f.memberA)

	requireKind(t, f.svc.Delete(ctx, f.memberA, v.ID), apperr.KindForbidden)
	requireKind(t, f.svc.Delete(ctx, f.memberA, "missing"), apperr.KindForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.admin, v.ID))
	requireKind(t, f.svc.Delete(ctx, f.admin, v.ID), apperr.KindNotFound)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "t", f.memberA)

	c, err := f.svc.AddComment(ctx, f.memberA, v.ID, "on it")
	require.NoError(t, err)
	assert.Equal(t, "on it", c.Text)
	assert.Equal(t, "alice", c.User.Name)
	assert.Equal(t, clock, c.CreatedAt)
	assert.NotEmpty(t, c.ID)

	_, err = f.svc.AddComment(ctx, f.memberB, v.ID, "me too")
	requireKind(t, err, apperr.KindForbidden)
	_, err = f.svc.AddComment(ctx, f.admin, "missing", "hi")
	requireKind(t, err, apperr.KindNotFound)

	got, err := f.svc.Get(ctx, f.admin, v.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "alice@example.com", got.Comments[0].User.Email)
}

func TestConcurrentCommentsAreAllKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "t", f.memberA)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			author := f.memberA
			if i%2 == 0 {
				author = f.admin
			}
			_, err := f.svc.AddComment(ctx, author, v.ID, fmt.Sprintf("comment %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.store.FindByID(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, n)
	texts := map[string]bool{}
	for _, c := range stored.Comments {
		texts[c.Text] = true
	}
	assert.Len(t, texts, n)
}

func TestMemberListIsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "a1", f.memberA)
	f.create(t, "a2", f.memberA)
	f.create(t, "b1", f.memberB)

	for _, p := range []tasks.ListParams{
		{},
		{AssignedTo: f.memberB.ID},
		{Status: "all", Deadline: "week"},
		{Limit: "1", Page: "2"},
	} {
		page, err := f.svc.List(ctx, f.memberA, p)
		require.NoError(t, err)
		for _, v := range page.Tasks {
			assert.Equal(t, f.memberA.ID, v.AssignedTo.ID)
		}
	}

	page, err := f.svc.List(ctx, f.admin, tasks.ListParams{AssignedTo: f.memberB.ID})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "b1", page.Tasks[0].Title)

	page, err = f.svc.List(ctx, f.admin, tasks.ListParams{Limit: "2"})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 2)
	assert.Equal(t, models.Pagination{Current: 1, Pages: 2, Total: 3, HasNext: true}, page.Pagination)
}

func TestListDeadlineFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "late", f.memberA)
	past := clock.Add(-48 * time.Hour).Format(time.RFC3339)
	_, err := f.svc.Update(ctx, f.admin, v.ID, tasks.UpdateTaskInput{Deadline: ptr(past)})
	require.NoError(t, err)

	for _, d := range []string{"overdue", "today", "week"} {
		page, err := f.svc.List(ctx, f.admin, tasks.ListParams{Deadline: d})
		require.NoError(t, err)
		assert.Len(t, page.Tasks, 1, d)
	}

	_, err = f.svc.Update(ctx, f.memberA, v.ID, tasks.UpdateTaskInput{Status: ptr("Completed")})
	require.NoError(t, err)
	page, err := f.svc.List(ctx, f.admin, tasks.ListParams{Deadline: "overdue"})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)
	assert.Equal(t, 0, page.Pagination.Pages)
}

func TestScenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A: admin creates with priority omitted
	v, err := f.svc.Create(ctx, f.admin, tasks.CreateTaskInput{
		Title: "Ship v1", Description: "release", Deadline: f.tomorrow, AssignedTo: f.memberA.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, v.Priority)
	assert.Equal(t, models.StatusPending, v.Status)

	// B: the assignee moves it along
	_, err = f.svc.Update(ctx, f.memberA, v.ID, tasks.UpdateTaskInput{Status: ptr("In Progress")})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, f.admin, tasks.ListParams{Status: "In Progress"})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, v.ID, page.Tasks[0].ID)

	page, err = f.svc.List(ctx, f.memberB, tasks.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Tasks)

	// C: deletion hides it from everyone
	require.NoError(t, f.svc.Delete(ctx, f.admin, v.ID))
	for _, c := range []tasks.Caller{f.admin, f.memberA, f.memberB} {
		_, err := f.svc.Get(ctx, c, v.ID)
		requireKind(t, err, apperr.KindNotFound)
	}
}

func TestListWithOversizedPage(t *testing.T) {
	f := newFixture(t)
	f.create(t, "only", f.memberA)

	page, err := f.svc.List(context.Background(), f.admin, tasks.ListParams{Page: "922337203685477580", Limit: "20"})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, 1, page.Pagination.Current)

	page, err = f.svc.List(context.Background(), f.admin, tasks.ListParams{Limit: "9223372036854775807"})
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{Current: 1, Pages: 1, Total: 1}, page.Pagination)
}

func TestPagesDoNotOverlapOnEqualTimestamps(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 9; i++ {
		f.create(t, fmt.Sprintf("t%d", i), f.memberA)
	}

	seen := map[string]bool{}
	for p := 1; p <= 3; p++ {
		page, err := f.svc.List(context.Background(), f.admin, tasks.ListParams{Page: fmt.Sprint(p), Limit: "3"})
		require.NoError(t, err)
		require.Len(t, page.Tasks, 3)
		for _, v := range page.Tasks {
			assert.False(t, seen[v.ID], "task %s on two pages", v.ID)
			seen[v.ID] = true
		}
	}
	assert.Len(t, seen, 9)
}
