package tasks

import (
	"math"
	"net/url"
	"strconv"
	"time"

	"team-task-manager/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20

	filterAll = "all"

	DeadlineOverdue = "overdue"
	DeadlineToday   = "today"
	DeadlineWeek    = "week"
)

// ListParams holds the raw, unvalidated list query parameters.
type ListParams struct {
	Page       string
	Limit      string
	Status     string
	Deadline   string
	AssignedTo string
	SortBy     string
	Order      string
}

func ListParamsFromQuery(q url.Values) ListParams {
	return ListParams{
		Page:       q.Get("page"),
		Limit:      q.Get("limit"),
		Status:     q.Get("status"),
		Deadline:   q.Get("deadline"),
		AssignedTo: q.Get("assignedTo"),
		SortBy:     q.Get("sortBy"),
		Order:      q.Get("order"),
	}
}

// ListQuery is a resolved, caller-scoped list request.
type ListQuery struct {
	Filter models.TaskFilter
	Sort   models.TaskSort
	Page   int
	Limit  int
}

func (q ListQuery) Skip() int {
	if q.Page < 1 || q.Limit < 1 || q.Page-1 > math.MaxInt/q.Limit {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ResolveListQuery turns raw parameters into a query the caller is allowed
// to run. Members are always scoped to their own tasks.
func ResolveListQuery(c Caller, p ListParams, now time.Time) ListQuery {
	q := ListQuery{
		Page:  positiveOr(p.Page, DefaultPage),
		Limit: positiveOr(p.Limit, DefaultLimit),
	}
	// A page whose offset does not fit in an int is invalid input.
	if q.Page-1 > math.MaxInt/q.Limit {
		q.Page = DefaultPage
	}

	if !c.IsAdmin() {
		q.Filter.AssignedTo = c.ID
	}

	if p.Status != "" && p.Status != filterAll {
		q.Filter.Status = models.Status(p.Status)
	}

	switch p.Deadline {
	case DeadlineOverdue:
		q.Filter.DeadlineBefore = &now
		q.Filter.StatusNot = models.StatusCompleted
	case DeadlineToday:
		end := EndOfDay(now)
		q.Filter.DeadlineAtMost = &end
	case DeadlineWeek:
		end := now.Add(7 * 24 * time.Hour)
		q.Filter.DeadlineAtMost = &end
	}

	if c.IsAdmin() && p.AssignedTo != "" {
		q.Filter.AssignedTo = p.AssignedTo
	}

	q.Sort = resolveSort(p.SortBy, p.Order)
	return q
}

func resolveSort(sortBy, order string) models.TaskSort {
	switch field := models.SortField(sortBy); field {
	case models.SortByDeadline, models.SortByPriority, models.SortByStatus:
		return models.TaskSort{Field: field, Desc: order == "desc"}
	}
	return models.TaskSort{Field: models.SortByCreatedAt, Desc: true}
}

// EndOfDay is the last millisecond of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// NewPagination computes the envelope for a page of a result set of size
// total. pages is 0 for an empty result.
func NewPagination(page, limit int, total int64) models.Pagination {
	var pages int64
	if limit > 0 && total > 0 {
		pages = total / int64(limit)
		if total%int64(limit) != 0 {
			pages++
		}
	}
	return models.Pagination{
		Current: page,
		Pages:   int(pages),
		Total:   total,
		HasNext: int64(page) < pages,
		HasPrev: page > 1,
	}
}
