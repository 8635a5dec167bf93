// Package handlers is the HTTP layer: JSON handlers for tasks, auth and
// users, and the middleware that authenticates and limits requests.
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"team-task-manager/auth"
	"team-task-manager/tasks"
	"team-task-manager/utilities"
)

// API holds the services the handlers call.
type API struct {
	tasks *tasks.Service
	auth  *auth.Service
	now   func() time.Time
}

func NewAPI(taskService *tasks.Service, authService *auth.Service) *API {
	return &API{tasks: taskService, auth: authService, now: time.Now}
}

// ListTasksHandler returns one page of the tasks visible to the caller.
func (a *API) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	params := tasks.ListParamsFromQuery(r.URL.Query())
	utilities.LogDebug("listing tasks: %+v", params)

	page, err := a.tasks.List(r.Context(), callerFrom(r), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := a.tasks.Get(r.Context(), callerFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *API) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in tasks.CreateTaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := a.tasks.Create(r.Context(), callerFrom(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utilities.LogInfo("task %s created by %s", task.ID, callerFrom(r).ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (a *API) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in tasks.UpdateTaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := a.tasks.Update(r.Context(), callerFrom(r), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (a *API) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.tasks.Delete(r.Context(), callerFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	utilities.LogInfo("task %s deleted by %s", id, callerFrom(r).ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (a *API) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	var in tasks.CommentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := a.tasks.AddComment(r.Context(), callerFrom(r), mux.Vars(r)["id"], in.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// HealthHandler reports that the server is up.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Server is running",
		"timestamp": a.now().UTC().Format(time.RFC3339Nano),
	})
}
