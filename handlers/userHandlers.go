package handlers

import (
	"net/http"

	"team-task-manager/apperr"
	"team-task-manager/auth"
	"team-task-manager/utilities"
)

func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := a.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utilities.LogInfo("user %s registered as %s", sess.User.ID, sess.User.Role)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := a.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// ProfileHandler returns the authenticated user.
func (a *API) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("No token, authorization denied"))
		return
	}
	profile, err := a.auth.Profile(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": profile})
}

// ListUsersHandler lists active users for task assignment.
func (a *API) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) ListMembersHandler(w http.ResponseWriter, r *http.Request) {
	members, err := a.auth.ListMembers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}
