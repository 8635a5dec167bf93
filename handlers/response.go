package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"team-task-manager/apperr"
	"team-task-manager/utilities"
)

type errorBody struct {
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utilities.LogError(err, "encoding response")
	}
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Internal causes are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := statusFor(e.Kind)
	if status == http.StatusInternalServerError {
		utilities.LogError(err, r.Method+" "+r.URL.Path)
		writeJSON(w, status, errorBody{Message: "Server error"})
		return
	}
	writeJSON(w, status, errorBody{Message: e.Message, Errors: e.Fields})
}

// decodeJSON reads a JSON body into v. Bodies over the size limit and
// malformed JSON are validation failures.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Validation("Invalid request payload")
	}
	return nil
}
