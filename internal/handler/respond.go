package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"

	"github.com/dukerupert/rollcall/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Publisher receives change events after successful writes.
type Publisher interface {
	Publish(entity, action, id string, data any)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// responder turns errors into JSON responses. With detail set, server errors
// also expose the wrapped cause, which is only wanted outside production.
type responder struct {
	logger *slog.Logger
	detail bool
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	body := errorBody{Message: apperr.Message(err)}

	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if rs.detail {
			body.Detail = err.Error()
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads the request body into v and runs its `valid` struct tags.
// The first failing rule becomes the validation message.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("Invalid JSON")
	}
	return validate(v)
}

func validate(v any) error {
	_, err := govalidator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	var errs govalidator.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		return apperr.Validation(errs[0].Error())
	}
	return apperr.Validation(err.Error())
}
