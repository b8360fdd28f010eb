package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examprep/examprep/internal/diagram"
	"github.com/examprep/examprep/internal/quiz"
	"github.com/examprep/examprep/internal/storage"
	"github.com/examprep/examprep/internal/transfer"
)

var (
	errNotFound             = errors.New("not found")
	errBadRequest           = errors.New("bad request")
	errConfirmationRequired = errors.New("confirmation required")
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondFailure maps err to a status and an error code.
func respondFailure(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Default().Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
	}
	RespondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, errConfirmationRequired):
		return http.StatusBadRequest, "confirmation_required"
	case errors.Is(err, quiz.ErrInvalidOption):
		return http.StatusBadRequest, "invalid_option"
	case errors.Is(err, quiz.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, quiz.ErrNotAnswered):
		return http.StatusConflict, "not_answered"
	case errors.Is(err, diagram.ErrNotFailed):
		return http.StatusConflict, "not_failed"
	case errors.Is(err, diagram.ErrNotRendered):
		return http.StatusConflict, "not_rendered"
	case errors.Is(err, transfer.ErrInvalidJSON):
		return http.StatusBadRequest, "invalid_json"
	case errors.Is(err, transfer.ErrNotASequence):
		return http.StatusBadRequest, "invalid_format"
	case errors.Is(err, transfer.ErrNoValidItems):
		return http.StatusUnprocessableEntity, "no_valid_items"
	case errors.Is(err, transfer.ErrNothingToExport):
		return http.StatusNotFound, "nothing_to_export"
	case errors.Is(err, storage.ErrNotPersisted):
		return http.StatusInternalServerError, "not_persisted"
	}
	return http.StatusInternalServerError, "internal"
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, errNotFound)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}
