package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/Atim-01/devblog/internal/service"
)

const maxBodyBytes = 1 << 20

// Response is the envelope around every successful JSON reply
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	StatusCode int    `json:"statusCode"`
}

// ErrorResponse is the envelope around every error reply
type ErrorResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path"`
	Method     string         `json:"method"`
	Details    map[string]any `json:"details,omitempty"`
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Resource not found",
	http.StatusMethodNotAllowed:    "Method not allowed",
	http.StatusConflict:            "Conflict",
	http.StatusUnprocessableEntity: "Validation failed",
	http.StatusInternalServerError: "Internal server error",
}

// badRequestError marks malformed request input
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	h.writeJSON(w, status, Response{
		Success:    true,
		Message:    message,
		Data:       data,
		Timestamp:  timestamp(),
		Path:       r.URL.RequestURI(),
		Method:     r.Method,
		StatusCode: status,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, details map[string]any) {
	message, ok := statusMessages[status]
	if !ok {
		message = http.StatusText(status)
	}
	h.writeJSON(w, status, ErrorResponse{
		Success:    false,
		Message:    message,
		StatusCode: status,
		Timestamp:  timestamp(),
		Path:       r.URL.RequestURI(),
		Method:     r.Method,
		Details:    details,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// fail maps an error onto a status code and writes the error envelope
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *service.ValidationError
		ferr *service.ForbiddenError
		berr *badRequestError
	)
	switch {
	case errors.As(err, &verr):
		h.respondError(w, r, http.StatusUnprocessableEntity, map[string]any{"validationErrors": verr.Errors})
	case errors.As(err, &berr):
		h.respondError(w, r, http.StatusBadRequest, detail(err))
	case errors.As(err, &ferr):
		h.respondError(w, r, http.StatusForbidden, detail(ferr))
	case errors.Is(err, service.ErrInvalidCredentials):
		h.respondError(w, r, http.StatusUnauthorized, detail(service.ErrInvalidCredentials))
	case errors.Is(err, service.ErrInvalidToken):
		h.respondError(w, r, http.StatusUnauthorized, detail(service.ErrInvalidToken))
	case errors.Is(err, middleware.ErrMissingToken):
		h.respondError(w, r, http.StatusUnauthorized, detail(err))
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrAuthorNotFound):
		h.respondError(w, r, http.StatusNotFound, detail(err))
	case errors.Is(err, service.ErrUsernameTaken):
		h.respondError(w, r, http.StatusConflict, detail(err))
	default:
		h.log.WithField("path", r.URL.Path).Errorf("Request failed: %v", err)
		h.respondError(w, r, http.StatusInternalServerError, nil)
	}
}

func detail(err error) map[string]any {
	return map[string]any{"error": sentence(err.Error())}
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// decode reads a single JSON object and rejects unknown fields
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid request body: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}
