package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/ivankudzin/crush/internal/domain/apperr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"error"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

// Mapped is the response chosen for a service error.
type Mapped struct {
	Status  int
	Code    string
	Message string
}

func (m Mapped) Internal() bool {
	return m.Status == http.StatusInternalServerError
}

type retryAfter interface {
	RetryAfter() int64
}

var categories = []struct {
	err    error
	status int
	code   string
}{
	{apperr.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperr.ErrConflict, http.StatusConflict, "CONFLICT"},
}

// Map picks status, code and message for err by its apperr category.
// Uncategorized errors become a 500 without detail.
func Map(err error) Mapped {
	for _, c := range categories {
		if stderrors.Is(err, c.err) {
			return Mapped{
				Status:  c.status,
				Code:    c.code,
				Message: strings.TrimSuffix(err.Error(), ": "+c.err.Error()),
			}
		}
	}

	var ra retryAfter
	if stderrors.As(err, &ra) {
		return Mapped{Status: http.StatusTooManyRequests, Code: "TOO_FAST", Message: "too many requests, slow down"}
	}

	return Mapped{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "internal server error"}
}

// WriteError writes the mapped response for err. Rate limit errors carry
// retry_after_sec.
func WriteError(w http.ResponseWriter, err error) Mapped {
	m := Map(err)

	var ra retryAfter
	if m.Status == http.StatusTooManyRequests && stderrors.As(err, &ra) {
		Write(w, m.Status, RateLimitError{Code: m.Code, Message: m.Message, RetryAfterSec: ra.RetryAfter()})
		return m
	}

	Write(w, m.Status, APIError{Code: m.Code, Message: m.Message})
	return m
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
