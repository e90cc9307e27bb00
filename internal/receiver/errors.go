package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a receiver failure class.
type ErrorCode string

const (
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrInternal       ErrorCode = "INTERNAL"
)

// Error is a structured receiver failure rendered as {"ok":false,...}.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newUnauthorized() *Error {
	return &Error{Code: ErrUnauthorized, Status: http.StatusUnauthorized, Message: "Incorrect password"}
}

func newInvalidRequest(msg string) *Error {
	return &Error{Code: ErrInvalidRequest, Status: http.StatusBadRequest, Message: msg}
}

func newForbidden() *Error {
	return &Error{Code: ErrForbidden, Status: http.StatusForbidden, Message: "Forbidden"}
}

func newNotFound() *Error {
	return &Error{Code: ErrNotFound, Status: http.StatusNotFound, Message: "Not found"}
}

func newInternal(err error) *Error {
	return &Error{Code: ErrInternal, Status: http.StatusInternalServerError, Message: err.Error()}
}

// Reply is the JSON body of every submit and open response.
type Reply struct {
	OK    bool   `json:"ok"`
	Saved string `json:"saved,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var rerr *Error
	if !errors.As(err, &rerr) {
		rerr = newInternal(err)
	}
	writeJSON(w, rerr.Status, Reply{OK: false, Error: rerr.Message})
}
