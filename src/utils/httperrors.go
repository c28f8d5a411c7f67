package utils

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPError carries the status code an error should be reported with at the HTTP edge
type HTTPError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(code int, message string) error {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// WrapHTTPError attaches a status code to err while keeping it reachable through errors.Is.
func WrapHTTPError(code int, err error) error {
	return &HTTPError{Code: code, Message: err.Error(), Err: err}
}

func BadRequest(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

func Unauthorized(message string) error {
	return NewHTTPError(http.StatusUnauthorized, message)
}

func NotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

func Conflict(message string) error {
	return NewHTTPError(http.StatusConflict, message)
}

func InternalServerError(message string) error {
	return NewHTTPError(http.StatusInternalServerError, message)
}

// WriteError sends err as a JSON body. Errors that are not HTTPError become a bare 500.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = &HTTPError{
			Code:    http.StatusInternalServerError,
			Message: "Internal Server Error",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpErr.Code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": httpErr.Message})
}
