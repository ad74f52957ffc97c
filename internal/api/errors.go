package api

import "net/http"

// APIError is the body of every non-2xx response, wrapped in {"error": ...}.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

func newError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func badRequest(code, message string) *APIError {
	return newError(http.StatusBadRequest, code, message)
}

func notFound(code, message string) *APIError {
	return newError(http.StatusNotFound, code, message)
}

func internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return newError(http.StatusInternalServerError, "internal_error", message)
}
