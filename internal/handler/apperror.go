package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrInvalidArgument  = &AppError{http.StatusBadRequest, "INVALID_ARGUMENT", "A required field is missing or malformed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrEmailTaken       = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email is already in use"}
	ErrClientIDTaken    = &AppError{http.StatusConflict, "CLIENT_ID_TAKEN", "Client id is already in use"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
)
