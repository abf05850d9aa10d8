package server

import (
	"encoding/json"
	"net/http"
)

const (
	ErrEmailNotUnique = "EMAIL_NOT_UNIQUE"
	ErrJobNotFound    = "JOB_NOT_FOUND"
	ErrUserNotFound   = "USER_NOT_FOUND"
	ErrAlreadyApplied = "ALREADY_APPLIED"

	ErrPasswordChangeRequired = "PASSWORD_CHANGE_REQUIRED"
)

type CommonError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type Validation struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Errors map[string]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func ParsingError(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, CommonError{
		Title:  "Parsing error occurred",
		Status: http.StatusBadRequest,
		Detail: "Parsing error",
		Code:   "PARSING_ERROR",
	})
}

func ValidationError(w http.ResponseWriter, err map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, Validation{
		Title:  "One or more model validation errors occurred",
		Status: http.StatusUnprocessableEntity,
		Detail: "See the errors property for details",
		Code:   "VALIDATION_ERROR",
		Errors: err,
	})
}

func LogicError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, CommonError{
		Title:  "Logic error occurred",
		Status: http.StatusBadRequest,
		Detail: "Logic error",
		Code:   code,
	})
}

func ConflictError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusConflict, CommonError{
		Title:  "Conflict error",
		Status: http.StatusConflict,
		Detail: "Conflict error",
		Code:   code,
	})
}

func UnauthorizedError(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, CommonError{
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Detail: "Unauthorized",
		Code:   "UNAUTHORIZED",
	})
}

func ForbiddenError(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, CommonError{
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Detail: "Forbidden",
		Code:   "FORBIDDEN",
	})
}

func PasswordChangeRequiredError(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, CommonError{
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Detail: "The password is temporary and has to be changed first",
		Code:   ErrPasswordChangeRequired,
	})
}

func TooManyRequestsError(w http.ResponseWriter) {
	writeJSON(w, http.StatusTooManyRequests, CommonError{
		Title:  "Too many requests",
		Status: http.StatusTooManyRequests,
		Detail: "Too many failed attempts, try again later",
		Code:   "TOO_MANY_REQUESTS",
	})
}

// EntityNotFoundError is for a missing resource behind an existing route.
func EntityNotFoundError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusNotFound, CommonError{
		Title:  "Entity not found",
		Status: http.StatusNotFound,
		Detail: "Not found",
		Code:   code,
	})
}

func NotFoundError(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, CommonError{
		Title:  "Endpoint not found",
		Status: http.StatusNotFound,
		Detail: "Not found",
		Code:   "ENDPOINT_NOT_FOUND",
	})
}

func InternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, CommonError{
		Title:  "Resource temporarily unavailable",
		Status: http.StatusInternalServerError,
		Detail: "Resource temporarily unavailable",
		Code:   "UNKNOWN_ERROR",
	})
}

func BadRequestError(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, CommonError{
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: "Bad request",
		Code:   "BAD_REQUEST",
	})
}
