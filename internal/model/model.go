package model

type Validator interface {
	Validate() map[string]string
}

const (
	ErrEmptyField   = "EMPTY"
	ErrInvalidField = "INVALID_VALUE"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ErrorResponse is the body of authentication and authorization failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
