package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
// Field is the anchor the UI highlights, eg. "termStructures[1].buckets".
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return ""
}

// FieldErrors collects field errors while validating a struct by hand.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, msg string) {
	*fe = append(*fe, FieldError{Field: field, Error: msg})
}

// Err returns a *ValidationError when any field error was collected.
func (fe FieldErrors) Err(msg string) error {
	if len(fe) == 0 {
		return nil
	}
	return NewValidationError(errors.New(msg), fe...)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

type userMessenger interface {
	UserMessage() string
}

// UserMessage returns the message to show end users for err:
// the collaborator's own message when err carries one, the root cause's message otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	cause := errors.Cause(err)
	if um, ok := cause.(userMessenger); ok {
		return um.UserMessage()
	}
	return cause.Error()
}
