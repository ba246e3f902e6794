package scalefield

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrConfig    ErrorKind = "config"
	ErrMalformed ErrorKind = "malformed"
	ErrIO        ErrorKind = "io"
	ErrSQL       ErrorKind = "sql"
	ErrMapping   ErrorKind = "mapping"
	ErrNotFound  ErrorKind = "not_found"
	ErrFeature   ErrorKind = "feature_missing"
)

// Error carries the error class alongside the field it concerns.
// ErrConfig errors come from mapping construction and are always fatal;
// ErrMalformed errors come from per-document values and may be converted
// into a skip by the ignore_malformed policy before they ever surface.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func ConfigError(field, msg string) *Error {
	return &Error{Kind: ErrConfig, Field: field, Message: msg}
}

func MalformedError(field, msg string, cause error) *Error {
	return &Error{Kind: ErrMalformed, Field: field, Message: msg, Cause: cause}
}

func MappingError(msg string) *Error {
	return &Error{Kind: ErrMapping, Message: msg}
}

func NotFoundError(docID string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("document not found: %s", docID)}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// withField stamps the field name onto a codec error that was produced
// without field context.
func withField(field string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Field == "" {
		fe := *e
		fe.Field = field
		return &fe
	}
	return err
}
