// Package apperr is the error taxonomy shared by the repositories, the image
// store and the HTTP layer. Repositories return *Error values; handlers map
// the Kind to a status code without reinterpreting it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindValidation    Kind = "validation"
	KindForbidden     Kind = "forbidden"
	KindDataIntegrity Kind = "data_integrity"
	KindInternal      Kind = "internal"
)

// Codes carried by Error.Code.
const (
	CodeNotFound            = "not_found"
	CodeEmptyPayload        = "empty_payload"
	CodeTooLarge            = "too_large"
	CodeUnsupportedType     = "unsupported_type"
	CodeCorruptImage        = "corrupt_image"
	CodeBadEncoding         = "bad_encoding"
	CodeWriteFailed         = "write_failed"
	CodeDuplicateTag        = "duplicate_tag"
	CodeDuplicatePosition   = "duplicate_position"
	CodeDuplicateName       = "duplicate_name"
	CodeInUse               = "in_use"
	CodeNoPhoto             = "no_photo"
	CodeMissingReporter     = "missing_reporter"
	CodeMissingResolver     = "missing_resolver"
	CodeMismatchedReference = "mismatched_reference"
	CodeInvalidInput        = "invalid_input"
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func NotFound(code, format string, args ...any) *Error {
	return New(KindNotFound, code, fmt.Errorf(format, args...))
}

func Conflict(code, format string, args ...any) *Error {
	return New(KindConflict, code, fmt.Errorf(format, args...))
}

func Validation(code, format string, args ...any) *Error {
	return New(KindValidation, code, fmt.Errorf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, "forbidden", fmt.Errorf(format, args...))
}

func DataIntegrity(format string, args ...any) *Error {
	return New(KindDataIntegrity, "data_integrity", fmt.Errorf(format, args...))
}

// Internal wraps an unexpected failure. A nil err yields nil.
func Internal(code string, err error) error {
	if err == nil {
		return nil
	}
	return New(KindInternal, code, err)
}

// KindOf reports the kind of the first *Error in err's chain. Errors that
// carry no kind are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps a kind to its transport status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
