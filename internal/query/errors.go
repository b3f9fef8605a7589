package query

import (
	"errors"
	"fmt"

	"github.com/roach88/layerq/internal/constraint"
)

// ResultCode is the status carried by every result shape.
type ResultCode string

const (
	CodeOK ResultCode = "OK"
)

// InputError is a caller mistake in a request that is not a filter
// compile error: bad paging, an unknown sort column, bad parity.
type InputError struct {
	Code    InputErrorCode
	Message string
}

// InputErrorCode categorizes input errors.
type InputErrorCode string

const (
	// ErrCodeInvalidPage indicates a negative page index or page size.
	ErrCodeInvalidPage InputErrorCode = "INVALID_PAGE"

	// ErrCodeInvalidSort indicates an unknown sort type or column.
	ErrCodeInvalidSort InputErrorCode = "INVALID_SORT"

	// ErrCodeInvalidCount indicates a negative generation count.
	ErrCodeInvalidCount InputErrorCode = "INVALID_COUNT"

	// ErrCodeInvalidContext indicates a malformed query context.
	ErrCodeInvalidContext InputErrorCode = "INVALID_CONTEXT"
)

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func inputError(code InputErrorCode, format string, args ...any) *InputError {
	return &InputError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is an InputError.
// Uses errors.As to handle wrapped errors.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsCallerError reports whether err was caused by the request itself
// (compile or input error) rather than the catalog.
func IsCallerError(err error) bool {
	var ce *constraint.CompileError
	return IsInputError(err) || errors.As(err, &ce)
}
