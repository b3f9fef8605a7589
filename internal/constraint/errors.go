package constraint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeRecursiveFilter indicates an entity references itself,
	// directly or through other entities.
	ErrCodeRecursiveFilter ErrorCode = "RECURSIVE_FILTER"

	// ErrCodeUnknownFilter indicates a referenced entity id is absent
	// from the lookup (never existed, or was deleted).
	ErrCodeUnknownFilter ErrorCode = "UNKNOWN_FILTER"

	// ErrCodeInvalidOperand indicates an operand of the wrong shape or
	// type for its operator, or an operator the column does not support.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"
)

// CompileError is a structural error found while compiling a filter.
// It is deterministic for a given input and lookup snapshot.
type CompileError struct {
	Code    ErrorCode
	Message string

	// FilterID is the entity being referenced (recursive/unknown errors).
	FilterID string

	// Chain is the entity expansion chain at the point of failure.
	Chain []string

	// Column and Comparison identify the leaf (invalid operand errors).
	Column     string
	Comparison Code
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	switch {
	case e.FilterID != "" && len(e.Chain) > 0:
		return fmt.Sprintf("%s: %s (filter=%s, chain=%s)", e.Code, e.Message, e.FilterID, strings.Join(e.Chain, " → "))
	case e.FilterID != "":
		return fmt.Sprintf("%s: %s (filter=%s)", e.Code, e.Message, e.FilterID)
	case e.Column != "":
		return fmt.Sprintf("%s: %s (column=%s, code=%s)", e.Code, e.Message, e.Column, e.Comparison)
	case e.Comparison != "":
		return fmt.Sprintf("%s: %s (code=%s)", e.Code, e.Message, e.Comparison)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsRecursiveFilter reports whether err is a RECURSIVE_FILTER error.
// Uses errors.As to handle wrapped errors.
func IsRecursiveFilter(err error) bool { return hasCode(err, ErrCodeRecursiveFilter) }

// IsUnknownFilter reports whether err is an UNKNOWN_FILTER error.
func IsUnknownFilter(err error) bool { return hasCode(err, ErrCodeUnknownFilter) }

// IsInvalidOperand reports whether err is an INVALID_OPERAND error.
func IsInvalidOperand(err error) bool { return hasCode(err, ErrCodeInvalidOperand) }

// NewRecursiveFilterError creates a CompileError for a reference cycle.
func NewRecursiveFilterError(filterID string, chain []string) *CompileError {
	return &CompileError{
		Code:     ErrCodeRecursiveFilter,
		Message:  "filter references itself",
		FilterID: filterID,
		Chain:    append(append([]string{}, chain...), filterID),
	}
}

// NewUnknownFilterError creates a CompileError for a missing entity.
func NewUnknownFilterError(filterID string, chain []string) *CompileError {
	return &CompileError{
		Code:     ErrCodeUnknownFilter,
		Message:  "referenced filter does not exist",
		FilterID: filterID,
		Chain:    append([]string{}, chain...),
	}
}

func invalidOperand(c Comparison, format string, args ...any) *CompileError {
	return &CompileError{
		Code:       ErrCodeInvalidOperand,
		Message:    fmt.Sprintf(format, args...),
		Column:     c.Column,
		Comparison: c.Code,
	}
}
