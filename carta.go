// carta.go: Typed configuration entries over heterogeneous configuration stores
//
// Error taxonomy shared by every component of the package. All failures are
// coded errors from go-errors so callers can branch on the code instead of
// parsing messages.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for carta operations
const (
	// ErrCodeInvalidPath is returned when an entry path is malformed or
	// conflicts with an already registered path.
	ErrCodeInvalidPath = "CARTA_INVALID_PATH"

	// ErrCodeType is returned when a raw value cannot be decoded into the
	// requested type.
	ErrCodeType = "CARTA_TYPE_ERROR"

	// ErrCodeValidation is returned when a value violates a validator.
	ErrCodeValidation = "CARTA_VALIDATION_ERROR"

	// ErrCodeIllegalState is returned when a lifecycle operation is invoked in
	// a state that does not allow it.
	ErrCodeIllegalState = "CARTA_ILLEGAL_STATE"

	// ErrCodeIO is returned when the underlying store fails to read or write.
	ErrCodeIO = "CARTA_IO_FAILURE"

	// ErrCodeInvalidType is returned when a type cannot be constructed
	// (duplicate properties, recursive structs, unsupported fields).
	ErrCodeInvalidType = "CARTA_INVALID_TYPE"

	ErrCodeInvalidOptions    = "CARTA_INVALID_OPTIONS"
	ErrCodeUnsupportedFormat = "CARTA_UNSUPPORTED_FORMAT"
	ErrCodeAudit             = "CARTA_AUDIT_ERROR"
)

// ErrorCode returns the code of the first coded error in err's chain, or an
// empty string when err carries no code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return string(coder.ErrorCode())
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

func typeError(format string, args ...interface{}) error {
	return errors.New(ErrCodeType, fmt.Sprintf(format, args...))
}

func validationError(format string, args ...interface{}) error {
	return errors.New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

func illegalState(op string, state State) error {
	return errors.New(ErrCodeIllegalState, fmt.Sprintf("cannot %s configuration in state %s", op, state)).
		WithContext("operation", op).
		WithContext("state", state.String())
}

// qualify prefixes a type or validation error with the location it happened
// at while keeping its code.
func qualify(err error, where string) *errors.Error {
	msg := fmt.Sprintf("%s: %v", where, err)
	switch ErrorCode(err) {
	case ErrCodeValidation:
		return errors.Wrap(err, ErrCodeValidation, msg)
	case ErrCodeInvalidType:
		return errors.Wrap(err, ErrCodeInvalidType, msg)
	default:
		return errors.Wrap(err, ErrCodeType, msg)
	}
}
