package tripbridge

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a stable, framework-facing error identifier. It is a string
// newtype, comparable, and implements error. Codes cross the bridge as
// structured results, never as panics.
type Code string

func (c Code) Error() string { return string(c) }

const (
	CodeInvalidArguments    Code = "invalidArguments"
	CodeAuthInvalid         Code = "authInvalid"
	CodeThrottle            Code = "throttle"
	CodeNetworkError        Code = "networkError"
	CodeUninitialized       Code = "uninitialized"
	CodeResolveFailed       Code = "resolveFailed"
	CodeThresholdReached    Code = "thresholdReached"
	CodeInitializationError Code = "initializationError"
	CodeInvalidCode         Code = "invalidCode"
	CodePermissionDenied    Code = "permissionDenied"
	CodeSetupError          Code = "setupError"
	CodeLocationError       Code = "locationError"
	CodeScanDevices         Code = "SCAN_DEVICES"
	CodeRegisterDevices     Code = "ERROR_REGISTER_DEVICES"
	CodeUnregisterDevices   Code = "ERROR_UNREGISTER_DEVICES"
)

// Error is a coded error with optional human-readable context and details
// for the caller to branch on. Details is transport-encodable (strings,
// string lists, maps).
type Error struct {
	Code    Code
	Message string
	Details any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Code }

// InvalidArguments builds the local-validation error listing the missing or
// malformed argument names.
func InvalidArguments(names ...string) *Error {
	return &Error{
		Code:    CodeInvalidArguments,
		Message: fmt.Sprintf("required: %s", strings.Join(names, ", ")),
		Details: names,
	}
}

// Coded wraps err into an *Error carrying code, preserving an existing
// *Error untouched.
func Coded(code Code, err error) *Error {
	if err == nil {
		return &Error{Code: code}
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return &Error{Code: code, Message: err.Error()}
}

// CodeOf extracts the stable code from err, defaulting to networkError for
// plain transport failures and setupError otherwise.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeSetupError
}
