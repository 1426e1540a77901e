// Package errs carries the business outcomes shared by the services.
// Each outcome has a stable Code; errors.Is matches on the code so callers
// can compare against the exported sentinels even when a message or a cause
// has been attached.
package errs

import "errors"

type Code string

const (
	CodeInitializationFailed         Code = "InitializationFailed"
	CodeUnknownPayment               Code = "UnknownPayment"
	CodeCallbackProcessingFailed     Code = "CallbackProcessingFailed"
	CodeUnknownCallbackEvent         Code = "UnknownCallbackEvent"
	CodeReferenceGenerationExhausted Code = "ReferenceGenerationExhausted"
	CodeAccountNotFound              Code = "AccountNotFound"
	CodeInsufficientBalance          Code = "InsufficientBalance"
	CodeBelowMinAmount               Code = "BelowMinAmount"
	CodeExceedsMaxAmount             Code = "ExceedsMaxAmount"

	CodePaymentLookupFailed     Code = "PaymentLookupFailed"
	CodeAccountAlreadyActive    Code = "AccountAlreadyActive"
	CodeActivationInProgress    Code = "ActivationInProgress"
	CodePaymentFailed           Code = "PaymentFailed"
	CodeClientNotActive         Code = "ClientNotActive"
	CodeInvalidStatusTransition Code = "InvalidStatusTransition"
	CodeInvalidRequest          Code = "InvalidRequest"
)

type Error struct {
	Code    Code
	Message string
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrInitializationFailed         = &Error{Code: CodeInitializationFailed}
	ErrUnknownPayment               = &Error{Code: CodeUnknownPayment}
	ErrCallbackProcessingFailed     = &Error{Code: CodeCallbackProcessingFailed}
	ErrUnknownCallbackEvent         = &Error{Code: CodeUnknownCallbackEvent}
	ErrReferenceGenerationExhausted = &Error{Code: CodeReferenceGenerationExhausted}
	ErrAccountNotFound              = &Error{Code: CodeAccountNotFound}
	ErrInsufficientBalance          = &Error{Code: CodeInsufficientBalance}
	ErrBelowMinAmount               = &Error{Code: CodeBelowMinAmount}
	ErrExceedsMaxAmount             = &Error{Code: CodeExceedsMaxAmount}

	ErrPaymentLookupFailed     = &Error{Code: CodePaymentLookupFailed}
	ErrAccountAlreadyActive    = &Error{Code: CodeAccountAlreadyActive}
	ErrActivationInProgress    = &Error{Code: CodeActivationInProgress}
	ErrPaymentFailed           = &Error{Code: CodePaymentFailed}
	ErrClientNotActive         = &Error{Code: CodeClientNotActive}
	ErrInvalidStatusTransition = &Error{Code: CodeInvalidStatusTransition}
	ErrInvalidRequest          = &Error{Code: CodeInvalidRequest}
)

// CodeOf returns the business code carried by err, or "" for faults.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsBusiness reports whether err is an expected business outcome.
func IsBusiness(err error) bool {
	return CodeOf(err) != ""
}
