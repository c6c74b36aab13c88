// Package apperr defines the error kinds surfaced by the ordering core.
//
// Every kind has a sentinel usable with errors.Is. Kinds that carry
// detail also have a struct type that can be extracted with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrAuthRequired        = errors.New("authentication required")
	ErrForbidden           = errors.New("forbidden")
	ErrNotPayable          = errors.New("order is not payable")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrRemote              = errors.New("remote service error")
	ErrTimeout             = errors.New("request timed out")
	ErrNetwork             = errors.New("network error")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrStale               = errors.New("stale response discarded")
)

// ErrEmptyCart is returned when an order is requested from a cart with no lines.
var ErrEmptyCart = &ValidationError{Field: "cart", Message: "your cart is empty"}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type AuthRequiredError struct {
	Reason string
}

func (e *AuthRequiredError) Error() string {
	if e.Reason == "" {
		return ErrAuthRequired.Error()
	}
	return ErrAuthRequired.Error() + ": " + e.Reason
}

func (e *AuthRequiredError) Is(target error) bool { return target == ErrAuthRequired }

type ForbiddenError struct {
	Action string
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s: %s", e.Action, e.Reason)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

type NotPayableError struct {
	OrderID       string
	Status        string
	PaymentStatus string
}

func (e *NotPayableError) Error() string {
	ps := e.PaymentStatus
	if ps == "" {
		ps = "none"
	}
	return fmt.Sprintf("order %s is not payable (status %s, payment %s)", e.OrderID, e.Status, ps)
}

func (e *NotPayableError) Is(target error) bool { return target == ErrNotPayable }

type InsufficientBalanceError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Balance.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

type InvalidTransitionError struct {
	OrderID string
	From    string
	To      string
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("order %s: cannot transition from %s to %s", e.OrderID, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// RemoteError wraps a non-2xx response.
type RemoteError struct {
	Service string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Message)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

type TimeoutError struct {
	Service string
	Op      string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s timed out after %s", e.Service, e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// NetworkError means no response was received.
type NetworkError struct {
	Service string
	Op      string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// PaymentFailedError is an explicit rejection reported by the payments service.
type PaymentFailedError struct {
	OrderID string
	Message string
}

func (e *PaymentFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment for order %s failed", e.OrderID)
	}
	return e.Message
}

func (e *PaymentFailedError) Is(target error) bool { return target == ErrPaymentFailed }

// Retryable reports whether a failed read may be attempted again.
func Retryable(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) {
		return true
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status >= 500
	}
	return false
}
