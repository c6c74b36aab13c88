package order

import (
	"strings"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// PaymentStatus is empty until a payment has been attempted.
type PaymentStatus string

const (
	PaymentNone    PaymentStatus = ""
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusReady, StatusCompleted, StatusCancelled:
		return s, nil
	case "CANCELED":
		return StatusCancelled, nil
	}
	return "", apperr.Invalid("status", "unknown order status %q", v)
}

func ParsePaymentStatus(v string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case PaymentNone, PaymentPending, PaymentPaid, PaymentFailed:
		return s, nil
	case "NONE", "UNPAID":
		return PaymentNone, nil
	}
	return "", apperr.Invalid("paymentStatus", "unknown payment status %q", v)
}

// allowedTransitions lists, per current status, the statuses it may move to.
var allowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted: {StatusReady, StatusCompleted},
	StatusReady:    {StatusCompleted},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// CompletionPolicy decides whether sellers may complete unpaid orders.
type CompletionPolicy int

const (
	CompleteAnyPayment CompletionPolicy = iota
	CompleteRequiresPaid
)

func (p CompletionPolicy) String() string {
	if p == CompleteRequiresPaid {
		return "requires-paid"
	}
	return "any-payment"
}
