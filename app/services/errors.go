package services

import (
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a purchase or history failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindOutOfStock
	KindCooldown
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindOutOfStock:
		return "out_of_stock"
	case KindCooldown:
		return "cooldown"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by the services. Only KindInternal
// means something is broken; the other kinds are expected outcomes.
type Error struct {
	Kind    Kind
	Message string

	ProductID string
	Quantity  int

	// OutOfStock
	Available int
	Requested int

	// Cooldown
	Remaining time.Duration

	// Internal: the purchase step that failed and its cause.
	Step string
	Err  error

	// Validation: field name → message.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Kind == KindInternal && e.Err != nil {
		return fmt.Sprintf("%s (step=%s product=%s quantity=%d): %v", e.Message, e.Step, e.ProductID, e.Quantity, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock:
		return http.StatusConflict
	case KindCooldown:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func internalError(step, productID string, quantity int, err error) *Error {
	return &Error{
		Kind:      KindInternal,
		Message:   "Database error occurred while processing purchase",
		ProductID: productID,
		Quantity:  quantity,
		Step:      step,
		Err:       err,
	}
}
