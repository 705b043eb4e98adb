package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/jafarshop/storefront/internal/domain"
)

// ErrValidation is returned for missing or malformed input
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// ErrUnauthorized is returned when the caller has no rights over a resource
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "not authorized"
	}
	return e.Message
}

// ErrNotFound is returned when a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrDomain is returned when a valid request hits an invalid business state
type ErrDomain struct {
	Message string
}

func (e *ErrDomain) Error() string {
	return e.Message
}

// ErrInvalidStateTransition is returned when an order cannot move to the requested status
type ErrInvalidStateTransition struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrGateway wraps a failure of the third-party payment provider
type ErrGateway struct {
	Op  string
	Err error
}

func (e *ErrGateway) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *ErrGateway) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error kind to the status code the API responds with
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		unauth     *ErrUnauthorized
		notFound   *ErrNotFound
		dom        *ErrDomain
		transition *ErrInvalidStateTransition
		gateway    *ErrGateway
	)
	switch {
	case stderrors.As(err, &validation):
		return http.StatusBadRequest
	case stderrors.As(err, &unauth):
		return http.StatusUnauthorized
	case stderrors.As(err, &notFound):
		return http.StatusNotFound
	case stderrors.As(err, &dom), stderrors.As(err, &transition):
		return http.StatusBadRequest
	case stderrors.As(err, &gateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return stderrors.As(err, &nf)
}
