// Package failure carries client-facing errors. A Failure's Code is the HTTP
// status the transport answers with and its Message is shown verbatim.
package failure

import (
	"errors"
	"net/http"
)

type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	cause   error
}

var (
	ForbiddenError   = New(http.StatusForbidden, "You don't have the required permissions")
	NotAuthorized    = New(http.StatusForbidden, "not authorized to perform this action")
	InvalidDateRange = New(http.StatusBadRequest, "check-out date must be after check-in date")
	DatesUnavailable = New(http.StatusConflict, "listing is not available for the selected dates")
)

func New(code int, message string) *Failure {
	return &Failure{Code: code, Message: message}
}

func (e *Failure) Error() string {
	return e.Message
}

// Unwrap exposes the error a failure was built from, if any.
func (e *Failure) Unwrap() error {
	return e.cause
}

// BadRequest turns err into a 400 using err's text. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return &Failure{Code: http.StatusBadRequest, Message: err.Error(), cause: err}
}

func BadRequestFromString(msg string) error {
	return New(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return New(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return New(http.StatusForbidden, msg)
}

func NotFound(msg string) error {
	return New(http.StatusNotFound, msg)
}

func Conflict(msg string) error {
	return New(http.StatusConflict, msg)
}

// InvalidState rejects an operation the entity's current state does not allow.
func InvalidState(msg string) error {
	return New(http.StatusUnprocessableEntity, msg)
}

// GetCode returns the status carried by the first Failure in err's chain,
// or 500 when there is none.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}
