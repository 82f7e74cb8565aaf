package api

import (
	"errors"
	"net/http"

	"homebooking/internal/derive"
	"homebooking/internal/models"
	"homebooking/internal/service"
	"homebooking/internal/store"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errUnauthenticated = errors.New("not signed in")

// httpStatus maps domain errors onto response codes. Unknown errors are 500.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrBookingNotFound),
		errors.Is(err, store.ErrServiceNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicateID),
		errors.Is(err, service.ErrSlotTaken),
		errors.Is(err, service.ErrServiceUnavailable):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidForm),
		errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, derive.ErrMalformedPriceRange),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidService),
		errors.Is(err, service.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrLoginThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrSubmissionCancelled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func grpcError(err error) error {
	var code codes.Code
	switch httpStatus(err) {
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusConflict:
		code = codes.FailedPrecondition
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusTooManyRequests:
		code = codes.ResourceExhausted
	case http.StatusRequestTimeout:
		code = codes.Canceled
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
