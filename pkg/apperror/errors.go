package apperror

import "net/http"

// Reservation and capacity
var (
	ErrNoCapacity     = New(http.StatusConflict, "NO_CAPACITY", "parking lot has no available slots")
	ErrOverRelease    = New(http.StatusConflict, "OVER_RELEASE", "release would exceed total slots")
	ErrCapacityInUse  = New(http.StatusConflict, "CAPACITY_IN_USE", "total slots cannot drop below slots in use")
	ErrLotUnavailable = New(http.StatusConflict, "LOT_UNAVAILABLE", "parking lot is not accepting bookings")
)

// Client input
var (
	ErrValidation       = New(http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
	ErrInvalidDuration  = New(http.StatusBadRequest, "INVALID_DURATION", "minimum booking duration is 30 minutes")
	ErrInvalidTimeRange = New(http.StatusBadRequest, "INVALID_TIME_RANGE", "invalid booking time range")
	ErrMalformedToken   = New(http.StatusBadRequest, "MALFORMED_TOKEN", "validation token is malformed")
	ErrPaymentMismatch  = New(http.StatusBadRequest, "PAYMENT_MISMATCH", "payment does not match booking")
)

// State machine and concurrency
var (
	ErrInvalidTransition = New(http.StatusConflict, "INVALID_TRANSITION", "booking status does not allow this operation")
	ErrNoShowTooEarly    = ErrInvalidTransition.Sub("NO_SHOW_TOO_EARLY", "booking start time has not passed yet")
	ErrConflict          = New(http.StatusConflict, "CONFLICT", "booking was modified concurrently, retry")
)

// Missing references
var (
	ErrBookingNotFound = New(http.StatusNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrLotNotFound     = New(http.StatusNotFound, "LOT_NOT_FOUND", "parking lot not found")
	ErrUserNotFound    = New(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
)

var ErrForbidden = New(http.StatusForbidden, "FORBIDDEN", "not allowed to access this resource")
