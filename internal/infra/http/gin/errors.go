package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	appbooking "rentbazaar/internal/app/handlers/booking"
	applistings "rentbazaar/internal/app/handlers/listings"
	domainbooking "rentbazaar/internal/domain/booking"
	domainlistings "rentbazaar/internal/domain/listings"
	domainpricing "rentbazaar/internal/domain/pricing"
	domainrange "rentbazaar/internal/domain/shared/daterange"
)

// respondError maps domain failures onto HTTP statuses. Conflicts get extra
// payload so clients can show the offending days or bookings.
func respondError(c *gin.Context, err error) {
	var blocked *domainbooking.DateBlockedError
	if errors.As(err, &blocked) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "blocked_dates": blocked.Dates})
		return
	}
	var conflict *domainbooking.DateConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "conflicting_bookings": conflict.References})
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainlistings.ErrListingNotFound),
		errors.Is(err, domainbooking.ErrExtensionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrUnauthorizedTransition),
		errors.Is(err, appbooking.ErrBookingAccessDenied),
		errors.Is(err, applistings.ErrListingNotOwned):
		return http.StatusForbidden
	case errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainbooking.ErrExtensionDecided),
		errors.Is(err, domainbooking.ErrDatesBlocked),
		errors.Is(err, domainbooking.ErrRangeConflict):
		return http.StatusConflict
	case errors.Is(err, domainpricing.ErrNoPricingAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrSelfBooking),
		errors.Is(err, domainbooking.ErrStartInPast),
		errors.Is(err, domainbooking.ErrExtensionTooShort),
		errors.Is(err, domainlistings.ErrNotActive):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
