package parking

import (
	"fmt"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Rates is the price table of one lot.
type Rates struct {
	PricePerHour decimal.Decimal
	PricePerDay  decimal.Decimal
}

func RatesFor(lot *entity.ParkingLot) Rates {
	return Rates{
		PricePerHour: decimal.NewFromFloat(lot.PricePerHour),
		PricePerDay:  decimal.NewFromFloat(lot.PricePerDay),
	}
}

var (
	hoursPerDay = decimal.NewFromInt(24)
	minHours    = decimal.RequireFromString("0.5")
	minDays     = minHours.Div(hoursPerDay)
)

// Cost prices a booking: ceil(value * rate), with the hourly rate for hours
// and the daily rate for days. Anything shorter than half an hour is
// ErrInvalidDuration.
func Cost(value decimal.Decimal, unit entity.DurationUnit, rates Rates) (decimal.Decimal, error) {
	var rate, minimum decimal.Decimal
	switch unit {
	case entity.DurationHours:
		rate, minimum = rates.PricePerHour, minHours
	case entity.DurationDays:
		rate, minimum = rates.PricePerDay, minDays
	default:
		return decimal.Zero, fmt.Errorf("unknown duration unit %q: %w", unit, apperror.ErrValidation)
	}

	if value.LessThan(minimum) {
		return decimal.Zero, fmt.Errorf("duration %s %s: %w", value.String(), unit, apperror.ErrInvalidDuration)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative %s rate: %w", unit, apperror.ErrValidation)
	}

	// Round first so residue from DurationValue's division (7h as days is
	// 0.2916666666666667) does not push an exact amount up by one.
	return value.Mul(rate).Round(6).Ceil(), nil
}

// DurationValue expresses end-start in unit. Sub-second precision is dropped.
func DurationValue(start, end time.Time, unit entity.DurationUnit) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(end.Sub(start) / time.Second))
	hours := seconds.Div(decimal.NewFromInt(3600))
	if unit == entity.DurationDays {
		return hours.Div(hoursPerDay)
	}
	return hours
}
