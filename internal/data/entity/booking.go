package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusInUse     BookingStatus = "in_use"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// IsTerminal reports whether no further transition is legal from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled || s == BookingStatusNoShow
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleTruck      VehicleType = "truck"
	VehicleBus        VehicleType = "bus"
)

type DurationUnit string

const (
	DurationHours DurationUnit = "hours"
	DurationDays  DurationUnit = "days"
)

type Booking struct {
	BaseNoDelete
	UserID          uuid.UUID     `db:"user_id"`
	ParkingLotID    uuid.UUID     `db:"parking_lot_id"`
	VehicleNumber   string        `db:"vehicle_number"`
	VehicleType     VehicleType   `db:"vehicle_type"`
	StartTime       time.Time     `db:"start_time"`
	EndTime         time.Time     `db:"end_time"`
	DurationHours   float64       `db:"duration_hours"`
	DurationUnit    DurationUnit  `db:"duration_unit"`
	TotalCost       float64       `db:"total_cost"`
	PaymentMethod   PaymentMethod `db:"payment_method"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
	Status          BookingStatus `db:"status"`
	ValidationToken string        `db:"validation_token"`
	CheckInTime     *time.Time    `db:"check_in_time"`
	CheckOutTime    *time.Time    `db:"check_out_time"`
	CheckedInBy     *uuid.UUID    `db:"checked_in_by"`
	CheckedOutBy    *uuid.UUID    `db:"checked_out_by"`
	CancelledAt     *time.Time    `db:"cancelled_at"`
	CancelledBy     *uuid.UUID    `db:"cancelled_by"`
	Notes           *string       `db:"notes"`
	Version         int           `db:"version"`
}

// Clone returns a deep copy so callers never share mutable state.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.CheckInTime = cloneTime(b.CheckInTime)
	c.CheckOutTime = cloneTime(b.CheckOutTime)
	c.CancelledAt = cloneTime(b.CancelledAt)
	c.CheckedInBy = cloneUUID(b.CheckedInBy)
	c.CheckedOutBy = cloneUUID(b.CheckedOutBy)
	c.CancelledBy = cloneUUID(b.CancelledBy)
	if b.Notes != nil {
		n := *b.Notes
		c.Notes = &n
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
