package response

import (
	"time"

	"parking-booking/internal/data/entity"
)

type BookingResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	ParkingLotID    string               `json:"parking_lot_id"`
	VehicleNumber   string               `json:"vehicle_number"`
	VehicleType     entity.VehicleType   `json:"vehicle_type"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	DurationHours   float64              `json:"duration_hours"`
	DurationUnit    entity.DurationUnit  `json:"duration_unit"`
	TotalCost       float64              `json:"total_cost"`
	PaymentMethod   entity.PaymentMethod `json:"payment_method"`
	PaymentStatus   entity.PaymentStatus `json:"payment_status"`
	Status          entity.BookingStatus `json:"status"`
	ValidationToken string               `json:"validation_token"`
	CheckInTime     *time.Time           `json:"check_in_time,omitempty"`
	CheckOutTime    *time.Time           `json:"check_out_time,omitempty"`
	CheckedInBy     *string              `json:"checked_in_by,omitempty"`
	CheckedOutBy    *string              `json:"checked_out_by,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Helper converters
func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		UserID:          b.UserID.String(),
		ParkingLotID:    b.ParkingLotID.String(),
		VehicleNumber:   b.VehicleNumber,
		VehicleType:     b.VehicleType,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationHours:   b.DurationHours,
		DurationUnit:    b.DurationUnit,
		TotalCost:       b.TotalCost,
		PaymentMethod:   b.PaymentMethod,
		PaymentStatus:   b.PaymentStatus,
		Status:          b.Status,
		ValidationToken: b.ValidationToken,
		CheckInTime:     b.CheckInTime,
		CheckOutTime:    b.CheckOutTime,
		CheckedInBy:     idString(b.CheckedInBy),
		CheckedOutBy:    idString(b.CheckedOutBy),
		CancelledAt:     b.CancelledAt,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}
