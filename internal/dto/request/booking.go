package request

import "time"

type CreateBookingRequest struct {
	ParkingLotID  string    `json:"parking_lot_id" validate:"required,uuid"`
	UserID        *string   `json:"user_id,omitempty" validate:"omitempty,uuid"` // staff booking for a customer
	VehicleNumber string    `json:"vehicle_number" validate:"required,min=2,max=20"`
	VehicleType   string    `json:"vehicle_type" validate:"required,oneof=car motorcycle truck bus"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
	DurationUnit  string    `json:"duration_unit,omitempty" validate:"omitempty,oneof=hours days"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=mobile_money credit_card cash bank_transfer"`
	Notes         *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type PaymentRequest struct {
	BookingID     string  `json:"booking_id" validate:"required,uuid"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"omitempty,oneof=mobile_money credit_card cash bank_transfer"`
}

type BookingListRequest struct {
	PaginatedRequest
	UserID *string
	LotID  *string
	Status *string
}
