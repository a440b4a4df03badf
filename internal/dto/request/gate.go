package request

type GateScanRequest struct {
	TokenOrBookingID string  `json:"token_or_booking_id" validate:"required,max=512"`
	Direction        string  `json:"direction" validate:"required,oneof=entry exit"`
	LotID            *string `json:"lot_id,omitempty" validate:"omitempty,uuid"`
}
