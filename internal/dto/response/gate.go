package response

type GateScanResponse struct {
	Outcome string           `json:"outcome"` // admitted | rejected
	Reason  string           `json:"reason,omitempty"`
	Via     string           `json:"via"`
	Booking *BookingResponse `json:"booking,omitempty"`
}
