package request

// ParkingLotRequest creates a lot. Available slots always start at
// total_slots and are never taken from the client.
type ParkingLotRequest struct {
	OwnerID      *string `json:"owner_id,omitempty" validate:"omitempty,uuid"`
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Location     string  `json:"location" validate:"required,min=1,max=200"`
	Address      string  `json:"address" validate:"required,min=1,max=300"`
	Latitude     float64 `json:"latitude" validate:"latitude"`
	Longitude    float64 `json:"longitude" validate:"longitude"`
	TotalSlots   int     `json:"total_slots" validate:"required,min=1"`
	PricePerHour float64 `json:"price_per_hour" validate:"gte=0"`
	PricePerDay  float64 `json:"price_per_day" validate:"gte=0"`
	OpenTime     string  `json:"open_time" validate:"required,datetime=15:04"`
	CloseTime    string  `json:"close_time" validate:"required,datetime=15:04"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type ParkingLotUpdateRequest struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Location     *string  `json:"location,omitempty" validate:"omitempty,min=1,max=200"`
	Address      *string  `json:"address,omitempty" validate:"omitempty,min=1,max=300"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	TotalSlots   *int     `json:"total_slots,omitempty" validate:"omitempty,min=1"`
	PricePerHour *float64 `json:"price_per_hour,omitempty" validate:"omitempty,gte=0"`
	PricePerDay  *float64 `json:"price_per_day,omitempty" validate:"omitempty,gte=0"`
	OpenTime     *string  `json:"open_time,omitempty" validate:"omitempty,datetime=15:04"`
	CloseTime    *string  `json:"close_time,omitempty" validate:"omitempty,datetime=15:04"`
	IsActive     *bool    `json:"is_active,omitempty"`
	IsApproved   *bool    `json:"is_approved,omitempty"`
}

type ParkingLotListRequest struct {
	PaginatedRequest
	Location      *string
	PriceMin      *float64
	PriceMax      *float64
	AvailableOnly bool
}
