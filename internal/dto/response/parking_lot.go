package response

import (
	"time"

	"parking-booking/internal/data/entity"

	"github.com/google/uuid"
)

type ParkingLotResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	Location       string    `json:"location"`
	Address        string    `json:"address"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	PricePerHour   float64   `json:"price_per_hour"`
	PricePerDay    float64   `json:"price_per_day"`
	OpenTime       string    `json:"open_time"`
	CloseTime      string    `json:"close_time"`
	IsActive       bool      `json:"is_active"`
	IsApproved     bool      `json:"is_approved"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Helper converters
func ParkingLotToResponse(lot *entity.ParkingLot) ParkingLotResponse {
	return ParkingLotResponse{
		ID:             lot.ID.String(),
		OwnerID:        lot.OwnerID.String(),
		Name:           lot.Name,
		Description:    lot.Description,
		Location:       lot.Location,
		Address:        lot.Address,
		Latitude:       lot.Latitude,
		Longitude:      lot.Longitude,
		TotalSlots:     lot.TotalSlots,
		AvailableSlots: lot.AvailableSlots,
		PricePerHour:   lot.PricePerHour,
		PricePerDay:    lot.PricePerDay,
		OpenTime:       lot.OpenTime,
		CloseTime:      lot.CloseTime,
		IsActive:       lot.IsActive,
		IsApproved:     lot.IsApproved,
		CreatedAt:      lot.CreatedAt,
		UpdatedAt:      lot.UpdatedAt,
	}
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
