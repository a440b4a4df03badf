package entity

import "github.com/google/uuid"

type ParkingLot struct {
	Base
	OwnerID        uuid.UUID `db:"owner_id"`
	Name           string    `db:"name"`
	Description    *string   `db:"description"`
	Location       string    `db:"location"`
	Address        string    `db:"address"`
	Latitude       float64   `db:"latitude"`
	Longitude      float64   `db:"longitude"`
	TotalSlots     int       `db:"total_slots"`
	AvailableSlots int       `db:"available_slots"` // only the slot ledger writes this
	PricePerHour   float64   `db:"price_per_hour"`
	PricePerDay    float64   `db:"price_per_day"`
	OpenTime       string    `db:"open_time"`  // HH:MM
	CloseTime      string    `db:"close_time"` // HH:MM
	IsActive       bool      `db:"is_active"`
	IsApproved     bool      `db:"is_approved"`
}

// AcceptsBookings reports whether customers may reserve in this lot.
func (l *ParkingLot) AcceptsBookings() bool {
	return l.IsActive && l.IsApproved && l.DeletedAt == nil
}

func (l *ParkingLot) Clone() *ParkingLot {
	if l == nil {
		return nil
	}
	c := *l
	c.DeletedAt = cloneTime(l.DeletedAt)
	if l.Description != nil {
		d := *l.Description
		c.Description = &d
	}
	return &c
}
