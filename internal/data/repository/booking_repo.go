package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingFilter struct {
	UserID     *uuid.UUID
	LotID      *uuid.UUID
	Status     *entity.BookingStatus
	// LotOwnerID keeps only bookings at lots owned by this user.
	LotOwnerID *uuid.UUID
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindAll(ctx context.Context, filter BookingFilter, limit, offset int) ([]*entity.Booking, error)
	CountAll(ctx context.Context, filter BookingFilter) (int64, error)

	// FindOverdueBooked lists bookings still in booked whose start time is
	// before the given instant.
	FindOverdueBooked(ctx context.Context, before time.Time, limit int) ([]*entity.Booking, error)

	// UpdateState persists status, payment and audit fields. It succeeds only
	// when the stored version equals booking.Version, then bumps it.
	UpdateState(ctx context.Context, booking *entity.Booking) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, user_id, parking_lot_id, vehicle_number, vehicle_type, start_time, end_time,
		       duration_hours, duration_unit, total_cost, payment_method, payment_status, status,
		       validation_token, check_in_time, check_out_time, checked_in_by, checked_out_by,
		       cancelled_at, cancelled_by, notes, version, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ParkingLotID,
		&booking.VehicleNumber,
		&booking.VehicleType,
		&booking.StartTime,
		&booking.EndTime,
		&booking.DurationHours,
		&booking.DurationUnit,
		&booking.TotalCost,
		&booking.PaymentMethod,
		&booking.PaymentStatus,
		&booking.Status,
		&booking.ValidationToken,
		&booking.CheckInTime,
		&booking.CheckOutTime,
		&booking.CheckedInBy,
		&booking.CheckedOutBy,
		&booking.CancelledAt,
		&booking.CancelledBy,
		&booking.Notes,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, parking_lot_id, vehicle_number, vehicle_type, start_time, end_time,
		                      duration_hours, duration_unit, total_cost, payment_method, payment_status, status,
		                      validation_token, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.ParkingLotID,
		booking.VehicleNumber,
		booking.VehicleType,
		booking.StartTime,
		booking.EndTime,
		booking.DurationHours,
		booking.DurationUnit,
		booking.TotalCost,
		booking.PaymentMethod,
		booking.PaymentStatus,
		booking.Status,
		booking.ValidationToken,
		booking.Notes,
		booking.Version,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (f BookingFilter) whereClause() (string, []any, int) {
	var conds []string
	args := []any{}
	argCount := 1

	if f.UserID != nil {
		conds = append(conds, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *f.UserID)
		argCount++
	}
	if f.LotID != nil {
		conds = append(conds, fmt.Sprintf("parking_lot_id = $%d", argCount))
		args = append(args, *f.LotID)
		argCount++
	}
	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *f.Status)
		argCount++
	}
	if f.LotOwnerID != nil {
		conds = append(conds, fmt.Sprintf("parking_lot_id IN (SELECT id FROM parking_lots WHERE owner_id = $%d)", argCount))
		args = append(args, *f.LotOwnerID)
		argCount++
	}

	if len(conds) == 0 {
		return "", args, argCount
	}
	return " WHERE " + strings.Join(conds, " AND "), args, argCount
}

func (r *bookingRepository) FindAll(ctx context.Context, filter BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	where, args, argCount := filter.whereClause()

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *bookingRepository) CountAll(ctx context.Context, filter BookingFilter) (int64, error) {
	where, args, _ := filter.whereClause()
	query := `SELECT COUNT(*) FROM bookings` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) FindOverdueBooked(ctx context.Context, before time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND start_time < $2
		ORDER BY start_time
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, entity.BookingStatusBooked, before, limit)
	if err != nil {
		r.log.Error("Failed to find overdue bookings",
			zap.Error(err),
			zap.Time("before", before),
		)
		return nil, fmt.Errorf("find overdue bookings before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) UpdateState(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $3, payment_status = $4, payment_method = $5,
		    check_in_time = $6, check_out_time = $7, checked_in_by = $8, checked_out_by = $9,
		    cancelled_at = $10, cancelled_by = $11, notes = $12, updated_at = $13,
		    version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Version,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.CheckInTime,
		booking.CheckOutTime,
		booking.CheckedInBy,
		booking.CheckedOutBy,
		booking.CancelledAt,
		booking.CancelledBy,
		booking.Notes,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update booking state",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(booking.Status)),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update booking %s at version %d: %w", booking.ID.String(), booking.Version, apperror.ErrConflict)
	}

	booking.Version++
	return nil
}
