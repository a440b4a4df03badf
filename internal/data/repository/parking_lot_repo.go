package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ParkingLotFilter narrows lot listings. Nil fields are ignored.
type ParkingLotFilter struct {
	Location      *string // matched against name, location and address
	PriceMin      *float64
	PriceMax      *float64
	AvailableOnly bool
	OwnerID       *uuid.UUID
	// IncludeHidden lists inactive and unapproved lots too (admin views).
	IncludeHidden bool
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *entity.ParkingLot) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ParkingLot, error)
	FindAll(ctx context.Context, filter ParkingLotFilter, limit, offset int) ([]*entity.ParkingLot, error)
	CountAll(ctx context.Context, filter ParkingLotFilter) (int64, error)
	Update(ctx context.Context, lot *entity.ParkingLot) error

	// Slot counters. These are the only writers of available_slots.
	ReserveSlot(ctx context.Context, id uuid.UUID) (int, error)
	ReleaseSlot(ctx context.Context, id uuid.UUID) (int, error)
	Resize(ctx context.Context, id uuid.UUID, totalSlots int) (int, error)
}

type parkingLotRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewParkingLotRepository(db database.Querier, log *zap.Logger) ParkingLotRepository {
	return &parkingLotRepository{
		db:  db,
		log: log.With(zap.String("repository", "parking_lot")),
	}
}

const parkingLotColumns = `id, owner_id, name, description, location, address, latitude, longitude,
		       total_slots, available_slots, price_per_hour, price_per_day, open_time, close_time,
		       is_active, is_approved, created_at, updated_at, deleted_at`

func scanParkingLot(row pgx.Row) (*entity.ParkingLot, error) {
	var lot entity.ParkingLot
	err := row.Scan(
		&lot.ID,
		&lot.OwnerID,
		&lot.Name,
		&lot.Description,
		&lot.Location,
		&lot.Address,
		&lot.Latitude,
		&lot.Longitude,
		&lot.TotalSlots,
		&lot.AvailableSlots,
		&lot.PricePerHour,
		&lot.PricePerDay,
		&lot.OpenTime,
		&lot.CloseTime,
		&lot.IsActive,
		&lot.IsApproved,
		&lot.CreatedAt,
		&lot.UpdatedAt,
		&lot.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *parkingLotRepository) Create(ctx context.Context, lot *entity.ParkingLot) error {
	query := `
		INSERT INTO parking_lots (id, owner_id, name, description, location, address, latitude, longitude,
		                          total_slots, available_slots, price_per_hour, price_per_day,
		                          open_time, close_time, is_active, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		lot.ID,
		lot.OwnerID,
		lot.Name,
		lot.Description,
		lot.Location,
		lot.Address,
		lot.Latitude,
		lot.Longitude,
		lot.TotalSlots,
		lot.AvailableSlots,
		lot.PricePerHour,
		lot.PricePerDay,
		lot.OpenTime,
		lot.CloseTime,
		lot.IsActive,
		lot.IsApproved,
		lot.CreatedAt,
		lot.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create parking lot",
			zap.Error(err),
			zap.String("name", lot.Name),
			zap.String("owner_id", lot.OwnerID.String()),
		)
		return fmt.Errorf("create parking lot %s: %w", lot.Name, err)
	}

	return nil
}

func (r *parkingLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ParkingLot, error) {
	query := `SELECT ` + parkingLotColumns + `
		FROM parking_lots
		WHERE id = $1 AND deleted_at IS NULL
	`

	lot, err := scanParkingLot(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find parking lot by ID",
			zap.Error(err),
			zap.String("lot_id", id.String()),
		)
		return nil, fmt.Errorf("find parking lot by ID %s: %w", id.String(), err)
	}

	return lot, nil
}

// whereClause builds the shared filter for FindAll and CountAll. Placeholders
// start at $1 and the next free index is returned.
func (f ParkingLotFilter) whereClause() (string, []any, int) {
	var sb strings.Builder
	sb.WriteString(" WHERE deleted_at IS NULL")

	args := []any{}
	argCount := 1

	if !f.IncludeHidden {
		sb.WriteString(" AND is_active = TRUE AND is_approved = TRUE")
	}

	if f.Location != nil && *f.Location != "" {
		sb.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR location ILIKE $%d OR address ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+*f.Location+"%")
		argCount++
	}

	if f.PriceMin != nil {
		sb.WriteString(fmt.Sprintf(" AND price_per_hour >= $%d", argCount))
		args = append(args, *f.PriceMin)
		argCount++
	}

	if f.PriceMax != nil {
		sb.WriteString(fmt.Sprintf(" AND price_per_hour <= $%d", argCount))
		args = append(args, *f.PriceMax)
		argCount++
	}

	if f.OwnerID != nil {
		sb.WriteString(fmt.Sprintf(" AND owner_id = $%d", argCount))
		args = append(args, *f.OwnerID)
		argCount++
	}

	if f.AvailableOnly {
		sb.WriteString(" AND available_slots > 0")
	}

	return sb.String(), args, argCount
}

func (r *parkingLotRepository) FindAll(ctx context.Context, filter ParkingLotFilter, limit, offset int) ([]*entity.ParkingLot, error) {
	where, args, argCount := filter.whereClause()

	query := `SELECT ` + parkingLotColumns + ` FROM parking_lots` + where +
		fmt.Sprintf(" ORDER BY available_slots DESC, name LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find all parking lots",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Stringp("location", filter.Location),
		)
		return nil, fmt.Errorf("find all parking lots limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var lots []*entity.ParkingLot
	for rows.Next() {
		lot, err := scanParkingLot(rows)
		if err != nil {
			r.log.Error("Failed to scan parking lot row", zap.Error(err))
			return nil, fmt.Errorf("scan parking lot row: %w", err)
		}
		lots = append(lots, lot)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate parking lot rows: %w", err)
	}

	return lots, nil
}

func (r *parkingLotRepository) CountAll(ctx context.Context, filter ParkingLotFilter) (int64, error) {
	where, args, _ := filter.whereClause()
	query := `SELECT COUNT(*) FROM parking_lots` + where

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count parking lots",
			zap.Error(err),
			zap.Stringp("location", filter.Location),
		)
		return 0, fmt.Errorf("count all parking lots: %w", err)
	}

	return total, nil
}

// Update writes descriptive fields only. Slot counters change through
// ReserveSlot, ReleaseSlot and Resize.
func (r *parkingLotRepository) Update(ctx context.Context, lot *entity.ParkingLot) error {
	query := `
		UPDATE parking_lots
		SET name = $2, description = $3, location = $4, address = $5, latitude = $6, longitude = $7,
		    price_per_hour = $8, price_per_day = $9, open_time = $10, close_time = $11,
		    is_active = $12, is_approved = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		lot.ID,
		lot.Name,
		lot.Description,
		lot.Location,
		lot.Address,
		lot.Latitude,
		lot.Longitude,
		lot.PricePerHour,
		lot.PricePerDay,
		lot.OpenTime,
		lot.CloseTime,
		lot.IsActive,
		lot.IsApproved,
		lot.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update parking lot",
			zap.Error(err),
			zap.String("lot_id", lot.ID.String()),
		)
		return fmt.Errorf("update parking lot %s: %w", lot.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update parking lot %s: %w", lot.ID.String(), apperror.ErrLotNotFound)
	}

	return nil
}

func (r *parkingLotRepository) ReserveSlot(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE parking_lots
		SET available_slots = available_slots - 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND available_slots > 0
		RETURNING available_slots
	`
	return r.adjust(ctx, "reserve", query, apperror.ErrNoCapacity, id)
}

func (r *parkingLotRepository) ReleaseSlot(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE parking_lots
		SET available_slots = available_slots + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND available_slots < total_slots
		RETURNING available_slots
	`
	return r.adjust(ctx, "release", query, apperror.ErrOverRelease, id)
}

func (r *parkingLotRepository) Resize(ctx context.Context, id uuid.UUID, totalSlots int) (int, error) {
	query := `
		UPDATE parking_lots
		SET available_slots = available_slots + ($2 - total_slots), total_slots = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND available_slots + ($2 - total_slots) >= 0
		RETURNING available_slots
	`
	return r.adjust(ctx, "resize", query, apperror.ErrCapacityInUse, id, totalSlots)
}

// adjust runs a guarded counter update. When the guard rejects the row the
// lot is looked up again to tell a missing lot from a failed guard.
func (r *parkingLotRepository) adjust(ctx context.Context, op, query string, guardErr error, id uuid.UUID, args ...any) (int, error) {
	var available int
	err := r.db.QueryRow(ctx, query, append([]any{id}, args...)...).Scan(&available)
	if err == nil {
		return available, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("Failed to adjust parking lot slots",
			zap.Error(err),
			zap.String("op", op),
			zap.String("lot_id", id.String()),
		)
		return 0, fmt.Errorf("%s slot for lot %s: %w", op, id.String(), err)
	}

	var exists bool
	existsQuery := `SELECT EXISTS(SELECT 1 FROM parking_lots WHERE id = $1 AND deleted_at IS NULL)`
	if err := r.db.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		r.log.Error("Failed to check parking lot existence",
			zap.Error(err),
			zap.String("lot_id", id.String()),
		)
		return 0, fmt.Errorf("check parking lot %s: %w", id.String(), err)
	}
	if !exists {
		return 0, fmt.Errorf("%s slot for lot %s: %w", op, id.String(), apperror.ErrLotNotFound)
	}
	return 0, fmt.Errorf("%s slot for lot %s: %w", op, id.String(), guardErr)
}
