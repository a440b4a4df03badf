package repository

import (
	"context"
	"errors"
	"fmt"

	"parking-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	ParkingLot ParkingLotRepository
	Booking    BookingRepository
	User       UserRepository
	Session    SessionRepository
	Tx         Transactor
}

// Transactor runs fn atomically. The Repository handed to fn is bound to the
// transaction; any error returned by fn rolls every write back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgTransactor{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		ParkingLot: NewParkingLotRepository(q, log),
		Booking:    NewBookingRepository(q, log),
		User:       NewUserRepository(q, log),
		Session:    NewSessionRepository(q, log),
	}
}

type pgTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			t.log.Error("Failed to rollback transaction", zap.Error(err))
		}
	}()

	txRepo := newRepository(tx, t.log)
	txRepo.Tx = joinedTx{repo: txRepo}

	if err := fn(ctx, txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// joinedTx lets code already inside a transaction call WithinTx again
// without opening a nested one.
type joinedTx struct {
	repo *Repository
}

func (j joinedTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	return fn(ctx, j.repo)
}
