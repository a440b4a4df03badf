// Package memory is an in-process implementation of the repository
// interfaces. It backs STORE_DRIVER=memory and the engine tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps every table behind one mutex. Transactions hold the mutex for
// their whole duration and undo their writes from a journal on error.
type Store struct {
	mu       sync.Mutex
	lots     map[uuid.UUID]*entity.ParkingLot
	bookings map[uuid.UUID]*entity.Booking
	tokens   map[string]uuid.UUID
	users    map[uuid.UUID]*entity.User
	sessions map[string]*entity.Session
	log      *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		lots:     make(map[uuid.UUID]*entity.ParkingLot),
		bookings: make(map[uuid.UUID]*entity.Booking),
		tokens:   make(map[string]uuid.UUID),
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[string]*entity.Session),
		log:      log.With(zap.String("repository", "memory")),
	}
}

// Repository returns a non-transactional view of the store.
func (s *Store) Repository() *repository.Repository {
	repo := s.repository(nil)
	repo.Tx = transactor{s: s}
	return repo
}

func (s *Store) repository(j *journal) *repository.Repository {
	v := &view{s: s, j: j}
	return &repository.Repository{
		ParkingLot: &parkingLotRepository{v},
		Booking:    &bookingRepository{v},
		User:       &userRepository{v},
		Session:    &sessionRepository{v},
	}
}

// PutUser inserts or replaces a user. Users are owned by the auth service,
// so this is how they get into the memory store.
func (s *Store) PutUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
}

// PutSession registers a bearer token for a user.
func (s *Store) PutSession(session *entity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[sess.Token.String()] = &sess
}

type transactor struct {
	s *Store
}

func (t transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Repository) error) (err error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	j := &journal{}
	txRepo := t.s.repository(j)
	txRepo.Tx = joined{repo: txRepo}

	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, txRepo); err != nil {
		j.rollback()
		t.s.log.Debug("Transaction rolled back", zap.Int("writes", len(j.undo)), zap.Error(err))
		return err
	}
	return nil
}

type joined struct {
	repo *repository.Repository
}

func (j joined) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Repository) error) error {
	return fn(ctx, j.repo)
}

// journal records how to undo each write made inside a transaction.
type journal struct {
	undo []func()
}

func (j *journal) record(f func()) {
	if j != nil {
		j.undo = append(j.undo, f)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// view is the access path of one repository set. Outside a transaction
// every call takes the store mutex; inside one the transaction already holds it.
type view struct {
	s *Store
	j *journal
}

func (v *view) run(fn func() error) error {
	if v.j == nil {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn()
}

func (v *view) putLot(lot *entity.ParkingLot) {
	id := lot.ID
	prev, had := v.s.lots[id]
	v.s.lots[id] = lot
	v.j.record(func() {
		if had {
			v.s.lots[id] = prev
		} else {
			delete(v.s.lots, id)
		}
	})
}

func (v *view) putBooking(booking *entity.Booking) {
	id := booking.ID
	prev, had := v.s.bookings[id]
	v.s.bookings[id] = booking
	if !had {
		v.s.tokens[booking.ValidationToken] = id
	}
	v.j.record(func() {
		if had {
			v.s.bookings[id] = prev
		} else {
			delete(v.s.bookings, id)
			delete(v.s.tokens, booking.ValidationToken)
		}
	})
}

func errDuplicate(table string, id uuid.UUID) error {
	return fmt.Errorf("%s %s already exists", table, id.String())
}
