package parking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(t, 3)

	booking := f.create(t, lot.ID)

	assert.Equal(t, entity.BookingStatusBooked, booking.Status)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, "GR-1234-21", booking.VehicleNumber)
	assert.Equal(t, entity.DurationHours, booking.DurationUnit)
	assert.Equal(t, 3.0, booking.DurationHours)
	assert.Equal(t, 15.0, booking.TotalCost)
	assert.NotEmpty(t, booking.ValidationToken)
	assert.Equal(t, 2, f.available(t, lot.ID))

	claims, err := f.codec.Decode(booking.ValidationToken)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, claims.BookingID)
	assert.Equal(t, entity.BookingStatusBooked, claims.Status)

	stored, err := f.lc.Get(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ValidationToken, stored.ValidationToken)
}

func TestCreateBookingDaily(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(t, 1)

	p := f.params(lot.ID)
	p.StartTime = f.now
	p.EndTime = f.now.Add(36 * time.Hour)
	p.DurationUnit = entity.DurationDays

	booking, err := f.lc.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 60.0, booking.TotalCost)
	assert.Equal(t, 36.0, booking.DurationHours)
}

func TestCreateBookingRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)

	hidden := f.addLot(t, 1)
	hidden.IsApproved = false
	require.NoError(t, f.repo.ParkingLot.Update(ctx, hidden))

	tests := []struct {
		name    string
		mutate  func(p *CreateParams)
		wantErr error
	}{
		{"end before start", func(p *CreateParams) { p.EndTime = p.StartTime.Add(-time.Minute) }, apperror.ErrInvalidTimeRange},
		{"end equals start", func(p *CreateParams) { p.EndTime = p.StartTime }, apperror.ErrInvalidTimeRange},
		{"already over", func(p *CreateParams) {
			p.StartTime = f.now.Add(-3 * time.Hour)
			p.EndTime = f.now.Add(-time.Hour)
		}, apperror.ErrInvalidTimeRange},
		// scenario D
		{"quarter hour", func(p *CreateParams) {
			p.StartTime = f.now
			p.EndTime = f.now.Add(15 * time.Minute)
		}, apperror.ErrInvalidDuration},
		{"unknown user", func(p *CreateParams) { p.UserID = uuid.New() }, apperror.ErrUserNotFound},
		{"inactive user", func(p *CreateParams) { p.UserID = f.banned.ID }, apperror.ErrUserNotFound},
		{"unknown lot", func(p *CreateParams) { p.LotID = uuid.New() }, apperror.ErrLotNotFound},
		{"unapproved lot", func(p *CreateParams) { p.LotID = hidden.ID }, apperror.ErrLotUnavailable},
		{"blank vehicle", func(p *CreateParams) { p.VehicleNumber = "   " }, apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.params(lot.ID)
			tt.mutate(&p)
			booking, err := f.lc.Create(ctx, p)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, booking)
			assert.Equal(t, 1, f.available(t, lot.ID))
		})
	}

	total, err := f.repo.Booking.CountAll(ctx, bookingFilterAll())
	require.NoError(t, err)
	assert.Zero(t, total)
}

// Scenario A
func TestCreateUntilFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)

	f.create(t, lot.ID)
	assert.Equal(t, 0, f.available(t, lot.ID))

	booking, err := f.lc.Create(ctx, f.params(lot.ID))
	assert.ErrorIs(t, err, apperror.ErrNoCapacity)
	assert.Nil(t, booking)

	total, err := f.repo.Booking.CountAll(ctx, bookingFilterAll())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestConcurrentCreateNeverOversells(t *testing.T) {
	for _, tc := range []struct{ slots, callers int }{{1, 2}, {3, 25}, {10, 50}} {
		t.Run(fmt.Sprintf("%d slots %d callers", tc.slots, tc.callers), func(t *testing.T) {
			f := newFixture(t)
			lot := f.addLot(t, tc.slots)

			var (
				wg         sync.WaitGroup
				mu         sync.Mutex
				successes  int
				noCapacity int
			)
			for i := 0; i < tc.callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.lc.Create(context.Background(), f.params(lot.ID))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						successes++
					case assert.ErrorIs(t, err, apperror.ErrNoCapacity):
						noCapacity++
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, tc.slots, successes)
			assert.Equal(t, tc.callers-tc.slots, noCapacity)
			assert.Equal(t, 0, f.available(t, lot.ID))
		})
	}
}

// Scenario B
func TestCheckInCheckOutRestoresSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 2)

	booking := f.create(t, lot.ID)
	assert.Equal(t, 1, f.available(t, lot.ID))

	checkedIn, err := f.lc.CheckIn(ctx, booking.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusInUse, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckInTime)
	assert.True(t, f.now.Equal(*checkedIn.CheckInTime))
	assert.Equal(t, f.staff.ID, *checkedIn.CheckedInBy)
	assert.Equal(t, 1, f.available(t, lot.ID))

	f.now = f.now.Add(90 * time.Minute)
	completed, err := f.lc.CheckOut(ctx, booking.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, completed.Status)
	require.NotNil(t, completed.CheckOutTime)
	assert.Equal(t, f.staff.ID, *completed.CheckedOutBy)
	assert.Equal(t, 2, f.available(t, lot.ID))
}

// Scenario C
func TestCancelRestoresSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)

	booking := f.create(t, lot.ID)
	cancelled, err := f.lc.Cancel(ctx, booking.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, f.client.ID, *cancelled.CancelledBy)
	assert.Equal(t, 1, f.available(t, lot.ID))

	_, err = f.lc.CheckIn(ctx, booking.ID, f.staff.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	// a second cancel must not release twice
	_, err = f.lc.Cancel(ctx, booking.ID, f.client.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Equal(t, 1, f.available(t, lot.ID))
}

func TestCancelPaidBookingRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)

	booking := f.create(t, lot.ID)
	_, err := f.lc.RecordPayment(ctx, booking.ID, booking.TotalCost, nil)
	require.NoError(t, err)

	cancelled, err := f.lc.Cancel(ctx, booking.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusRefunded, cancelled.PaymentStatus)
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)

	t.Run("before start is too early", func(t *testing.T) {
		p := f.params(lot.ID)
		p.StartTime = f.now.Add(time.Hour)
		p.EndTime = f.now.Add(2 * time.Hour)
		booking, err := f.lc.Create(ctx, p)
		require.NoError(t, err)

		_, err = f.lc.MarkNoShow(ctx, booking.ID)
		assert.ErrorIs(t, err, apperror.ErrNoShowTooEarly)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
		assert.Equal(t, 0, f.available(t, lot.ID))

		_, err = f.lc.Cancel(ctx, booking.ID, f.client.ID)
		require.NoError(t, err)
	})

	t.Run("after start releases once", func(t *testing.T) {
		booking := f.create(t, lot.ID)

		marked, err := f.lc.MarkNoShow(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.BookingStatusNoShow, marked.Status)
		assert.Equal(t, 1, f.available(t, lot.ID))

		again, err := f.lc.MarkNoShow(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.BookingStatusNoShow, again.Status)
		assert.Equal(t, marked.Version, again.Version)
		assert.Equal(t, 1, f.available(t, lot.ID))
	})

	t.Run("in use is invalid", func(t *testing.T) {
		booking := f.create(t, lot.ID)
		_, err := f.lc.CheckIn(ctx, booking.ID, f.staff.ID)
		require.NoError(t, err)

		_, err = f.lc.MarkNoShow(ctx, booking.ID)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := f.lc.MarkNoShow(ctx, uuid.New())
		assert.ErrorIs(t, err, apperror.ErrBookingNotFound)
	})
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 3)

	t.Run("amount must match", func(t *testing.T) {
		booking := f.create(t, lot.ID)
		_, err := f.lc.RecordPayment(ctx, booking.ID, booking.TotalCost-1, nil)
		assert.ErrorIs(t, err, apperror.ErrPaymentMismatch)
	})

	t.Run("pays once", func(t *testing.T) {
		booking := f.create(t, lot.ID)
		method := entity.PaymentMethodCash
		paid, err := f.lc.RecordPayment(ctx, booking.ID, booking.TotalCost, &method)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentStatusPaid, paid.PaymentStatus)
		assert.Equal(t, entity.PaymentMethodCash, paid.PaymentMethod)

		_, err = f.lc.RecordPayment(ctx, booking.ID, booking.TotalCost, nil)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})

	t.Run("terminal booking cannot be paid", func(t *testing.T) {
		booking := f.create(t, lot.ID)
		_, err := f.lc.Cancel(ctx, booking.ID, f.client.ID)
		require.NoError(t, err)

		_, err = f.lc.RecordPayment(ctx, booking.ID, booking.TotalCost, nil)
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	})
}

// Every (state, op) pair: listed transitions succeed, everything else fails
// with ErrInvalidTransition and leaves the record and the ledger untouched.
func TestTransitionMatrix(t *testing.T) {
	ctx := context.Background()

	type op struct {
		name Op
		run  func(f *fixture, id uuid.UUID) (*entity.Booking, error)
	}
	ops := []op{
		{OpCheckIn, func(f *fixture, id uuid.UUID) (*entity.Booking, error) { return f.lc.CheckIn(ctx, id, f.staff.ID) }},
		{OpCheckOut, func(f *fixture, id uuid.UUID) (*entity.Booking, error) { return f.lc.CheckOut(ctx, id, f.staff.ID) }},
		{OpCancel, func(f *fixture, id uuid.UUID) (*entity.Booking, error) { return f.lc.Cancel(ctx, id, f.client.ID) }},
		{OpNoShow, func(f *fixture, id uuid.UUID) (*entity.Booking, error) { return f.lc.MarkNoShow(ctx, id) }},
	}

	// how to reach each state from a fresh booking
	setup := map[entity.BookingStatus][]Op{
		entity.BookingStatusBooked:    nil,
		entity.BookingStatusInUse:     {OpCheckIn},
		entity.BookingStatusCompleted: {OpCheckIn, OpCheckOut},
		entity.BookingStatusCancelled: {OpCancel},
		entity.BookingStatusNoShow:    {OpNoShow},
	}

	for state, path := range setup {
		for _, o := range ops {
			t.Run(fmt.Sprintf("%s/%s", state, o.name), func(t *testing.T) {
				f := newFixture(t)
				lot := f.addLot(t, 2)
				booking := f.create(t, lot.ID)

				for _, step := range path {
					for _, candidate := range ops {
						if candidate.name == step {
							_, err := candidate.run(f, booking.ID)
							require.NoError(t, err)
						}
					}
				}

				before, err := f.lc.Get(ctx, booking.ID)
				require.NoError(t, err)
				require.Equal(t, state, before.Status)
				availableBefore := f.available(t, lot.ID)

				after, err := o.run(f, booking.ID)
				want, legal := transitions[state][o.name]

				switch {
				case legal:
					require.NoError(t, err)
					assert.Equal(t, want, after.Status)
					if releasesSlot[o.name] {
						assert.Equal(t, availableBefore+1, f.available(t, lot.ID))
					} else {
						assert.Equal(t, availableBefore, f.available(t, lot.ID))
					}
					return
				case o.name == OpNoShow && state.IsTerminal():
					require.NoError(t, err)
					assert.Equal(t, before, after)
				default:
					assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
					assert.Nil(t, after)
				}

				stored, err := f.lc.Get(ctx, booking.ID)
				require.NoError(t, err)
				assert.Equal(t, before, stored)
				assert.Equal(t, availableBefore, f.available(t, lot.ID))
			})
		}
	}
}

func TestConcurrentCheckInSingleWinner(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lc.CheckIn(context.Background(), booking.ID, f.staff.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if assert.ErrorIs(t, err, apperror.ErrInvalidTransition) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 9, rejected)
}

func TestNextStatus(t *testing.T) {
	to, err := NextStatus(entity.BookingStatusBooked, OpCheckIn)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusInUse, to)

	_, err = NextStatus(entity.BookingStatusCompleted, OpCheckOut)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}
