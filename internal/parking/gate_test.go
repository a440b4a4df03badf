package parking

import (
	"context"
	"sync"
	"testing"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateEntryAndExit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	entry, err := f.gate.ScanForEntry(ctx, booking.ValidationToken, f.staff.ID, &lot.ID)
	require.NoError(t, err)
	assert.True(t, entry.Admitted)
	assert.Equal(t, ViaToken, entry.Via)
	assert.Equal(t, entity.BookingStatusInUse, entry.Booking.Status)

	again, err := f.gate.ScanForEntry(ctx, booking.ValidationToken, f.staff.ID, &lot.ID)
	require.NoError(t, err)
	assert.False(t, again.Admitted)
	assert.Equal(t, "already checked in", again.Reason)

	exit, err := f.gate.ScanForExit(ctx, booking.ValidationToken, f.staff.ID, &lot.ID)
	require.NoError(t, err)
	assert.True(t, exit.Admitted)
	assert.Equal(t, entity.BookingStatusCompleted, exit.Booking.Status)
	assert.Equal(t, 1, f.available(t, lot.ID))

	after, err := f.gate.ScanForExit(ctx, booking.ValidationToken, f.staff.ID, &lot.ID)
	require.NoError(t, err)
	assert.False(t, after.Admitted)
	assert.Equal(t, "booking already completed", after.Reason)
}

// Scenario E
func TestGateRejectsCancelledBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	_, err := f.lc.Cancel(ctx, booking.ID, f.client.ID)
	require.NoError(t, err)

	outcome, err := f.gate.ScanForEntry(ctx, booking.ValidationToken, f.staff.ID, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	assert.Equal(t, "booking was cancelled", outcome.Reason)
	assert.Equal(t, entity.BookingStatusCancelled, outcome.Booking.Status)
	assert.Equal(t, 1, f.available(t, lot.ID))
}

func TestGateManualEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	outcome, err := f.gate.Scan(ctx, DirectionEntry, "  "+booking.ID.String()+" ", f.staff.ID, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Admitted)
	assert.Equal(t, ViaManual, outcome.Via)

	outcome, err = f.gate.Scan(ctx, DirectionExit, booking.ID.String(), f.staff.ID, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Admitted)
	assert.Equal(t, entity.BookingStatusCompleted, outcome.Booking.Status)
}

func TestGateExitBeforeEntry(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	outcome, err := f.gate.ScanForExit(context.Background(), booking.ValidationToken, f.staff.ID, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	assert.Equal(t, "vehicle has not checked in", outcome.Reason)
	assert.Equal(t, entity.BookingStatusBooked, outcome.Booking.Status)
}

func TestGateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gate.ScanForEntry(ctx, "definitely-not-a-token", f.staff.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrMalformedToken)

	_, err = f.gate.ScanForEntry(ctx, uuid.NewString(), f.staff.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)

	// well formed token for a booking that was never stored
	token, err := f.codec.Encode(sampleBooking())
	require.NoError(t, err)
	_, err = f.gate.ScanForEntry(ctx, token, f.staff.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)

	_, err = f.gate.Scan(ctx, "sideways", uuid.NewString(), f.staff.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGateVerifiesAgainstRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.addLot(t, 1)
	other := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	t.Run("other lot", func(t *testing.T) {
		outcome, err := f.gate.ScanForEntry(ctx, booking.ValidationToken, f.staff.ID, &other.ID)
		require.NoError(t, err)
		assert.False(t, outcome.Admitted)
		assert.Equal(t, "booking is for a different parking lot", outcome.Reason)

		outcome, err = f.gate.ScanForEntry(ctx, booking.ID.String(), f.staff.ID, &other.ID)
		require.NoError(t, err)
		assert.False(t, outcome.Admitted)
	})

	t.Run("valid signature but not the issued token", func(t *testing.T) {
		forged := booking.Clone()
		forged.VehicleNumber = "XX-0000-00"
		token, err := f.codec.Encode(forged)
		require.NoError(t, err)

		outcome, err := f.gate.ScanForEntry(ctx, token, f.staff.ID, nil)
		require.NoError(t, err)
		assert.False(t, outcome.Admitted)
		assert.Equal(t, "token does not match booking", outcome.Reason)
	})

	stored, err := f.lc.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusBooked, stored.Status)
}

func TestGateConcurrentEntryScans(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(t, 1)
	booking := f.create(t, lot.ID)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.gate.ScanForEntry(context.Background(), booking.ValidationToken, f.staff.ID, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if outcome.Admitted {
				admitted++
			} else {
				assert.Equal(t, "already checked in", outcome.Reason)
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, 7, rejected)
}
