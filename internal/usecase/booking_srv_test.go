package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/dto/request"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateBooking_ForSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 2)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	assert.Equal(t, env.client.ID.String(), booking.UserID)
	assert.Equal(t, entity.BookingStatusBooked, booking.Status)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentStatus)
	assert.Equal(t, 15.0, booking.TotalCost)
	assert.NotEmpty(t, booking.ValidationToken)
	assert.Equal(t, 1, env.availableSlots(t, lotID))
}

func TestCreateBooking_OnBehalf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 2)

	req := env.bookingRequest(lotID)
	req.UserID = strPtr(env.other.ID.String())

	_, err := env.svc.Booking.CreateBooking(ctx, env.client, req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, 2, env.availableSlots(t, lotID))

	booking, err := env.svc.Booking.CreateBooking(ctx, env.employee, req)
	require.NoError(t, err)
	assert.Equal(t, env.other.ID.String(), booking.UserID)
}

func TestCreateBooking_BadIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest("not-a-uuid"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(uuid.NewString()))
	assert.ErrorIs(t, err, apperror.ErrLotNotFound)
}

func TestGetBookings_ClientsSeeOwnOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 5)

	_, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)
	_, err = env.svc.Booking.CreateBooking(ctx, env.other, env.bookingRequest(lotID))
	require.NoError(t, err)

	page := request.PaginatedRequest{Page: 1, PerPage: 10}

	// a client asking for someone else's bookings still gets their own
	mine, err := env.svc.Booking.GetBookings(ctx, env.client, &request.BookingListRequest{
		PaginatedRequest: page,
		UserID:           strPtr(env.other.ID.String()),
	})
	require.NoError(t, err)
	require.Len(t, mine.Data, 1)
	assert.Equal(t, env.client.ID.String(), mine.Data[0].UserID)

	all, err := env.svc.Booking.GetBookings(ctx, env.employee, &request.BookingListRequest{PaginatedRequest: page})
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)
	assert.EqualValues(t, 2, all.Pagination.Total)

	booked, err := env.svc.Booking.GetBookings(ctx, env.employee, &request.BookingListRequest{
		PaginatedRequest: page,
		LotID:            strPtr(lotID),
		Status:           strPtr("cancelled"),
	})
	require.NoError(t, err)
	assert.Empty(t, booked.Data)
}

func TestGetBookingByID_Access(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 2)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	_, err = env.svc.Booking.GetBookingByID(ctx, env.client, booking.ID)
	assert.NoError(t, err)
	_, err = env.svc.Booking.GetBookingByID(ctx, env.employee, booking.ID)
	assert.NoError(t, err)

	_, err = env.svc.Booking.GetBookingByID(ctx, env.other, booking.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.svc.Booking.GetBookingByID(ctx, env.client, uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)
}

func TestOwnerScopedToOwnLots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 3)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	page := request.PaginatedRequest{Page: 1, PerPage: 10}

	t.Run("owner of the lot", func(t *testing.T) {
		_, err := env.svc.Booking.GetBookingByID(ctx, env.owner, booking.ID)
		assert.NoError(t, err)

		list, err := env.svc.Booking.GetBookings(ctx, env.owner, &request.BookingListRequest{PaginatedRequest: page})
		require.NoError(t, err)
		require.Len(t, list.Data, 1)
		assert.Equal(t, booking.ID, list.Data[0].ID)
	})

	t.Run("owner of another lot", func(t *testing.T) {
		_, err := env.svc.Booking.GetBookingByID(ctx, env.rival, booking.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		_, err = env.svc.Booking.CancelBooking(ctx, env.rival, booking.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		list, err := env.svc.Booking.GetBookings(ctx, env.rival, &request.BookingListRequest{PaginatedRequest: page})
		require.NoError(t, err)
		assert.Empty(t, list.Data)
		assert.EqualValues(t, 0, list.Pagination.Total)

		list, err = env.svc.Booking.GetBookings(ctx, env.rival, &request.BookingListRequest{
			PaginatedRequest: page,
			UserID:           strPtr(env.client.ID.String()),
		})
		require.NoError(t, err)
		assert.Empty(t, list.Data)

		_, err = env.svc.Gate.Scan(ctx, env.rival, &request.GateScanRequest{
			TokenOrBookingID: booking.ValidationToken,
			Direction:        "entry",
			LotID:            strPtr(lotID),
		})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("owners do not operate gates", func(t *testing.T) {
		_, err := env.svc.Gate.Scan(ctx, env.owner, &request.GateScanRequest{
			TokenOrBookingID: booking.ValidationToken,
			Direction:        "entry",
			LotID:            strPtr(lotID),
		})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.Equal(t, 2, env.availableSlots(t, lotID))
	})
}

func TestGetBookingQR(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 2)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	png, err := env.svc.Booking.GetBookingQR(ctx, env.client, booking.ID, 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = env.svc.Booking.GetBookingQR(ctx, env.other, booking.ID, 128)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCancelBooking_RefundsPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 1)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)
	require.Equal(t, 0, env.availableSlots(t, lotID))

	_, err = env.svc.Booking.CancelBooking(ctx, env.other, booking.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	paid, err := env.svc.Booking.ProcessPayment(ctx, env.client, &request.PaymentRequest{
		BookingID: booking.ID,
		Amount:    15,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, paid.PaymentStatus)

	cancelled, err := env.svc.Booking.CancelBooking(ctx, env.client, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, cancelled.PaymentStatus)
	assert.Equal(t, 1, env.availableSlots(t, lotID))

	_, err = env.svc.Booking.CancelBooking(ctx, env.client, booking.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestProcessPayment_Mismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 1)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	_, err = env.svc.Booking.ProcessPayment(ctx, env.client, &request.PaymentRequest{
		BookingID: booking.ID,
		Amount:    14.5,
	})
	assert.ErrorIs(t, err, apperror.ErrPaymentMismatch)
}

func TestSweepNoShows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 3)

	// started an hour ago, never arrived
	late, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	// starts later today
	upcoming := env.bookingRequest(lotID)
	upcoming.StartTime = env.now.Add(time.Hour)
	upcoming.EndTime = env.now.Add(3 * time.Hour)
	_, err = env.svc.Booking.CreateBooking(ctx, env.client, upcoming)
	require.NoError(t, err)
	require.Equal(t, 1, env.availableSlots(t, lotID))

	marked, err := env.svc.Booking.SweepNoShows(ctx, env.now.Add(-15*time.Minute), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Equal(t, 2, env.availableSlots(t, lotID))

	got, err := env.svc.Booking.GetBookingByID(ctx, env.client, late.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusNoShow, got.Status)

	marked, err = env.svc.Booking.SweepNoShows(ctx, env.now.Add(-15*time.Minute), 100)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestMarkNoShow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lotID := env.addLot(t, 1)

	booking, err := env.svc.Booking.CreateBooking(ctx, env.client, env.bookingRequest(lotID))
	require.NoError(t, err)

	marked, err := env.svc.Booking.MarkNoShow(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusNoShow, marked.Status)
	assert.Equal(t, 1, env.availableSlots(t, lotID))

	_, err = env.svc.Booking.MarkNoShow(ctx, "nope")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
