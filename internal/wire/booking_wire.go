package wire

import (
	"parking-booking/internal/adaptor"
	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Post("/api/bookings", bookingHandler.CreateBooking)
		r.Get("/api/bookings", bookingHandler.GetBookings)

		// owner of the booking or staff
		r.Get("/api/bookings/{id}", bookingHandler.GetBookingByID)
		r.Get("/api/bookings/{id}/qr", bookingHandler.GetBookingQR)
		r.Put("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)

		r.Post("/api/pay", bookingHandler.ProcessPayment)
	})

	// ==================== STAFF ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.RequireRole(log, entity.RoleEmployee, entity.RoleAdmin))

		r.Put("/{id}/no-show", bookingHandler.MarkNoShow)
	})
}
