package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Auth           *Authenticator
	Limiter        *RateLimiter
	RequestTimeout time.Duration

	Hotels   *HotelHandler
	Bookings *BookingHandler
	Payments *PaymentHandler
	Reviews  *ReviewHandler
}

// NewRouter mounts every API route. The payment webhook and health check sit
// outside the bearer token middleware.
func NewRouter(cfg RouterConfig, log logrus.FieldLogger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Post("/webhook", cfg.Payments.Webhook)

			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.Middleware)
				r.Get("/", cfg.Payments.ListPayments)
				r.Post("/intents", cfg.Payments.CreateIntent)
				r.Post("/{id}/confirm", cfg.Payments.ConfirmPayment)
				r.With(RequireOwner).Post("/{id}/refund", cfg.Payments.Refund)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Middleware)

			r.Route("/hotels", func(r chi.Router) {
				r.With(RequireOwner).Post("/", cfg.Hotels.CreateHotel)
				r.Get("/{id}", cfg.Hotels.GetHotel)
				r.With(RequireOwner).Patch("/{id}", cfg.Hotels.UpdateHotel)
				r.Get("/{id}/reviews", cfg.Reviews.ListHotelReviews)
			})

			r.Route("/owner", func(r chi.Router) {
				r.Use(RequireOwner)
				r.Get("/hotels", cfg.Hotels.ListOwnerHotels)
				r.Get("/bookings", cfg.Bookings.ListOwnerBookings)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", cfg.Bookings.CreateBooking)
				r.Get("/", cfg.Bookings.ListBookings)
				r.With(RequireOwner).Put("/qr-checkin/{code}", cfg.Bookings.QRCheckIn)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.Bookings.GetBooking)
					r.Patch("/", cfg.Bookings.UpdateBooking)
					r.Delete("/", cfg.Bookings.CancelBooking)
					r.Get("/payment-required", cfg.Bookings.PaymentRequired)
					r.Put("/self-checkin", cfg.Bookings.SelfCheckIn)
					r.Put("/self-checkout", cfg.Bookings.SelfCheckOut)

					r.Group(func(r chi.Router) {
						r.Use(RequireOwner)
						r.Put("/confirm", cfg.Bookings.ConfirmBooking)
						r.Put("/reject", cfg.Bookings.RejectBooking)
						r.Put("/check-in", cfg.Bookings.CheckIn)
						r.Put("/check-out", cfg.Bookings.CheckOut)
						r.Put("/no-show", cfg.Bookings.MarkNoShow)
					})
				})
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/", cfg.Reviews.CreateReview)
				r.Put("/{id}", cfg.Reviews.UpdateReview)
				r.Delete("/{id}", cfg.Reviews.DeleteReview)
				r.With(RequireOwner).Put("/{id}/reply", cfg.Reviews.Reply)
			})
		})
	})

	return r
}
