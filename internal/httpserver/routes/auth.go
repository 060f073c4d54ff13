package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/httpserver/handlers"
	"github.com/verdantlabs/leafsight/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(d.OTPRateLimit)).Post("/api/auth/send-email-otp", handlers.SendEmailOTP(d))
	r.With(mw.RateLimit(d.OTPRateLimit)).Post("/api/auth/verify-otp", handlers.VerifyOTP(d))
}
