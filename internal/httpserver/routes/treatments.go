package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/httpserver/handlers"
)

func init() { Register(registerTreatments, middleware.Timeout(2*time.Second)) }

func registerTreatments(r chi.Router, d deps.Deps) {
	r.Get("/api/treatments/{diseaseName}", handlers.Treatments(d))
	r.Post("/api/treatments", handlers.AddTreatment(d))
	r.Post("/api/catalog/reload", handlers.ReloadCatalog(d))
}
