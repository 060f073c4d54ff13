package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/httpserver/handlers"
)

// The inline analyze path waits out the provider latency, so its
// timeout is generous compared to the infra routes.
func init() { Register(registerAnalysis, middleware.Timeout(30*time.Second)) }

func registerAnalysis(r chi.Router, d deps.Deps) {
	r.Post("/api/analyze", handlers.Analyze(d))
	r.Post("/api/analyses", handlers.SaveAnalysis(d))
	r.Get("/api/scans/recent", handlers.RecentScans(d))
	r.Get("/api/analyses/recent", handlers.RecentScansRedirect(d))
}
