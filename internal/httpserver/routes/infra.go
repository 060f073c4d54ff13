package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/httpserver/handlers"
)

func init() { Register(registerInfra, middleware.Timeout(2*time.Second)) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Root(d))
	r.Get("/health", handlers.Health(d))
	r.Get("/websocket/status", handlers.WebSocketStatus(d))
}
