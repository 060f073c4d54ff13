package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/httpserver/handlers"
)

// No timeout middleware here: the connection stays open for the life
// of the client session.
func init() { Register(registerWebSocket) }

func registerWebSocket(r chi.Router, d deps.Deps) {
	r.Get("/ws", handlers.WebSocket(d))
}
