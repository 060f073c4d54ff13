package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/verdantlabs/leafsight/internal/analysis"
	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/ws"
)

const welcomeMessage = "Connected to Leafsight WebSocket server"

// WebSocket upgrades the request and runs the connection's read loop:
// it registers the transport with the hub, pushes the welcome message,
// and dispatches inbound envelopes to the orchestrator until the client
// goes away.
func WebSocket(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Origin checks are left to the CORS layer; native mobile
		// clients send no Origin header at all.
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			d.Logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}

		connID := d.Hub.Register(ws.NewTransport(conn))
		defer func() {
			d.Hub.Unregister(connID)
			d.Orchestrator.ConnectionClosed(connID)
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}()

		ctx := r.Context()
		_ = d.Hub.Send(ctx, connID, ws.Welcome(welcomeMessage))

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					d.Logger.Debug("websocket read error",
						logger.String("conn_id", connID),
						logger.Error(err))
				}
				return
			}

			env, err := ws.ParseEnvelope(data)
			if err != nil {
				// Malformed payloads are logged and dropped, the
				// connection stays open.
				d.Logger.Warn("dropping malformed websocket message",
					logger.String("conn_id", connID),
					logger.Error(err))
				continue
			}

			dispatch(ctx, d, connID, env)
		}
	}
}

func dispatch(ctx context.Context, d deps.Deps, connID string, env ws.Envelope) {
	switch env.Type {
	case ws.TypeAuthenticate:
		var p ws.AuthenticatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			d.Logger.Warn("malformed authenticate payload", logger.Error(err))
			return
		}
		if err := d.Orchestrator.Authenticate(ctx, connID, p.UserID); err != nil {
			d.Logger.Debug("authenticate failed",
				logger.String("conn_id", connID),
				logger.Error(err))
		}

	case ws.TypeAnalyzeImage:
		var p ws.AnalyzeImagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			d.Logger.Warn("malformed analyze_image payload", logger.Error(err))
			return
		}
		if p.ImageID == "" {
			return
		}
		_, err := d.Orchestrator.SubmitRealtime(ctx, connID, p.UserID, p.ImageID)
		if errors.Is(err, analysis.ErrUnauthenticated) {
			_ = d.Hub.Send(ctx, connID, ws.ErrorMessage("Not authenticated"))
		}

	default:
		d.Logger.Debug("unhandled websocket message type",
			logger.String("type", env.Type))
	}
}
