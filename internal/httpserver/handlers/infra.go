package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
)

type healthResponse struct {
	Status        string  `json:"status"`
	WebSocket     string  `json:"websocket"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

func Root(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Backend API is running"))
	}
}

func Health(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		clients := d.Hub.Count()
		wsStatus := "no clients"
		if clients > 0 {
			wsStatus = fmt.Sprintf("connected clients: %d", clients)
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			WebSocket:     wsStatus,
			UptimeSeconds: now().Sub(start).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
		})
	}
}

type wsStatusResponse struct {
	Connected   bool `json:"connected"`
	ClientCount int  `json:"clientCount"`
}

func WebSocketStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := d.Hub.Count()
		writeJSON(w, http.StatusOK, wsStatusResponse{
			Connected:   count > 0,
			ClientCount: count,
		})
	}
}
