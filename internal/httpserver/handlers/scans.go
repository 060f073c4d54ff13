package handlers

import (
	"net/http"
	"strconv"

	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
)

const defaultScanLimit = 10

// RecentScans lists persisted analysis summaries, newest first. With no
// records stored yet it serves the fixed demo rows so fresh installs
// have something to render.
func RecentScans(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")

		limit := defaultScanLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		writeJSON(w, http.StatusOK, d.Orchestrator.ListRecent(userID, limit))
	}
}

// RecentScansRedirect keeps the legacy /api/analyses/recent path alive.
func RecentScansRedirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := "/api/scans/recent"
		if q := r.URL.RawQuery; q != "" {
			target += "?" + q
		}
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	}
}
