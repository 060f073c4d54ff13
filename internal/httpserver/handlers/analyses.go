package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/verdantlabs/leafsight/internal/domain"
	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
)

type saveAnalysisRequest struct {
	AnalysisID string           `json:"analysisId"`
	ImageID    string           `json:"imageId"`
	UserID     string           `json:"userId"`
	Detection  domain.Detection `json:"detection"`
	Timestamp  time.Time        `json:"timestamp"`
}

type saveAnalysisResponse struct {
	Success    bool   `json:"success"`
	AnalysisID string `json:"analysisId"`
	Message    string `json:"message"`
}

// SaveAnalysis persists a record produced by the client (e.g. the
// result of a real-time session it wants in its history).
func SaveAnalysis(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveAnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}

		if req.AnalysisID == "" || req.ImageID == "" || req.Detection.Name == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
			return
		}

		ts := req.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}

		d.Orchestrator.SaveRecord(r.Context(), &domain.AnalysisRecord{
			AnalysisID: req.AnalysisID,
			ImageID:    req.ImageID,
			UserID:     req.UserID,
			Detection:  req.Detection,
			Timestamp:  ts,
			CreatedAt:  time.Now(),
		})

		writeJSON(w, http.StatusOK, saveAnalysisResponse{
			Success:    true,
			AnalysisID: req.AnalysisID,
			Message:    "Analysis saved successfully",
		})
	}
}
