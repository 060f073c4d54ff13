package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/verdantlabs/leafsight/internal/analysis"
	"github.com/verdantlabs/leafsight/internal/domain"
	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/logger"
)

type analyzeRequest struct {
	ImageURL string `json:"imageUrl"`
	UserID   string `json:"userId"`
}

type analyzeResults struct {
	Detections     []domain.Detection `json:"detections"`
	ProcessingTime float64            `json:"processingTime"`
	Timestamp      time.Time          `json:"timestamp"`
}

type analyzeResponse struct {
	Success    bool           `json:"success"`
	AnalysisID string         `json:"analysisId"`
	Results    analyzeResults `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Analyze is the synchronous analysis path: the detection runs inline
// and comes back as the direct reply, no pushed events.
func Analyze(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}

		rec, err := d.Orchestrator.SubmitInline(r.Context(), req.ImageURL, req.UserID)
		if err != nil {
			if errors.Is(err, analysis.ErrEmptyImageRef) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Image URL is required"})
				return
			}
			d.Logger.Error("inline analysis failed", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Analysis failed"})
			return
		}

		writeJSON(w, http.StatusOK, analyzeResponse{
			Success:    true,
			AnalysisID: rec.AnalysisID,
			Results: analyzeResults{
				Detections:     []domain.Detection{rec.Detection},
				ProcessingTime: rec.ProcessingTime,
				Timestamp:      rec.Timestamp,
			},
		})
	}
}
