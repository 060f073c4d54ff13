package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verdantlabs/leafsight/internal/catalog"
	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
)

type treatmentsResponse struct {
	Treatments     []string `json:"treatments"`
	PreventionTips []string `json:"preventionTips"`
	Message        string   `json:"message,omitempty"`
}

// Treatments serves the guidance for one disease.
func Treatments(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		diseaseName := chi.URLParam(r, "diseaseName")

		entry, ok := d.Catalog.Get(diseaseName)
		if !ok {
			writeJSON(w, http.StatusNotFound, treatmentsResponse{
				Treatments:     []string{},
				PreventionTips: []string{},
				Message:        "No treatments available yet. We will notify you when a professional adds treatment information.",
			})
			return
		}

		writeJSON(w, http.StatusOK, treatmentsResponse{
			Treatments:     entry.Treatments,
			PreventionTips: entry.PreventionTips,
		})
	}
}

type addTreatmentRequest struct {
	DiseaseName    string   `json:"diseaseName"`
	Treatments     []string `json:"treatments"`
	PreventionTips []string `json:"preventionTips"`
}

type addTreatmentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AddTreatment lets professionals add or update guidance for a disease.
func AddTreatment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addTreatmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}

		if req.DiseaseName == "" || len(req.Treatments) == 0 || len(req.PreventionTips) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
			return
		}

		entry := &catalog.Disease{Name: req.DiseaseName}
		if existing, ok := d.Catalog.Get(req.DiseaseName); ok {
			copied := *existing
			entry = &copied
		}
		entry.Treatments = req.Treatments
		entry.PreventionTips = req.PreventionTips
		d.Catalog.Upsert(entry)

		writeJSON(w, http.StatusOK, addTreatmentResponse{
			Success: true,
			Message: fmt.Sprintf("Treatment for %s added successfully", req.DiseaseName),
		})
	}
}

// ReloadCatalog triggers a manual reload of the catalog file.
func ReloadCatalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.CatalogReloadTrigger == nil {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "No catalog file configured"})
			return
		}

		select {
		case d.CatalogReloadTrigger <- struct{}{}:
			writeJSON(w, http.StatusAccepted, addTreatmentResponse{Success: true, Message: "Catalog reload triggered"})
		default:
			writeJSON(w, http.StatusAccepted, addTreatmentResponse{Success: true, Message: "Catalog reload already pending"})
		}
	}
}
