// Package handlers provides HTTP handlers for the risk report.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/modules/report"
	"github.com/satidlabs/satid/internal/modules/satid"
)

// ReportProvider is the report service surface the handlers need
type ReportProvider interface {
	Generate() (*report.Report, error)
	Latest() (*report.Report, bool)
}

// Handler handles report HTTP requests
type Handler struct {
	reports ReportProvider
	log     zerolog.Logger
}

// NewHandler creates a report handler
func NewHandler(reports ReportProvider, log zerolog.Logger) *Handler {
	return &Handler{
		reports: reports,
		log:     log.With().Str("handler", "report").Logger(),
	}
}

// HandleGetReport handles GET /api/report
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, rep))
}

// HandleRefreshReport handles POST /api/report/refresh
func (h *Handler) HandleRefreshReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.Generate()
	if err != nil {
		h.log.Error().Err(err).Msg("Report generation failed")
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, rep))
}

// HandleGetScores handles GET /api/satid/scores
func (h *Handler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}

	scores := make(map[string][]satid.Score, len(rep.Assets))
	for asset, analysis := range rep.Assets {
		scores[asset] = analysis.Scores
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, scores))
}

// HandleGetAsset handles GET /api/satid/assets/{assetID}
func (h *Handler) HandleGetAsset(w http.ResponseWriter, r *http.Request, assetID string) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}

	analysis, ok := rep.Assets[assetID]
	if !ok {
		http.Error(w, "Unknown asset", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, analysis))
}

// HandleGetPortfolio handles GET /api/satid/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, rep.Portfolio))
}

// HandleGetRiskStats handles GET /api/risk/statistics
func (h *Handler) HandleGetRiskStats(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"portfolio": rep.Portfolio.RiskStats,
		"assets":    assetRiskStats(rep),
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, data))
}

// HandleGetExposure handles GET /api/risk/exposure
func (h *Handler) HandleGetExposure(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"exposure":      rep.Portfolio.Exposure,
		"class_summary": rep.Portfolio.ClassSummary,
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, data))
}

// HandleGetPerformance handles GET /api/performance
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.envelope(rep, rep.Performance))
}

func assetRiskStats(rep *report.Report) map[string][]satid.RiskStatistics {
	stats := make(map[string][]satid.RiskStatistics, len(rep.Assets))
	for asset, analysis := range rep.Assets {
		stats[asset] = analysis.RiskStats
	}
	return stats
}

// envelope wraps payloads with run metadata
func (h *Handler) envelope(rep *report.Report, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"run_id":       rep.RunID.String(),
			"generated_at": rep.GeneratedAt.Format(time.RFC3339),
			"portfolio_id": rep.PortfolioID,
		},
	}
}

// writeError maps engine errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, satid.ErrUnknownAsset):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, satid.ErrInvalidAllocation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, satid.ErrInsufficientData), errors.Is(err, satid.ErrDivisionUndefined):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Report generation failed", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
