package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
)

// Limits applied to listing endpoints.
const (
	defaultListLimit = 20
	maxListLimit     = 100

	defaultRecentDays = 7
	maxRecentDays     = 90
)

// RecordReader is the read side of the record store used by the API.
type RecordReader interface {
	ListRiskRecords(ctx context.Context, filter redis.RiskFilter) ([]*risk.Record, error)
	RecentSearches(ctx context.Context, daysBack, limit int) ([]*search.Record, error)
	Statistics(ctx context.Context) (*redis.Statistics, error)
}

// RecordsHandler serves stored assessments and search history.
type RecordsHandler struct {
	store  RecordReader
	logger logging.Logger
}

// NewRecordsHandler wires the handler to the record store.
func NewRecordsHandler(store RecordReader, log logging.Logger) *RecordsHandler {
	return &RecordsHandler{store: store, logger: log}
}

type assessmentsResponse struct {
	Assessments []*risk.Record `json:"assessments"`
	Count       int            `json:"count"`
}

// ListAssessments handles GET /api/v1/risk/assessments with optional
// entity, level, and limit query parameters.
func (h *RecordsHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	filter := redis.RiskFilter{
		EntityName: strings.TrimSpace(r.URL.Query().Get("entity")),
		Limit:      clamp(queryInt(r, "limit", defaultListLimit), 1, maxListLimit),
	}
	if level := r.URL.Query().Get("level"); level != "" {
		filter.Level = risk.Level(strings.ToUpper(level))
	}

	records, err := h.store.ListRiskRecords(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list risk records", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessmentsResponse{
		Assessments: records,
		Count:       len(records),
	})
}

type recentSearchesResponse struct {
	Searches []*search.Record `json:"searches"`
	Count    int              `json:"count"`
	DaysBack int              `json:"days_back"`
}

// RecentSearches handles GET /api/v1/searches/recent with optional days
// and limit query parameters.
func (h *RecordsHandler) RecentSearches(w http.ResponseWriter, r *http.Request) {
	daysBack := clamp(queryInt(r, "days", defaultRecentDays), 1, maxRecentDays)
	limit := clamp(queryInt(r, "limit", defaultListLimit), 1, maxListLimit)

	records, err := h.store.RecentSearches(r.Context(), daysBack, limit)
	if err != nil {
		h.logger.Error("failed to list recent searches", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recentSearchesResponse{
		Searches: records,
		Count:    len(records),
		DaysBack: daysBack,
	})
}

// Statistics handles GET /api/v1/statistics.
func (h *RecordsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.logger.Error("failed to compute store statistics", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
