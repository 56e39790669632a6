package handlers

import (
	"net/http"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// KeywordsHandler exposes the screening keyword catalog for inspection
// and runtime mutation.
type KeywordsHandler struct {
	catalog *screening.KeywordCatalog
	logger  logging.Logger
}

// NewKeywordsHandler wires the handler to the shared catalog.
func NewKeywordsHandler(catalog *screening.KeywordCatalog, log logging.Logger) *KeywordsHandler {
	return &KeywordsHandler{catalog: catalog, logger: log}
}

type keywordsResponse struct {
	Categories map[string][]string `json:"categories"`
	Statistics map[string]int      `json:"statistics"`
}

// List handles GET /api/v1/keywords.
func (h *KeywordsHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, keywordsResponse{
		Categories: h.catalog.Export(),
		Statistics: h.catalog.Statistics(),
	})
}

type keywordMutation struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// Add handles POST /api/v1/keywords.
func (h *KeywordsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body keywordMutation
	if err := decodeBody(r, &body); err != nil {
		writeAppError(w, err)
		return
	}
	category, err := screening.ParseCategory(body.Category)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.catalog.AddKeyword(body.Keyword, category); err != nil {
		writeAppError(w, err)
		return
	}

	h.logger.Info("keyword added",
		logging.String("keyword", body.Keyword),
		logging.String("category", body.Category),
	)
	writeJSON(w, http.StatusCreated, keywordsResponse{
		Categories: h.catalog.Export(),
		Statistics: h.catalog.Statistics(),
	})
}

// Remove handles DELETE /api/v1/keywords. Keyword and category arrive as
// query parameters.
func (h *KeywordsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeAppError(w, errors.InvalidParam("keyword query parameter is required"))
		return
	}
	category, err := screening.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := h.catalog.RemoveKeyword(keyword, category); err != nil {
		writeAppError(w, err)
		return
	}

	h.logger.Info("keyword removed",
		logging.String("keyword", keyword),
		logging.String("category", string(category)),
	)
	writeJSON(w, http.StatusOK, keywordsResponse{
		Categories: h.catalog.Export(),
		Statistics: h.catalog.Statistics(),
	})
}
