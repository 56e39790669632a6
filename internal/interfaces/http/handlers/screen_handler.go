package handlers

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/orchestrator"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// Processor runs one validated screening request to its outcome.
type Processor interface {
	Process(ctx context.Context, req *orchestrator.Request) (*orchestrator.Outcome, error)
}

// ScreenHandler exposes the screening pipeline over HTTP.
type ScreenHandler struct {
	processor Processor
	logger    logging.Logger
}

// NewScreenHandler wires the handler to its processor.
func NewScreenHandler(processor Processor, log logging.Logger) *ScreenHandler {
	return &ScreenHandler{processor: processor, logger: log}
}

// Screen handles POST /api/v1/screen. Requests whose processing
// continues out of band answer 202, completed ones 200.
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := decodeBody(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	req.ClientIP = r.RemoteAddr
	if req.RequestID == "" {
		req.RequestID = chimw.GetReqID(r.Context())
	}

	outcome, err := h.processor.Process(r.Context(), &req)
	if err != nil {
		h.logger.Warn("screening request failed",
			logging.String("request_id", req.RequestID),
			logging.Err(err),
		)
		writeAppError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Accepted {
		status = http.StatusAccepted
	}
	writeJSON(w, status, outcome)
}

// decodeBody parses a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return errors.InvalidParam("request body is required")
	}
	decoder := jsonDecoder(r)
	if err := decoder.Decode(target); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "malformed request body")
	}
	return nil
}
