package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/apperrors"
	"github.com/finlens/finlens-engine/pkg/middleware"
	"github.com/finlens/finlens-engine/pkg/models"
	"github.com/finlens/finlens-engine/pkg/services"
)

const (
	timeoutMessage = "That question took too long to answer. Please try a simpler question."
	failureMessage = "I'm sorry, I wasn't able to answer that question. Please try again."
)

// AskRequest is the inbound question payload.
type AskRequest struct {
	Message string         `json:"message"`
	UserID  string         `json:"userId,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// AskHandler answers natural-language financial questions.
type AskHandler struct {
	engine *services.Engine
	logger *zap.Logger
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine *services.Engine, logger *zap.Logger) *AskHandler {
	return &AskHandler{engine: engine, logger: logger}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.Ask)
}

// Ask handles POST /api/ask requests. The user-facing text for a failed
// request is always one of the fixed messages above; the underlying
// cause only ever appears in the response context's error field.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON in request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	log := h.logger.With(zap.String("request_id", middleware.RequestID(r.Context())))

	answer, err := h.engine.Ask(r.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMissingMessage):
			if err := ErrorResponse(w, http.StatusBadRequest, "missing_message", "message is required"); err != nil {
				log.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrDeadlineExceeded):
			h.writeFailure(w, log, http.StatusGatewayTimeout, timeoutMessage, err)
		default:
			h.writeFailure(w, log, http.StatusInternalServerError, failureMessage, err)
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, answer); err != nil {
		log.Error("Failed to encode answer", zap.Error(err))
	}
}

func (h *AskHandler) writeFailure(w http.ResponseWriter, log *zap.Logger, status int, message string, cause error) {
	answer := models.Answer{
		Response: message,
		Meta:     models.AnswerMeta{Error: cause.Error()},
	}
	if err := WriteJSON(w, status, answer); err != nil {
		log.Error("Failed to encode failure response", zap.Error(err))
	}
}
