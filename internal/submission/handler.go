package submission

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/waybill/internal/documents"
	"github.com/JaimeStill/waybill/pkg/handlers"
	"github.com/JaimeStill/waybill/pkg/routes"
)

// Handler exposes submission endpoints.
type Handler struct {
	system System
	logger *slog.Logger
}

func NewHandler(system System, logger *slog.Logger) *Handler {
	return &Handler{
		system: system,
		logger: logger.With("handler", "submission"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/submissions",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "/connection", Handler: h.connection},
			{Method: http.MethodPost, Pattern: "/{documentId}", Handler: h.submit},
		},
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	documentID, err := strconv.ParseInt(r.PathValue("documentId"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid document id: %w", err))
		return
	}

	outcome, err := h.system.Submit(r.Context(), documentID)
	if err != nil {
		handlers.RespondError(w, h.logger, mapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusBadGateway
	}
	handlers.RespondJSON(w, status, outcome)
}

func (h *Handler) connection(w http.ResponseWriter, r *http.Request) {
	if err := h.system.CheckConnection(r.Context()); err != nil {
		handlers.RespondJSON(w, http.StatusBadGateway, map[string]any{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{"connected": true})
}

func mapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoExtraction) {
		return http.StatusConflict
	}
	return documents.MapHTTPStatus(err)
}
