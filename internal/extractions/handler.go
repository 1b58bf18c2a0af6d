package extractions

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/waybill/pkg/handlers"
	"github.com/JaimeStill/waybill/pkg/routes"
)

// Handler exposes read access to the extraction ledger. Appends happen
// through the document pipeline, not directly against the ledger.
type Handler struct {
	system System
	logger *slog.Logger
}

func NewHandler(system System, logger *slog.Logger) *Handler {
	return &Handler{
		system: system,
		logger: logger.With("handler", "extractions"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/extractions",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "/{documentId}", Handler: h.current},
			{Method: http.MethodGet, Pattern: "/{documentId}/history", Handler: h.history},
		},
	}
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	revision, err := h.system.Current(r.Context(), documentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, revision)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.documentID(w, r)
	if !ok {
		return
	}

	revisions, err := h.system.History(r.Context(), documentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, revisions)
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("documentId"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid document id: %w", err))
		return 0, false
	}
	return id, true
}
