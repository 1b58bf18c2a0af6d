package processlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/waybill/pkg/handlers"
	"github.com/JaimeStill/waybill/pkg/routes"
)

// Handler exposes log browsing and retention endpoints.
type Handler struct {
	system System
	logger *slog.Logger
}

func NewHandler(system System, logger *slog.Logger) *Handler {
	return &Handler{
		system: system,
		logger: logger.With("handler", "processlog"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/logs",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "", Handler: h.recent},
			{Method: http.MethodGet, Pattern: "/range", Handler: h.byRange},
			{Method: http.MethodPost, Pattern: "/prune", Handler: h.prune},
			{Method: http.MethodDelete, Pattern: "/{id}", Handler: h.delete},
			{Method: http.MethodDelete, Pattern: "", Handler: h.clear},
		},
	}
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	entries, err := h.system.Recent(r.Context(), count)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) byRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid from timestamp: %w", err))
		return
	}

	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid to timestamp: %w", err))
		return
	}

	entries, err := h.system.Range(r.Context(), from, to)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) prune(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KeepDays int `json:"keep_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid request body: %w", err))
		return
	}

	removed, err := h.system.Prune(r.Context(), req.KeepDays)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid log entry id: %w", err))
		return
	}

	if err := h.system.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.system.Clear(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
