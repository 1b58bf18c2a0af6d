package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/waybill/pkg/handlers"
	"github.com/JaimeStill/waybill/pkg/middleware"
	"github.com/JaimeStill/waybill/pkg/pagination"
	"github.com/JaimeStill/waybill/pkg/routes"
)

const batchConcurrency = 4

// Handler exposes document lifecycle endpoints.
type Handler struct {
	system    System
	maxUpload int64
	pages     pagination.Config
	logger    *slog.Logger
}

func NewHandler(system System, maxUpload int64, pages pagination.Config, logger *slog.Logger) *Handler {
	return &Handler{
		system:    system,
		maxUpload: maxUpload,
		pages:     pages,
		logger:    logger.With("handler", "documents"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "", Handler: h.list},
			{Method: http.MethodPost, Pattern: "/search", Handler: h.search},
			{Method: http.MethodPost, Pattern: "", Handler: h.upload},
			{Method: http.MethodPost, Pattern: "/batch", Handler: h.uploadBatch},
			{Method: http.MethodGet, Pattern: "/{id}", Handler: h.find},
			{Method: http.MethodGet, Pattern: "/{id}/content", Handler: h.content},
			{Method: http.MethodGet, Pattern: "/{id}/can-edit", Handler: h.canEdit},
			{Method: http.MethodPost, Pattern: "/{id}/claim", Handler: h.claim},
			{Method: http.MethodPost, Pattern: "/{id}/unclaim", Handler: h.unclaim},
			{Method: http.MethodPost, Pattern: "/{id}/extraction", Handler: h.saveExtraction},
			{Method: http.MethodPatch, Pattern: "/{id}/status", Handler: h.transition},
			{Method: http.MethodDelete, Pattern: "/{id}", Handler: h.delete},
			{Method: http.MethodDelete, Pattern: "", Handler: h.deleteAll},
		},
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	req := pagination.PageRequestFromQuery(values, h.pages)

	filters := DocumentFilters{
		Status:       queryValue(values.Get("status")),
		ExternalID:   queryValue(values.Get("external_id")),
		Filename:     queryValue(values.Get("filename")),
		SourceSystem: queryValue(values.Get("source_system")),
		ClaimedBy:    queryValue(values.Get("claimed_by")),
	}

	result, err := h.system.List(r.Context(), req, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		pagination.PageRequest
		Filters DocumentFilters `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid request body: %w", err))
		return
	}
	req.Normalize(h.pages)

	result, err := h.system.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("missing file: %w", err))
		return
	}
	defer file.Close()

	externalID := r.FormValue("external_id")
	if externalID == "" {
		externalID = stem(header.Filename)
	}

	doc, err := h.receive(r, file, header.Filename, externalID)
	if err != nil {
		h.respondReceiveError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, receiveResponse{
		Success:    true,
		Message:    fmt.Sprintf("document %q received", doc.Filename),
		DocumentID: doc.ID,
		Document:   doc,
	})
}

func (h *Handler) uploadBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload*batchConcurrency)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("no files provided"))
		return
	}

	results := make([]batchItem, len(files))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)

	for i, header := range files {
		g.Go(func() error {
			results[i] = h.receiveOne(r, header)
			return nil
		})
	}

	// workers never return errors; failures land in their batch item
	_ = g.Wait()

	handlers.RespondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.system.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) content(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, content, err := h.system.Content(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (h *Handler) canEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized,
			fmt.Errorf("reviewer identity required"))
		return
	}

	canEdit, err := h.system.CanEdit(r.Context(), id, identity.Subject)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]bool{"can_edit": canEdit})
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized,
			fmt.Errorf("reviewer identity required"))
		return
	}

	claimed, err := h.system.Claim(r.Context(), id, identity.Subject, identity.Name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	message := "document claimed"
	if !claimed {
		message = "document is claimed by another reviewer"
	}
	handlers.RespondJSON(w, http.StatusOK, receiveResponse{Success: claimed, Message: message, DocumentID: id})
}

func (h *Handler) unclaim(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized,
			fmt.Errorf("reviewer identity required"))
		return
	}

	released, err := h.system.Unclaim(r.Context(), id, identity.Subject)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	message := "document released"
	if !released {
		message = "document is not claimed by you"
	}
	handlers.RespondJSON(w, http.StatusOK, receiveResponse{Success: released, Message: message, DocumentID: id})
}

func (h *Handler) saveExtraction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized,
			fmt.Errorf("reviewer identity required"))
		return
	}

	var req struct {
		Payload         json.RawMessage `json:"payload"`
		ValidationNotes *string         `json:"validation_notes"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, h.maxUpload)).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Payload) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("payload is required"))
		return
	}

	revision, err := h.system.SaveExtraction(r.Context(), id, req.Payload, req.ValidationNotes, identity.Subject, identity.Name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, revision)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid request body: %w", err))
		return
	}

	status, err := ParseStatus(req.Status)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.system.Transition(r.Context(), id, status); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, receiveResponse{
		Success:    true,
		Message:    "status changed to " + req.Status,
		DocumentID: id,
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.system.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	removed, err := h.system.DeleteAll(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

type receiveResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	DocumentID int64     `json:"document_id,omitempty"`
	Document   *Document `json:"document,omitempty"`
}

type batchItem struct {
	Filename   string `json:"filename"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DocumentID int64  `json:"document_id,omitempty"`
}

func (h *Handler) receive(r *http.Request, file multipart.File, filename, externalID string) (*Document, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > h.maxUpload {
		return nil, ErrFileTooLarge
	}

	cmd := ReceiveCommand{
		ExternalID: externalID,
		Filename:   filepath.Base(filename),
		Content:    content,
	}
	if source := r.FormValue("source_system"); source != "" {
		cmd.SourceSystem = &source
	}

	return h.system.Receive(r.Context(), cmd)
}

// receiveOne ingests a single batch entry. Its external id is derived from
// the filename stem, which the delivery-report naming convention keeps unique.
func (h *Handler) receiveOne(r *http.Request, header *multipart.FileHeader) batchItem {
	file, err := header.Open()
	if err != nil {
		return batchItem{
			Filename: header.Filename,
			Message:  fmt.Sprintf("open upload: %v", err),
		}
	}
	defer file.Close()

	doc, err := h.receive(r, file, header.Filename, stem(header.Filename))
	if err != nil {
		return batchItem{Filename: header.Filename, Message: err.Error()}
	}

	return batchItem{
		Filename:   header.Filename,
		Success:    true,
		Message:    "document received",
		DocumentID: doc.ID,
	}
}

func (h *Handler) respondReceiveError(w http.ResponseWriter, err error) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		handlers.RespondJSON(w, http.StatusConflict, map[string]any{
			"success":              false,
			"message":              dup.Error(),
			"conflicting_id":       dup.DocumentID,
			"conflicting_filename": dup.Filename,
		})
		return
	}

	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("invalid document id: %w", err))
		return 0, false
	}
	return id, true
}

func queryValue(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
