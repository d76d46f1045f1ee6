package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/events"
	"outreach-engine/internal/orchestrator"
	"outreach-engine/internal/pipeline"
	"outreach-engine/internal/store"
)

type CampaignsHandler struct {
	Orch *orchestrator.Orchestrator
	Hub  *events.Hub
}

func (h CampaignsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}

	jobID, err := h.Orch.Create(r.Context(), req)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// Route dispatches /api/campaigns/{id}[/events|/leads|/drafts].
func (h CampaignsHandler) Route(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/campaigns/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing campaign id")
		return
	}

	switch tail {
	case "":
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet: h.get(id),
		})(w, r)
	case "events":
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet: h.serveSSE(id),
		})(w, r)
	case "leads":
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: h.moreLeads(id),
		})(w, r)
	case "drafts":
		dh := DraftsHandler{Orch: h.Orch}
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: dh.generate(id),
			http.MethodPut:  dh.edit(id),
		})(w, r)
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown campaign resource")
	}
}

func (h CampaignsHandler) get(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.Orch.Get(r.Context(), id)
		if err != nil {
			writeOpError(w, r, err)
			return
		}
		writeJSON(w, c)
	}
}

func (h CampaignsHandler) moreLeads(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.Orch.MoreLeads(r.Context(), id); err != nil {
			writeOpError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]any{"job_id": id, "started": true})
	}
}

type HistoryHandler struct {
	Orch *orchestrator.Orchestrator
}

func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Orch.History(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if items == nil {
		items = []domain.Summary{}
	}
	writeJSON(w, items)
}

// writeOpError maps the operation error taxonomy onto HTTP statuses.
func writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrValidation):
		WriteError(w, r, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", "campaign not found")
	case errors.Is(err, pipeline.ErrContactNotFound):
		WriteError(w, r, http.StatusNotFound, "contact_not_found", err.Error())
	case errors.Is(err, pipeline.ErrNoDraft):
		WriteError(w, r, http.StatusNotFound, "no_draft", err.Error())
	case errors.Is(err, pipeline.ErrNoResolvedEmail):
		WriteError(w, r, http.StatusPreconditionFailed, "no_resolved_email", err.Error())
	case errors.Is(err, pipeline.ErrConflict):
		WriteError(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
