package httpapi

import (
	"encoding/json"
	"net/http"

	"outreach-engine/internal/orchestrator"
)

type DraftsHandler struct {
	Orch *orchestrator.Orchestrator
}

type generateDraftReq struct {
	Name string `json:"name"`
}

type editDraftReq struct {
	Name    string  `json:"name"`
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
}

func (h DraftsHandler) generate(jobID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateDraftReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
			return
		}

		draft, err := h.Orch.GenerateDraft(r.Context(), jobID, req.Name)
		if err != nil {
			writeOpError(w, r, err)
			return
		}
		writeJSON(w, draft)
	}
}

func (h DraftsHandler) edit(jobID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editDraftReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
			return
		}

		draft, err := h.Orch.EditDraft(r.Context(), jobID, req.Name, req.Subject, req.Body)
		if err != nil {
			writeOpError(w, r, err)
			return
		}
		writeJSON(w, draft)
	}
}
