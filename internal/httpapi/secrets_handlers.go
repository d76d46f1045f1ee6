package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"outreach-engine/internal/config"
	"outreach-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal   *atomic.Value // stores config.Config
	OnReload func(config.Config)
}

type setOpenAIKeyReq struct {
	APIKey string `json:"api_key"`
}

func (h SecretsHandler) SetOpenAIKey(w http.ResponseWriter, r *http.Request) {
	var req setOpenAIKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetOpenAIKey(secrets.OpenAIKeyringAccount(cfg), req.APIKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_failed", "failed to store key: "+err.Error())
		return
	}
	// The running generator should pick up the new key right away.
	if h.OnReload != nil {
		h.OnReload(cfg)
	}
	w.WriteHeader(http.StatusNoContent)
}
