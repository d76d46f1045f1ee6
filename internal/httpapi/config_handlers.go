package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"outreach-engine/internal/config"
)

type ConfigHandler struct {
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	OnReload    func(config.Config)
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	writeJSON(w, cur)
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var incoming config.Config
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		// Return structured errors so the UI can show them nicely
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	if err := config.SaveAtomic(h.UserCfgPath, normalized); err != nil {
		WriteError(w, r, http.StatusBadRequest, "save_failed", err.Error())
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
		return
	}
	h.CfgVal.Store(saved)
	if h.OnReload != nil {
		h.OnReload(saved)
	}
	writeJSON(w, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	writeJSON(w, map[string]any{"path": abs})
}
