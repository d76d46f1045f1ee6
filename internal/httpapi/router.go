package httpapi

import "net/http"

// NewMux wires every API route. Middleware is applied by the caller so tests
// can pick their own stack.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Campaigns
	ch := CampaignsHandler{Orch: d.Orch, Hub: d.Hub}
	mux.HandleFunc("/api/campaigns", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ch.Create,
	}))
	mux.HandleFunc("/api/campaigns/", ch.Route) // /{id}, /{id}/events, /{id}/leads, /{id}/drafts

	// History
	hh := HistoryHandler{Orch: d.Orch}
	mux.HandleFunc("/api/history", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.List,
	}))

	// Config
	cfg := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		OnReload:    d.OnReload,
	}
	mux.HandleFunc("/api/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfg.Get,
		http.MethodPut: cfg.Put,
	}))
	mux.HandleFunc("/api/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cfg.Path,
	}))

	// Secrets (use CfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal, OnReload: d.OnReload}
	mux.HandleFunc("/api/secrets/openai", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetOpenAIKey,
	}))

	// Health
	health := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: health.Health,
	}))

	return mux
}
