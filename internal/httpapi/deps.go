package httpapi

import (
	"sync/atomic"

	"outreach-engine/internal/config"
	"outreach-engine/internal/events"
	"outreach-engine/internal/orchestrator"
)

type Deps struct {
	Orch *orchestrator.Orchestrator
	Hub  *events.Hub

	// Atomic store of config.Config so PUT /api/config hot-reloads.
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// OnReload runs after a config or secret write lands, with the config
	// now in effect. main uses it to retune the rate limiter and refresh
	// the generator credentials. Optional.
	OnReload func(config.Config)
}
