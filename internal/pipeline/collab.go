package pipeline

import (
	"context"
	"time"

	"outreach-engine/internal/config"
	"outreach-engine/internal/domain"
)

// DiscoverRequest asks the discovery collaborator for ranked contacts,
// minus anyone already known to the campaign.
type DiscoverRequest struct {
	Company      string
	Role         string
	Hints        domain.Hints
	TargetCount  int
	ExcludeURLs  map[string]struct{} // normalized profile URLs (primary de-dup key)
	ExcludeNames map[string]struct{} // lowercased names (fallback key)
}

// DraftContext carries everything draft generation personalizes against.
type DraftContext struct {
	Company        string
	Role           string
	CompanyContext string
	Hints          domain.Hints
}

// Collaborators are the external capabilities each stage calls. They are
// plain function fields (injected from main, faked in tests) so the runner
// stays agnostic to who actually does the work. Every call is bounded by a
// runner timeout; an error or expiry is a stage failure, and any retrying
// belongs to the collaborator, not here.
type Collaborators struct {
	Discover    func(ctx context.Context, req DiscoverRequest) ([]domain.Contact, error)
	Resolve     func(ctx context.Context, company, websiteHint string, contacts []domain.Contact) ([]domain.EmailResolution, error)
	Research    func(ctx context.Context, company, role, websiteHint string) (string, error)
	Drafts      func(ctx context.Context, contacts []domain.Contact, resolutions map[string]domain.EmailResolution, dctx DraftContext) ([]domain.Draft, error)
	SingleDraft func(ctx context.Context, contact domain.Contact, res domain.EmailResolution, dctx DraftContext) (domain.Draft, error)
}

// Timeouts bound each collaborator call.
type Timeouts struct {
	Discover time.Duration
	Emails   time.Duration
	Research time.Duration
	Drafts   time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Discover: 2 * time.Minute,
		Emails:   2 * time.Minute,
		Research: 2 * time.Minute,
		Drafts:   3 * time.Minute,
	}
}

// TimeoutsFrom maps the configured per-stage seconds onto Timeouts, keeping
// the default for anything unset.
func TimeoutsFrom(cfg config.Config) Timeouts {
	t := DefaultTimeouts()
	if cfg.Pipeline.DiscoverSeconds > 0 {
		t.Discover = time.Duration(cfg.Pipeline.DiscoverSeconds) * time.Second
	}
	if cfg.Pipeline.EmailsSeconds > 0 {
		t.Emails = time.Duration(cfg.Pipeline.EmailsSeconds) * time.Second
	}
	if cfg.Pipeline.ResearchSeconds > 0 {
		t.Research = time.Duration(cfg.Pipeline.ResearchSeconds) * time.Second
	}
	if cfg.Pipeline.DraftsSeconds > 0 {
		t.Drafts = time.Duration(cfg.Pipeline.DraftsSeconds) * time.Second
	}
	return t
}
