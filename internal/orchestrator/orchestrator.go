package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/pipeline"
	"outreach-engine/internal/store"
)

// ErrValidation: the request is malformed; no campaign was created.
var ErrValidation = errors.New("invalid request")

// CreateRequest is the boundary shape for starting a campaign.
type CreateRequest struct {
	Company        string `json:"company"`
	Role           string `json:"role"`
	ResumeURL      string `json:"resume_url,omitempty"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
	CompanyWebsite string `json:"company_website,omitempty"`
	JobURL         string `json:"job_url,omitempty"`
}

// Orchestrator creates campaigns and dispatches pipeline work. Each
// campaign's pipeline runs on its own goroutine under the orchestrator's
// base context, so request handlers return immediately and engine shutdown
// cancels in-flight stage calls.
type Orchestrator struct {
	store  store.Store
	runner *pipeline.Runner
	base   context.Context
}

func New(base context.Context, st store.Store, runner *pipeline.Runner) *Orchestrator {
	return &Orchestrator{store: st, runner: runner, base: base}
}

// Create validates, persists a pending campaign, and kicks off the pipeline.
// The returned id is usable for polling before the first stage even starts.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (string, error) {
	company := strings.TrimSpace(req.Company)
	role := strings.TrimSpace(req.Role)
	if company == "" || role == "" {
		return "", errors.Join(ErrValidation, errors.New("company and role are required"))
	}

	c := domain.NewCampaign(uuid.NewString(), company, role, domain.Hints{
		ResumeURL:      strings.TrimSpace(req.ResumeURL),
		LinkedInURL:    strings.TrimSpace(req.LinkedInURL),
		CompanyWebsite: strings.TrimSpace(req.CompanyWebsite),
		JobURL:         strings.TrimSpace(req.JobURL),
	})
	if err := o.store.Create(ctx, c); err != nil {
		return "", err
	}

	log.Printf("[orchestrator] created job=%s company=%q role=%q", c.JobID, company, role)
	go o.runner.Run(o.base, c.JobID)
	return c.JobID, nil
}

// Get returns the current snapshot, identical in shape and content to what
// the push channel delivers.
func (o *Orchestrator) Get(ctx context.Context, jobID string) (*domain.Campaign, error) {
	return o.store.Get(ctx, jobID)
}

// History lists summaries, most recent first.
func (o *Orchestrator) History(ctx context.Context) ([]domain.Summary, error) {
	return o.store.List(ctx)
}

// MoreLeads re-enters a completed campaign. The state check here answers the
// caller synchronously; the runner re-checks under the store's per-id lock,
// so a lost race surfaces as a no-op rather than a corrupted record.
func (o *Orchestrator) MoreLeads(ctx context.Context, jobID string) error {
	c, err := o.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if c.Status != domain.StatusCompleted {
		return pipeline.ErrConflict
	}

	log.Printf("[orchestrator] more leads job=%s", jobID)
	go o.runner.MoreLeads(o.base, jobID)
	return nil
}

// GenerateDraft produces one contact's draft synchronously.
func (o *Orchestrator) GenerateDraft(ctx context.Context, jobID, name string) (domain.Draft, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Draft{}, errors.Join(ErrValidation, errors.New("contact name is required"))
	}
	return o.runner.GenerateSingleDraft(ctx, jobID, name)
}

// EditDraft updates subject/body of an existing draft.
func (o *Orchestrator) EditDraft(ctx context.Context, jobID, name string, subject, body *string) (domain.Draft, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Draft{}, errors.Join(ErrValidation, errors.New("contact name is required"))
	}
	return o.runner.EditDraft(ctx, jobID, name, subject, body)
}
