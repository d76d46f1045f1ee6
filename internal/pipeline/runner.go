package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"outreach-engine/internal/config"
	"outreach-engine/internal/domain"
	"outreach-engine/internal/events"
	"outreach-engine/internal/store"
	"outreach-engine/internal/webutil"
)

var (
	// ErrConflict: the operation needs the campaign in a different state.
	ErrConflict = errors.New("campaign is not in the required state")
	// ErrContactNotFound: the named contact is not in the campaign.
	ErrContactNotFound = errors.New("contact not found")
	// ErrNoDraft: edit requested for a contact that has no draft.
	ErrNoDraft = errors.New("no draft exists for this contact")
	// ErrNoResolvedEmail: draft requested for a contact without an address.
	ErrNoResolvedEmail = errors.New("no resolved email for this contact")
)

// Runner drives a campaign through its stages. All writes to a campaign go
// through commit(), which funnels them into the store's per-id serialized
// Update and pushes the fresh snapshot to the hub. The runner holds no
// campaign state of its own between calls.
type Runner struct {
	Store  store.Store
	Hub    *events.Hub
	Collab Collaborators

	// Cfg holds the live config.Config (the same atomic.Value the config API
	// stores into). It is loaded once at the start of every run, so timeout
	// and target edits apply to the next campaign without a restart. When Cfg
	// is nil or empty the static fields below are used instead.
	Cfg            *atomic.Value
	Timeouts       Timeouts
	TargetContacts int
}

// settings reads the current run parameters, preferring the live config.
func (r *Runner) settings() (Timeouts, int) {
	timeouts, target := r.Timeouts, r.TargetContacts
	if r.Cfg == nil {
		return timeouts, target
	}
	cfgAny := r.Cfg.Load()
	if cfgAny == nil {
		return timeouts, target
	}
	cfg := cfgAny.(config.Config)
	if cfg.Pipeline.TargetContacts > 0 {
		target = cfg.Pipeline.TargetContacts
	}
	return TimeoutsFrom(cfg), target
}

func (r *Runner) commit(ctx context.Context, jobID string, mutate func(*domain.Campaign) error) (*domain.Campaign, error) {
	c, err := r.Store.Update(ctx, jobID, mutate)
	if err != nil {
		return nil, err
	}
	r.Hub.Publish(jobID, events.Snapshot(c))
	return c, nil
}

// Run executes the full pipeline for a freshly created campaign. It is
// called on its own goroutine; failures land on the record, never on the
// caller that created the job.
func (r *Runner) Run(ctx context.Context, jobID string) {
	c, err := r.commit(ctx, jobID, func(c *domain.Campaign) error {
		if c.Status != domain.StatusPending {
			return fmt.Errorf("%w: expected pending, found %s", ErrConflict, c.Status)
		}
		c.Status = domain.StatusFindingPeople
		c.AppendLog(domain.LogStatus, fmt.Sprintf("Searching for contacts at %s...", c.Company))
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] start aborted job=%s err=%v", jobID, err)
		return
	}

	company, role, hints := c.Company, c.Role, c.Hints
	timeouts, target := r.settings()

	// ---- finding_people ----
	people, err := r.discover(ctx, timeouts.Discover, DiscoverRequest{
		Company:     company,
		Role:        role,
		Hints:       hints,
		TargetCount: target,
	})
	if err != nil {
		r.fail(ctx, jobID, "Error finding people: "+err.Error())
		return
	}

	c, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		for _, p := range people {
			if c.AddContact(p) {
				c.AppendLog(domain.LogPersonFound, fmt.Sprintf("Found %s - %s", p.Name, p.Title))
			}
		}
		c.Status = domain.StatusFindingEmails
		c.AppendLog(domain.LogStatus, fmt.Sprintf("Discovering emails for %d contacts...", len(c.People)))
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
		return
	}

	// ---- finding_emails ----
	resolutions, err := r.resolve(ctx, timeouts.Emails, company, hints.CompanyWebsite, c.People)
	if err != nil {
		r.fail(ctx, jobID, "Error finding emails: "+err.Error())
		return
	}

	c, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		found := 0
		for _, res := range resolutions {
			if c.SetEmailResult(res) {
				c.AppendLog(domain.LogEmailFound, fmt.Sprintf("Found email for %s (%s confidence)", res.Name, res.Confidence))
				found++
			}
		}
		c.Status = domain.StatusResearching
		c.AppendLog(domain.LogStatus, fmt.Sprintf("Found emails for %d/%d contacts. Researching %s...", found, len(c.People), c.Company))
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
		return
	}

	// ---- researching ----
	companyContext, err := r.research(ctx, timeouts.Research, company, role, hints.CompanyWebsite)
	if err != nil {
		r.fail(ctx, jobID, "Error researching company: "+err.Error())
		return
	}

	c, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		c.CompanyContext = companyContext
		c.Status = domain.StatusGeneratingEmails
		c.AppendLog(domain.LogStatus, "Company research complete. Drafting emails...")
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
		return
	}

	// ---- generating_emails ----
	drafts, err := r.drafts(ctx, timeouts.Drafts, c.People, c.EmailResults, DraftContext{
		Company:        company,
		Role:           role,
		CompanyContext: companyContext,
		Hints:          hints,
	})
	if err != nil {
		r.fail(ctx, jobID, "Error generating emails: "+err.Error())
		return
	}

	_, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		for _, d := range drafts {
			if c.SetDraft(d) {
				c.AppendLog(domain.LogEmailDrafted, fmt.Sprintf("Drafted email for %s", d.Name))
			}
		}
		c.Status = domain.StatusCompleted
		c.AppendLog(domain.LogComplete, "Campaign complete. Review the drafts when ready.")
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
		return
	}

	log.Printf("[pipeline] complete job=%s people=%d emails=%d drafts=%d",
		jobID, len(c.People), len(resolutions), len(drafts))
}

// MoreLeads re-enters a completed campaign through the bounded sub-pipeline
// finding_people -> finding_emails -> completed, excluding every contact
// already on the record. New contacts get no drafts automatically.
func (r *Runner) MoreLeads(ctx context.Context, jobID string) {
	c, err := r.commit(ctx, jobID, func(c *domain.Campaign) error {
		if c.Status != domain.StatusCompleted {
			return fmt.Errorf("%w: more leads needs a completed campaign, found %s", ErrConflict, c.Status)
		}
		c.Status = domain.StatusFindingPeople
		c.AppendLog(domain.LogStatus, "Finding more contacts (excluding existing)...")
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] more-leads aborted job=%s err=%v", jobID, err)
		return
	}

	excludeURLs := make(map[string]struct{}, len(c.People))
	excludeNames := make(map[string]struct{}, len(c.People))
	for _, p := range c.People {
		if key := webutil.NormalizeLinkedInURL(p.LinkedInURL); key != "" {
			excludeURLs[key] = struct{}{}
		}
		excludeNames[strings.ToLower(strings.TrimSpace(p.Name))] = struct{}{}
	}

	timeouts, target := r.settings()
	people, err := r.discover(ctx, timeouts.Discover, DiscoverRequest{
		Company:      c.Company,
		Role:         c.Role,
		Hints:        c.Hints,
		TargetCount:  target,
		ExcludeURLs:  excludeURLs,
		ExcludeNames: excludeNames,
	})
	if err != nil {
		r.fail(ctx, jobID, "Error finding more people: "+err.Error())
		return
	}

	if len(people) == 0 {
		_, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
			c.Status = domain.StatusCompleted
			c.AppendLog(domain.LogStatus, "No new contacts found for this campaign.")
			return nil
		})
		if err != nil {
			log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
		}
		return
	}

	c, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		added := 0
		for _, p := range people {
			if c.AddContact(p) {
				c.AppendLog(domain.LogPersonFound, fmt.Sprintf("Found %s - %s", p.Name, p.Title))
				added++
			}
		}
		c.Status = domain.StatusFindingEmails
		c.AppendLog(domain.LogStatus, fmt.Sprintf("Discovering emails for %d new contacts...", added))
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
		return
	}

	resolutions, err := r.resolve(ctx, timeouts.Emails, c.Company, c.Hints.CompanyWebsite, people)
	if err != nil {
		r.fail(ctx, jobID, "Error finding emails for new contacts: "+err.Error())
		return
	}

	_, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		found := 0
		for _, res := range resolutions {
			if c.SetEmailResult(res) {
				c.AppendLog(domain.LogEmailFound, fmt.Sprintf("Found email for %s (%s confidence)", res.Name, res.Confidence))
				found++
			}
		}
		c.Status = domain.StatusCompleted
		c.AppendLog(domain.LogComplete, fmt.Sprintf("Added %d contacts (%d with emails).", len(people), found))
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] commit failed job=%s err=%v", jobID, err)
	}
}

// GenerateSingleDraft writes (or rewrites) one contact's draft on demand.
// It refuses to race a pipeline run that is currently in the drafting stage;
// any other state, including failed, is fair game as long as the contact has
// a resolved address.
func (r *Runner) GenerateSingleDraft(ctx context.Context, jobID, name string) (domain.Draft, error) {
	c, err := r.Store.Get(ctx, jobID)
	if err != nil {
		return domain.Draft{}, err
	}
	if c.Status == domain.StatusGeneratingEmails {
		return domain.Draft{}, fmt.Errorf("%w: campaign is generating emails right now", ErrConflict)
	}
	contact, ok := c.Contact(name)
	if !ok {
		return domain.Draft{}, ErrContactNotFound
	}
	res, ok := c.EmailResults[name]
	if !ok || res.Email == "" {
		return domain.Draft{}, ErrNoResolvedEmail
	}

	timeouts, _ := r.settings()
	dctx, cancel := context.WithTimeout(ctx, timeouts.Drafts)
	defer cancel()
	draft, err := r.Collab.SingleDraft(dctx, contact, res, DraftContext{
		Company:        c.Company,
		Role:           c.Role,
		CompanyContext: c.CompanyContext,
		Hints:          c.Hints,
	})
	if err != nil {
		return domain.Draft{}, fmt.Errorf("generate draft: %w", err)
	}

	// Re-validate inside the serialized update: the campaign may have moved
	// while we were talking to the generator.
	_, err = r.commit(ctx, jobID, func(c *domain.Campaign) error {
		if c.Status == domain.StatusGeneratingEmails {
			return fmt.Errorf("%w: campaign is generating emails right now", ErrConflict)
		}
		if !c.SetDraft(draft) {
			return ErrContactNotFound
		}
		c.AppendLog(domain.LogEmailDrafted, fmt.Sprintf("Drafted email for %s", draft.Name))
		return nil
	})
	if err != nil {
		return domain.Draft{}, err
	}
	return draft, nil
}

// EditDraft updates subject and/or body of an existing draft. Nil fields
// leave the current value alone.
func (r *Runner) EditDraft(ctx context.Context, jobID, name string, subject, body *string) (domain.Draft, error) {
	var out domain.Draft
	_, err := r.commit(ctx, jobID, func(c *domain.Campaign) error {
		d, ok := c.EmailDrafts[name]
		if !ok {
			return ErrNoDraft
		}
		if subject != nil {
			d.Subject = *subject
		}
		if body != nil {
			d.Body = *body
		}
		c.EmailDrafts[name] = d
		out = d
		return nil
	})
	if err != nil {
		return domain.Draft{}, err
	}
	return out, nil
}

func (r *Runner) fail(ctx context.Context, jobID, msg string) {
	_, err := r.commit(ctx, jobID, func(c *domain.Campaign) error {
		if c.Status.Terminal() {
			return fmt.Errorf("%w: already %s", ErrConflict, c.Status)
		}
		c.Fail(msg)
		return nil
	})
	if err != nil {
		log.Printf("[pipeline] fail commit job=%s err=%v", jobID, err)
		return
	}
	log.Printf("[pipeline] failed job=%s msg=%q", jobID, msg)
}

func (r *Runner) discover(ctx context.Context, timeout time.Duration, req DiscoverRequest) ([]domain.Contact, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Collab.Discover(sctx, req)
}

func (r *Runner) resolve(ctx context.Context, timeout time.Duration, company, website string, contacts []domain.Contact) ([]domain.EmailResolution, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Collab.Resolve(sctx, company, website, contacts)
}

func (r *Runner) research(ctx context.Context, timeout time.Duration, company, role, website string) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Collab.Research(sctx, company, role, website)
}

func (r *Runner) drafts(ctx context.Context, timeout time.Duration, contacts []domain.Contact, resolutions map[string]domain.EmailResolution, dctx DraftContext) ([]domain.Draft, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Collab.Drafts(sctx, contacts, resolutions, dctx)
}
