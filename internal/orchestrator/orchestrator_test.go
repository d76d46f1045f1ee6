package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/events"
	"outreach-engine/internal/pipeline"
	"outreach-engine/internal/store"
)

// blockedCollaborators park the pipeline at the discover stage so tests can
// observe campaigns without racing it.
func blockedCollaborators(release chan struct{}) pipeline.Collaborators {
	return pipeline.Collaborators{
		Discover: func(ctx context.Context, _ pipeline.DiscoverRequest) ([]domain.Contact, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil, nil
		},
		Resolve: func(context.Context, string, string, []domain.Contact) ([]domain.EmailResolution, error) {
			return nil, nil
		},
		Research: func(context.Context, string, string, string) (string, error) { return "", nil },
		Drafts: func(context.Context, []domain.Contact, map[string]domain.EmailResolution, pipeline.DraftContext) ([]domain.Draft, error) {
			return nil, nil
		},
		SingleDraft: func(context.Context, domain.Contact, domain.EmailResolution, pipeline.DraftContext) (domain.Draft, error) {
			return domain.Draft{}, nil
		},
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, store.Store, chan struct{}) {
	t.Helper()
	st := store.NewMemory()
	release := make(chan struct{})
	runner := &pipeline.Runner{
		Store:  st,
		Hub:    events.NewHub(),
		Collab: blockedCollaborators(release),
		Timeouts: pipeline.Timeouts{
			Discover: time.Second, Emails: time.Second,
			Research: time.Second, Drafts: time.Second,
		},
		TargetContacts: 5,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() { close(release); cancel() })
	return New(ctx, st, runner), st, release
}

func TestCreateValidation(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	cases := []CreateRequest{
		{Company: "", Role: "Backend Engineer"},
		{Company: "Acme", Role: ""},
		{Company: "   ", Role: "   "},
	}
	for _, req := range cases {
		if _, err := o.Create(context.Background(), req); !errors.Is(err, ErrValidation) {
			t.Fatalf("Create(%+v) err = %v, want ErrValidation", req, err)
		}
	}
}

func TestCreateReturnsUsableIDImmediately(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	id, err := o.Create(ctx, CreateRequest{
		Company:        "  Acme  ",
		Role:           "Backend Engineer",
		CompanyWebsite: "acme.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatalf("empty job id")
	}

	got, err := o.Get(ctx, id)
	if err != nil {
		t.Fatalf("get right after create: %v", err)
	}
	if got.Company != "Acme" {
		t.Fatalf("company not trimmed: %q", got.Company)
	}
	if got.Hints.CompanyWebsite != "acme.com" {
		t.Fatalf("hints lost: %+v", got.Hints)
	}
}

func TestCreateDistinctIDs(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a, _ := o.Create(ctx, CreateRequest{Company: "Acme", Role: "X"})
	b, _ := o.Create(ctx, CreateRequest{Company: "Acme", Role: "X"})
	if a == b {
		t.Fatalf("two creates shared an id")
	}
}

func TestGetNotFound(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	if _, err := o.Get(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHistory(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	st.Create(ctx, domain.NewCampaign("j1", "Acme", "Backend Engineer", domain.Hints{}))

	got, err := o.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 || got[0].JobID != "j1" {
		t.Fatalf("history = %+v", got)
	}
}

func TestMoreLeadsConflict(t *testing.T) {
	o, st, _ := newTestOrchestrator(t)
	ctx := context.Background()

	c := domain.NewCampaign("j1", "Acme", "Backend Engineer", domain.Hints{})
	c.Status = domain.StatusFindingPeople
	st.Create(ctx, c)

	if err := o.MoreLeads(ctx, "j1"); !errors.Is(err, pipeline.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := o.MoreLeads(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDraftOpsRequireName(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	if _, err := o.GenerateDraft(ctx, "j1", "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := o.EditDraft(ctx, "j1", "", nil, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
