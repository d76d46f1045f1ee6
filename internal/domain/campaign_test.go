package domain

import (
	"testing"
	"time"
)

func TestAddContactUniqueNames(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})

	if !c.AddContact(Contact{Name: "Jane Doe", Title: "Recruiter"}) {
		t.Fatalf("first add should succeed")
	}
	if c.AddContact(Contact{Name: "Jane Doe", Title: "Engineering Manager"}) {
		t.Fatalf("duplicate name should be rejected")
	}
	if len(c.People) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(c.People))
	}
	got, ok := c.Contact("Jane Doe")
	if !ok || got.Title != "Recruiter" {
		t.Fatalf("original contact must survive the duplicate add, got %+v", got)
	}
}

func TestSetEmailResultWriteOnce(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})
	c.AddContact(Contact{Name: "Jane Doe"})

	if !c.SetEmailResult(EmailResolution{Name: "Jane Doe", Email: "jane.doe@acme.com", Confidence: ConfidenceMedium}) {
		t.Fatalf("first resolution should be accepted")
	}
	if c.SetEmailResult(EmailResolution{Name: "Jane Doe", Email: "other@acme.com"}) {
		t.Fatalf("second resolution for the same name should be ignored")
	}
	if got := c.EmailResults["Jane Doe"].Email; got != "jane.doe@acme.com" {
		t.Fatalf("resolution overwritten: %s", got)
	}
	if c.SetEmailResult(EmailResolution{Name: "Nobody", Email: "x@acme.com"}) {
		t.Fatalf("resolution for an unknown contact should be rejected")
	}
}

func TestSetDraftReplacesAndRequiresContact(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})
	c.AddContact(Contact{Name: "Jane Doe"})

	if !c.SetDraft(Draft{Name: "Jane Doe", Subject: "v1"}) {
		t.Fatalf("draft for known contact should be stored")
	}
	if !c.SetDraft(Draft{Name: "Jane Doe", Subject: "v2"}) {
		t.Fatalf("regeneration should replace the draft")
	}
	if got := c.EmailDrafts["Jane Doe"].Subject; got != "v2" {
		t.Fatalf("expected replaced draft, got subject %q", got)
	}
	if c.SetDraft(Draft{Name: "Nobody"}) {
		t.Fatalf("draft for unknown contact should be rejected")
	}
}

func TestAppendLogTimestampsNeverGoBackwards(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})

	// Seed a future entry and confirm the next one gets clamped to it.
	future := time.Now().UTC().Add(time.Hour)
	c.ActivityLog = append(c.ActivityLog, LogEntry{Timestamp: future, Message: "seed", Type: LogStatus})
	c.AppendLog(LogStatus, "after")

	if len(c.ActivityLog) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(c.ActivityLog))
	}
	if c.ActivityLog[1].Timestamp.Before(c.ActivityLog[0].Timestamp) {
		t.Fatalf("timestamps went backwards: %v then %v",
			c.ActivityLog[0].Timestamp, c.ActivityLog[1].Timestamp)
	}
}

func TestFailKeepsEarlierResults(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})
	c.AddContact(Contact{Name: "Jane Doe"})
	c.SetEmailResult(EmailResolution{Name: "Jane Doe", Email: "jane@acme.com"})

	c.Fail("Error researching company: boom")

	if c.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", c.Status)
	}
	if c.Error == "" {
		t.Fatalf("error message not recorded")
	}
	if len(c.People) != 1 || len(c.EmailResults) != 1 {
		t.Fatalf("earlier stage results must survive a failure")
	}
	last := c.ActivityLog[len(c.ActivityLog)-1]
	if last.Type != LogError {
		t.Fatalf("last log entry type = %s, want error", last.Type)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusFindingPeople, StatusFindingEmails, StatusResearching, StatusGeneratingEmails} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})
	c.AddContact(Contact{Name: "Jane Doe", Title: "Recruiter"})
	c.SetEmailResult(EmailResolution{Name: "Jane Doe", Email: "jane@acme.com", AlternativeEmails: []string{"jdoe@acme.com"}})
	c.SetDraft(Draft{Name: "Jane Doe", Subject: "hello"})
	c.AppendLog(LogStatus, "one")

	clone := c.Clone()
	clone.People[0].Title = "Changed"
	clone.EmailResults["Jane Doe"] = EmailResolution{Name: "Jane Doe", Email: "evil@acme.com"}
	res := clone.EmailResults["Jane Doe"]
	res.AlternativeEmails = append(res.AlternativeEmails, "extra@acme.com")
	clone.EmailDrafts["Jane Doe"] = Draft{Name: "Jane Doe", Subject: "changed"}
	clone.AppendLog(LogStatus, "two")

	if c.People[0].Title != "Recruiter" {
		t.Fatalf("clone mutation leaked into People")
	}
	if c.EmailResults["Jane Doe"].Email != "jane@acme.com" {
		t.Fatalf("clone mutation leaked into EmailResults")
	}
	if len(c.EmailResults["Jane Doe"].AlternativeEmails) != 1 {
		t.Fatalf("clone mutation leaked into AlternativeEmails")
	}
	if c.EmailDrafts["Jane Doe"].Subject != "hello" {
		t.Fatalf("clone mutation leaked into EmailDrafts")
	}
	if len(c.ActivityLog) != 1 {
		t.Fatalf("clone mutation leaked into ActivityLog")
	}
}

func TestSummaryCounts(t *testing.T) {
	c := NewCampaign("j1", "Acme", "Backend Engineer", Hints{})
	c.AddContact(Contact{Name: "Jane Doe"})
	c.AddContact(Contact{Name: "John Roe"})
	c.SetDraft(Draft{Name: "Jane Doe"})

	s := c.Summary()
	if s.JobID != "j1" || s.Company != "Acme" || s.Role != "Backend Engineer" {
		t.Fatalf("summary identity fields wrong: %+v", s)
	}
	if s.PeopleCount != 2 || s.DraftsCount != 1 {
		t.Fatalf("summary counts wrong: %+v", s)
	}
}
