package domain

import "time"

// Status is the pipeline state of a campaign. Transitions only move forward
// through the stage order below; failed is terminal and reachable from any
// non-terminal state. A completed campaign may re-enter at finding_people
// for a "more leads" run.
type Status string

const (
	StatusPending          Status = "pending"
	StatusFindingPeople    Status = "finding_people"
	StatusFindingEmails    Status = "finding_emails"
	StatusResearching      Status = "researching"
	StatusGeneratingEmails Status = "generating_emails"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Activity log entry types. The set is open: consumers must treat an
// unrecognized type as "status", never reject it.
const (
	LogStatus       = "status"
	LogPersonFound  = "person_found"
	LogEmailFound   = "email_found"
	LogEmailDrafted = "email_drafted"
	LogComplete     = "complete"
	LogError        = "error"
)

// Contact is one discovered person. Contacts are never edited after
// discovery; a re-discovery produces new entries. Name is the join key into
// EmailResults and EmailDrafts and is unique within a campaign.
type Contact struct {
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	Company        string  `json:"company"`
	LinkedInURL    string  `json:"linkedin_url"`
	PriorityScore  float64 `json:"priority_score"`
	PriorityReason string  `json:"priority_reason"`
	RecentActivity string  `json:"recent_activity"`
	ProfileSummary string  `json:"profile_summary"`
}

// EmailResolution is the outcome of email discovery for one contact.
// Written once; never mutated.
type EmailResolution struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Confidence        string   `json:"confidence"` // high | medium | low
	Source            string   `json:"source"`
	AlternativeEmails []string `json:"alternative_emails,omitempty"`
}

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Draft is a generated outreach email. Subject and body are the only fields
// mutable after creation, via the campaign's edit operation.
type Draft struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Subject              string `json:"subject"`
	Body                 string `json:"body"`
	Tone                 string `json:"tone"`
	PersonalizationNotes string `json:"personalization_notes"`
}

// LogEntry is one append-only activity record. Timestamps within a campaign
// are non-decreasing.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
}

// Hints are free-form pointers passed through to the collaborators.
type Hints struct {
	ResumeURL      string `json:"resume_url,omitempty"`
	LinkedInURL    string `json:"linkedin_url,omitempty"`
	CompanyWebsite string `json:"company_website,omitempty"`
	JobURL         string `json:"job_url,omitempty"`
}

// Campaign is the job record: one company+role outreach run and everything
// produced while processing it. The store owns all campaigns; callers work
// on snapshots (deep copies) and commit changes through store.Update.
type Campaign struct {
	JobID   string `json:"job_id"`
	Status  Status `json:"status"`
	Company string `json:"company"`
	Role    string `json:"role"`
	Hints   Hints  `json:"hints,omitzero"`

	People       []Contact                  `json:"people"`
	EmailResults map[string]EmailResolution `json:"email_results"`
	EmailDrafts  map[string]Draft           `json:"email_drafts"`
	ActivityLog  []LogEntry                 `json:"activity_log"`
	Error        string                     `json:"error,omitempty"`

	// Research context kept for on-demand draft generation. Not shown in
	// the UI but part of the persisted record.
	CompanyContext string `json:"company_context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCampaign(jobID, company, role string, hints Hints) *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		JobID:        jobID,
		Status:       StatusPending,
		Company:      company,
		Role:         role,
		Hints:        hints,
		People:       []Contact{},
		EmailResults: map[string]EmailResolution{},
		EmailDrafts:  map[string]Draft{},
		ActivityLog:  []LogEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AppendLog is the only mutator of the activity ledger. It clamps the
// timestamp so entries never go backwards even if the wall clock does.
func (c *Campaign) AppendLog(typ, message string) {
	ts := time.Now().UTC()
	if n := len(c.ActivityLog); n > 0 && ts.Before(c.ActivityLog[n-1].Timestamp) {
		ts = c.ActivityLog[n-1].Timestamp
	}
	c.ActivityLog = append(c.ActivityLog, LogEntry{Timestamp: ts, Message: message, Type: typ})
}

// AddContact appends a newly discovered contact. Returns false without
// mutating anything when the name is already taken (names are unique).
func (c *Campaign) AddContact(p Contact) bool {
	if c.HasContact(p.Name) {
		return false
	}
	c.People = append(c.People, p)
	return true
}

func (c *Campaign) HasContact(name string) bool {
	for _, p := range c.People {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (c *Campaign) Contact(name string) (Contact, bool) {
	for _, p := range c.People {
		if p.Name == name {
			return p, true
		}
	}
	return Contact{}, false
}

// SetEmailResult records a resolution for a known contact. Resolutions are
// write-once: a second resolution for the same name is ignored.
func (c *Campaign) SetEmailResult(r EmailResolution) bool {
	if !c.HasContact(r.Name) {
		return false
	}
	if _, dup := c.EmailResults[r.Name]; dup {
		return false
	}
	if c.EmailResults == nil {
		c.EmailResults = map[string]EmailResolution{}
	}
	c.EmailResults[r.Name] = r
	return true
}

// SetDraft stores a draft for a known contact, replacing any earlier one
// (on-demand regeneration overwrites).
func (c *Campaign) SetDraft(d Draft) bool {
	if !c.HasContact(d.Name) {
		return false
	}
	if c.EmailDrafts == nil {
		c.EmailDrafts = map[string]Draft{}
	}
	c.EmailDrafts[d.Name] = d
	return true
}

// Fail marks the campaign terminally failed. Results accumulated by earlier
// stages stay intact.
func (c *Campaign) Fail(msg string) {
	c.Status = StatusFailed
	c.Error = msg
	c.AppendLog(LogError, msg)
}

// Clone returns a deep copy. Stores hand out clones so no caller can reach
// into the authoritative record.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.People = append([]Contact(nil), c.People...)
	out.ActivityLog = append([]LogEntry(nil), c.ActivityLog...)
	out.EmailResults = make(map[string]EmailResolution, len(c.EmailResults))
	for k, v := range c.EmailResults {
		v.AlternativeEmails = append([]string(nil), v.AlternativeEmails...)
		out.EmailResults[k] = v
	}
	out.EmailDrafts = make(map[string]Draft, len(c.EmailDrafts))
	for k, v := range c.EmailDrafts {
		out.EmailDrafts[k] = v
	}
	return &out
}

// Summary is the history listing shape: enough to render a row, nothing more.
type Summary struct {
	JobID       string    `json:"job_id"`
	Company     string    `json:"company"`
	Role        string    `json:"role"`
	Status      Status    `json:"status"`
	PeopleCount int       `json:"people_count"`
	DraftsCount int       `json:"drafts_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Campaign) Summary() Summary {
	return Summary{
		JobID:       c.JobID,
		Company:     c.Company,
		Role:        c.Role,
		Status:      c.Status,
		PeopleCount: len(c.People),
		DraftsCount: len(c.EmailDrafts),
		CreatedAt:   c.CreatedAt,
	}
}
