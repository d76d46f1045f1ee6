package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"outreach-engine/internal/ai"
	"outreach-engine/internal/domain"
)

const defaultTone = "warm-professional"

// Context is everything the writer personalizes against.
type Context struct {
	Company        string
	Role           string
	CompanyContext string
	Hints          domain.Hints
}

// Writer turns resolved contacts into personalized drafts. With a text
// generator configured it prompts for a JSON draft per contact; without one
// it falls back to a deterministic template so the pipeline still completes.
type Writer struct {
	gen ai.TextGenerator
}

func NewWriter(gen ai.TextGenerator) *Writer {
	return &Writer{gen: gen}
}

// GenerateDrafts writes one draft per resolved contact. A single contact's
// generation error skips that contact; only a context cancellation aborts
// the batch.
func (w *Writer) GenerateDrafts(ctx context.Context, contacts []domain.Contact, resolutions map[string]domain.EmailResolution, dctx Context) ([]domain.Draft, error) {
	var out []domain.Draft
	for _, c := range contacts {
		res, ok := resolutions[c.Name]
		if !ok || res.Email == "" {
			continue
		}
		d, err := w.GenerateSingleDraft(ctx, c, res, dctx)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (w *Writer) GenerateSingleDraft(ctx context.Context, contact domain.Contact, res domain.EmailResolution, dctx Context) (domain.Draft, error) {
	if res.Email == "" {
		return domain.Draft{}, fmt.Errorf("contact %q has no resolved email", contact.Name)
	}

	if w.gen == nil || !w.gen.Available() {
		return templateDraft(contact, res, dctx), nil
	}

	raw, err := w.gen.Generate(ctx, ai.GenerateRequest{
		Instructions: "You write short, specific cold outreach emails for job seekers. " +
			"Under 150 words, no flattery padding, one concrete ask.",
		Input:       buildPrompt(contact, dctx),
		Temperature: 0.7,
		JSONObject:  true,
	})
	if err != nil {
		return domain.Draft{}, fmt.Errorf("generate draft for %q: %w", contact.Name, err)
	}

	var decoded struct {
		Subject              string `json:"subject"`
		Body                 string `json:"body"`
		Tone                 string `json:"tone"`
		PersonalizationNotes string `json:"personalization_notes"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return domain.Draft{}, fmt.Errorf("decode draft for %q: %w", contact.Name, err)
	}
	if strings.TrimSpace(decoded.Subject) == "" || strings.TrimSpace(decoded.Body) == "" {
		return domain.Draft{}, fmt.Errorf("draft for %q missing subject or body", contact.Name)
	}
	tone := decoded.Tone
	if tone == "" {
		tone = defaultTone
	}

	return domain.Draft{
		Name:                 contact.Name,
		Email:                res.Email,
		Subject:              decoded.Subject,
		Body:                 decoded.Body,
		Tone:                 tone,
		PersonalizationNotes: decoded.PersonalizationNotes,
	}, nil
}

func buildPrompt(contact domain.Contact, dctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an outreach email.\n")
	fmt.Fprintf(&b, "To: %s, %s at %s\n", contact.Name, contact.Title, dctx.Company)
	fmt.Fprintf(&b, "From: a candidate applying for %s at %s\n", dctx.Role, dctx.Company)
	if contact.RecentActivity != "" {
		fmt.Fprintf(&b, "Their recent activity: %s\n", contact.RecentActivity)
	}
	if dctx.CompanyContext != "" {
		fmt.Fprintf(&b, "Company research:\n%s\n", dctx.CompanyContext)
	}
	if dctx.Hints.ResumeURL != "" {
		fmt.Fprintf(&b, "Candidate resume: %s\n", dctx.Hints.ResumeURL)
	}
	if dctx.Hints.LinkedInURL != "" {
		fmt.Fprintf(&b, "Candidate LinkedIn: %s\n", dctx.Hints.LinkedInURL)
	}
	b.WriteString(`Return JSON: {"subject": "...", "body": "...", "tone": "...", "personalization_notes": "what was personalized and why"}`)
	return b.String()
}

// templateDraft is the no-credentials fallback. Plain but serviceable, and
// fully deterministic for tests.
func templateDraft(contact domain.Contact, res domain.EmailResolution, dctx Context) domain.Draft {
	firstName := contact.Name
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}

	subject := fmt.Sprintf("Interest in %s at %s", dctx.Role, dctx.Company)
	body := fmt.Sprintf(
		"Hi %s,\n\nI came across your profile while researching %s and wanted to reach out directly. "+
			"I'm applying for the %s role and would value a few minutes of your perspective on the team.\n\n"+
			"Would you be open to a short chat this week?\n\nThank you,\n",
		firstName, dctx.Company, dctx.Role)

	return domain.Draft{
		Name:                 contact.Name,
		Email:                res.Email,
		Subject:              subject,
		Body:                 body,
		Tone:                 defaultTone,
		PersonalizationNotes: "template draft: no text generator configured",
	}
}
