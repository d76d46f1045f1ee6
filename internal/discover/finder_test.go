package discover

import (
	"strings"
	"testing"

	"outreach-engine/internal/domain"
)

const resultsPage = `
<html><body>
<div class="results">
  <div class="result">
    <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fin%2Fjanedoe">Jane Doe - Senior Technical Recruiter - Acme | LinkedIn</a></h2>
    <a class="result__snippet">Hiring backend engineers for our platform team.</a>
  </div>
  <div class="result">
    <h2><a class="result__a" href="https://www.linkedin.com/in/johnroe">John Roe - Engineering Manager - Acme | LinkedIn</a></h2>
    <a class="result__snippet">Leading the payments group at Acme.</a>
  </div>
  <div class="result">
    <h2><a class="result__a" href="https://www.linkedin.com/company/acme">Acme | LinkedIn</a></h2>
  </div>
  <div class="result">
    <h2><a class="result__a" href="https://example.com/blog">Some unrelated blog post</a></h2>
  </div>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	got, err := ParseSearchResults(strings.NewReader(resultsPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 profiles, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.Name != "Jane Doe" {
		t.Fatalf("name = %q", first.Name)
	}
	if first.Title != "Senior Technical Recruiter" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.LinkedInURL != "https://www.linkedin.com/in/janedoe" {
		t.Fatalf("redirect not decoded: %q", first.LinkedInURL)
	}
	if !strings.Contains(first.RecentActivity, "backend engineers") {
		t.Fatalf("snippet lost: %q", first.RecentActivity)
	}

	if got[1].Name != "John Roe" || got[1].Title != "Engineering Manager" {
		t.Fatalf("second profile wrong: %+v", got[1])
	}
}

func TestSplitResultTitle(t *testing.T) {
	cases := []struct {
		in, name, title string
	}{
		{"Jane Doe - Engineering Manager - Acme | LinkedIn", "Jane Doe", "Engineering Manager"},
		{"Jane Doe - Recruiter | LinkedIn", "Jane Doe", "Recruiter"},
		{"Jane Doe | LinkedIn", "Jane Doe", ""},
		{"  ", "", ""},
	}
	for _, c := range cases {
		name, title := splitResultTitle(c.in)
		if name != c.name || title != c.title {
			t.Fatalf("splitResultTitle(%q) = (%q, %q), want (%q, %q)", c.in, name, title, c.name, c.title)
		}
	}
}

func TestDedupe(t *testing.T) {
	in := []domain.Contact{
		{Name: "Jane Doe", LinkedInURL: "https://www.linkedin.com/in/janedoe"},
		{Name: "Jane Doe", LinkedInURL: "https://linkedin.com/in/janedoe/"}, // same profile, different spelling
		{Name: "jane doe", LinkedInURL: ""},                                 // name fallback
		{Name: "John Roe", LinkedInURL: "https://linkedin.com/in/johnroe"},
		{Name: "Kim Lee", LinkedInURL: "https://linkedin.com/in/kimlee"},
	}
	exclURLs := map[string]struct{}{"linkedin.com/in/kimlee": {}}
	exclNames := map[string]struct{}{"john roe": {}}

	got := dedupe(in, exclURLs, exclNames)
	if len(got) != 1 {
		t.Fatalf("expected 1 contact after de-dup and exclusion, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Jane Doe" {
		t.Fatalf("wrong survivor: %+v", got[0])
	}
}

func TestDedupeKeepsDistinctProfilesWithSameName(t *testing.T) {
	// Two different people can share a name; distinct profile URLs keep both
	// only when the name also differs, otherwise the name key collapses them.
	in := []domain.Contact{
		{Name: "Jane Doe", LinkedInURL: "https://linkedin.com/in/janedoe1"},
		{Name: "Jane Doe", LinkedInURL: "https://linkedin.com/in/janedoe2"},
	}
	got := dedupe(in, nil, nil)
	if len(got) != 1 {
		t.Fatalf("name key should collapse same-name profiles, got %d", len(got))
	}
}
