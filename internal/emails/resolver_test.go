package emails

import (
	"context"
	"testing"

	"outreach-engine/internal/domain"
)

type fakeMX struct{ ok bool }

func (f fakeMX) HasMX(context.Context, string) bool { return f.ok }

func testResolver(mxOK bool) *Resolver {
	// nil limiter is fine: the hint short-circuits before any network call
	return NewResolver(NewDomainFinder(nil)).WithMXChecker(fakeMX{ok: mxOK})
}

func TestResolveEmailsPatterns(t *testing.T) {
	r := testResolver(true)

	got, err := r.ResolveEmails(context.Background(), "Acme", "https://www.acme.com",
		[]domain.Contact{{Name: "Jane Doe"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 resolution, got %d", len(got))
	}

	res := got[0]
	if res.Email != "jane.doe@acme.com" {
		t.Fatalf("primary = %q, want first.last", res.Email)
	}
	want := []string{"jdoe@acme.com", "jane@acme.com", "janedoe@acme.com"}
	if len(res.AlternativeEmails) != len(want) {
		t.Fatalf("alternatives = %v", res.AlternativeEmails)
	}
	for i, w := range want {
		if res.AlternativeEmails[i] != w {
			t.Fatalf("alternatives[%d] = %q, want %q", i, res.AlternativeEmails[i], w)
		}
	}
	if res.Confidence != domain.ConfidenceMedium || res.Source != "pattern-guess+mx" {
		t.Fatalf("confidence/source = %s/%s", res.Confidence, res.Source)
	}
}

func TestResolveEmailsNoMXLowersConfidence(t *testing.T) {
	r := testResolver(false)

	got, err := r.ResolveEmails(context.Background(), "Acme", "acme.com",
		[]domain.Contact{{Name: "Jane Doe"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got[0].Confidence != domain.ConfidenceLow || got[0].Source != "pattern-guess" {
		t.Fatalf("confidence/source = %s/%s", got[0].Confidence, got[0].Source)
	}
}

func TestResolveEmailsKnownCompanyHighConfidence(t *testing.T) {
	r := testResolver(true)

	// "Stripe" is in the known-domain table; no hint, no network needed.
	got, err := r.ResolveEmails(context.Background(), "Stripe", "",
		[]domain.Contact{{Name: "Jane Doe"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got[0].Email != "jane.doe@stripe.com" {
		t.Fatalf("email = %q", got[0].Email)
	}
	if got[0].Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence = %s, want high", got[0].Confidence)
	}
}

func TestResolveEmailsSkipsUnparseableNames(t *testing.T) {
	r := testResolver(true)

	got, err := r.ResolveEmails(context.Background(), "Acme", "acme.com",
		[]domain.Contact{{Name: "谢谢"}, {Name: "Jane Doe"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Jane Doe" {
		t.Fatalf("unparseable name should be skipped, got %+v", got)
	}
}

func TestResolveEmailsEmptyContacts(t *testing.T) {
	r := testResolver(true)
	got, err := r.ResolveEmails(context.Background(), "Acme", "acme.com", nil)
	if err != nil || got != nil {
		t.Fatalf("empty contacts should be a no-op, got %v err=%v", got, err)
	}
}

func TestSplitNameDropsCredentials(t *testing.T) {
	first, last := splitName("Jane A. Doe, PhD")
	if first != "jane" || last != "doe" {
		t.Fatalf("got (%q, %q)", first, last)
	}

	first, last = splitName("Prince")
	if first != "prince" || last != "" {
		t.Fatalf("got (%q, %q)", first, last)
	}
}

func TestHostFromHint(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.acme.com/about", "acme.com"},
		{"acme.com", "acme.com"},
		{"", ""},
	}
	for _, c := range cases {
		if got := hostFromHint(c.in); got != c.want {
			t.Fatalf("hostFromHint(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsBlockedDomain(t *testing.T) {
	if !isBlockedDomain("linkedin.com") || !isBlockedDomain("jobs.linkedin.com") {
		t.Fatalf("job boards must be blocked")
	}
	if isBlockedDomain("acme.com") {
		t.Fatalf("real company domain blocked")
	}
}
