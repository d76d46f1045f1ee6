package emails

import (
	"context"
	"fmt"
	"net"
	"strings"

	"outreach-engine/internal/domain"
)

// MXChecker reports whether a domain can receive mail. Swapped out in tests.
type MXChecker interface {
	HasMX(ctx context.Context, domain string) bool
}

type dnsMXChecker struct {
	resolver *net.Resolver
}

func (c dnsMXChecker) HasMX(ctx context.Context, domain string) bool {
	recs, err := c.resolver.LookupMX(ctx, domain)
	return err == nil && len(recs) > 0
}

// Resolver guesses addresses from the company's email domain and the usual
// corporate patterns, then checks that the domain actually receives mail.
// Contacts it cannot resolve are skipped, never failed.
type Resolver struct {
	domains *DomainFinder
	mx      MXChecker
}

func NewResolver(domains *DomainFinder) *Resolver {
	return &Resolver{
		domains: domains,
		mx:      dnsMXChecker{resolver: net.DefaultResolver},
	}
}

// WithMXChecker overrides MX verification, for tests.
func (r *Resolver) WithMXChecker(mx MXChecker) *Resolver {
	r.mx = mx
	return r
}

func (r *Resolver) ResolveEmails(ctx context.Context, company, websiteHint string, contacts []domain.Contact) ([]domain.EmailResolution, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	dom, err := r.domains.Find(ctx, company, websiteHint)
	if err != nil {
		return nil, fmt.Errorf("company domain lookup: %w", err)
	}
	if dom == "" {
		// no domain, no addresses: every contact is skipped
		return nil, nil
	}

	deliverable := r.mx.HasMX(ctx, dom)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.EmailResolution
	for _, c := range contacts {
		candidates := candidateAddresses(c.Name, dom)
		if len(candidates) == 0 {
			continue
		}

		confidence := domain.ConfidenceLow
		source := "pattern-guess"
		if deliverable {
			confidence = domain.ConfidenceMedium
			source = "pattern-guess+mx"
		}
		if _, ok := knownDomains[strings.ToLower(strings.ReplaceAll(company, " ", ""))]; ok && deliverable {
			confidence = domain.ConfidenceHigh
		}

		out = append(out, domain.EmailResolution{
			Name:              c.Name,
			Email:             candidates[0],
			Confidence:        confidence,
			Source:            source,
			AlternativeEmails: candidates[1:],
		})
	}
	return out, nil
}

// candidateAddresses generates the common corporate patterns, most likely
// first: first.last, flast, first, firstlast.
func candidateAddresses(fullName, dom string) []string {
	first, last := splitName(fullName)
	if first == "" {
		return nil
	}
	if last == "" {
		return []string{first + "@" + dom}
	}
	return []string{
		first + "." + last + "@" + dom,
		string(first[0]) + last + "@" + dom,
		first + "@" + dom,
		first + last + "@" + dom,
	}
}

func splitName(full string) (first, last string) {
	clean := make([]string, 0, 2)
	for _, part := range strings.Fields(strings.ToLower(full)) {
		part = strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r
			}
			return -1
		}, part)
		if part == "" {
			continue
		}
		// drop credentials people append to their names ("jane doe, phd")
		switch part {
		case "phd", "mba", "md", "jr", "sr", "ii", "iii":
			continue
		}
		clean = append(clean, part)
	}
	if len(clean) == 0 {
		return "", ""
	}
	first = clean[0]
	if len(clean) > 1 {
		last = clean[len(clean)-1]
	}
	return first, last
}
