package discover

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/rank"
	"outreach-engine/internal/webutil"
)

// Request is one discovery call: find people worth contacting at a company
// for a role, minus anyone already known.
type Request struct {
	Company      string
	Role         string
	Hints        domain.Hints
	TargetCount  int
	ExcludeURLs  map[string]struct{} // normalized LinkedIn URLs
	ExcludeNames map[string]struct{} // lowercased names
}

// Finder locates LinkedIn profiles through DuckDuckGo's HTML endpoint and
// ranks them with the configured priority rules. One search per persona
// (recruiter, team member), fanned out concurrently.
type Finder struct {
	hc      *http.Client
	limiter *webutil.HostLimiter
	scorer  rank.Scorer
}

func NewFinder(limiter *webutil.HostLimiter, scorer rank.Scorer) *Finder {
	return &Finder{
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		scorer:  scorer,
	}
}

func (f *Finder) DiscoverContacts(ctx context.Context, req Request) ([]domain.Contact, error) {
	queries := []string{
		fmt.Sprintf(`site:linkedin.com/in "at %s" "%s"`, req.Company, req.Role),
		fmt.Sprintf(`site:linkedin.com/in "at %s" recruiter OR "talent acquisition"`, req.Company),
	}

	var (
		mu    sync.Mutex
		found []domain.Contact
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		q := q
		g.Go(func() error {
			people, err := f.searchOnce(gctx, q)
			if err != nil {
				// best-effort: one failed query must not sink the other
				log.Printf("[discover] query failed q=%q err=%v", q, err)
				return nil
			}
			mu.Lock()
			found = append(found, people...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := dedupe(found, req.ExcludeURLs, req.ExcludeNames)

	for i := range merged {
		merged[i].Company = req.Company
		score, reason := f.scorer.Score(merged[i], req.Role)
		merged[i].PriorityScore = score
		merged[i].PriorityReason = reason
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PriorityScore > merged[j].PriorityScore
	})

	if req.TargetCount > 0 && len(merged) > req.TargetCount {
		merged = merged[:req.TargetCount]
	}
	return merged, nil
}

func (f *Finder) searchOnce(ctx context.Context, query string) ([]domain.Contact, error) {
	u := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)

	if err := f.limiter.WaitURL(ctx, u); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	return ParseSearchResults(resp.Body)
}

// ParseSearchResults extracts LinkedIn profiles from a DuckDuckGo HTML
// result page. Result titles usually read "Name - Title - Company | LinkedIn";
// the snippet under each result rides along as recent activity context.
func ParseSearchResults(r io.Reader) ([]domain.Contact, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse results html: %w", err)
	}

	var out []domain.Contact
	doc.Find(".result").Each(func(_ int, res *goquery.Selection) {
		a := res.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}

		target := webutil.DecodeDDGRedirect(strings.TrimSpace(href))
		host := strings.ToLower(strings.TrimPrefix(webutil.HostFromURL(target), "www."))
		if !strings.HasSuffix(host, "linkedin.com") || !strings.Contains(target, "/in/") {
			return
		}

		name, title := splitResultTitle(a.Text())
		if name == "" {
			return
		}

		snippet := cleanText(res.Find(".result__snippet").First().Text())

		out = append(out, domain.Contact{
			Name:           name,
			Title:          title,
			LinkedInURL:    target,
			RecentActivity: snippet,
		})
	})
	return out, nil
}

// splitResultTitle breaks "Jane Doe - Engineering Manager - Acme | LinkedIn"
// into name and title.
func splitResultTitle(raw string) (name, title string) {
	raw = cleanText(raw)
	raw = strings.TrimSuffix(raw, "| LinkedIn")
	raw = strings.TrimSpace(raw)

	parts := strings.Split(raw, " - ")
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return "", ""
	}
	name = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		title = strings.TrimSpace(strings.Join(parts[1:], " - "))
		// drop a trailing "- Company" segment when present
		if i := strings.LastIndex(title, " - "); i > 0 {
			title = strings.TrimSpace(title[:i])
		}
	}
	return name, title
}

func dedupe(in []domain.Contact, excludeURLs, excludeNames map[string]struct{}) []domain.Contact {
	seenURL := map[string]bool{}
	seenName := map[string]bool{}

	var out []domain.Contact
	for _, p := range in {
		key := webutil.NormalizeLinkedInURL(p.LinkedInURL)
		nameKey := strings.ToLower(strings.TrimSpace(p.Name))

		if key != "" {
			if _, excluded := excludeURLs[key]; excluded {
				continue
			}
			if seenURL[key] {
				continue
			}
		}
		if _, excluded := excludeNames[nameKey]; excluded {
			continue
		}
		if seenName[nameKey] {
			continue
		}

		if key != "" {
			seenURL[key] = true
		}
		seenName[nameKey] = true
		out = append(out, p)
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
