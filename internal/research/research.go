package research

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"outreach-engine/internal/ai"
	"outreach-engine/internal/emails"
	"outreach-engine/internal/webutil"
)

const (
	perPageCap  = 3000
	summaryCap  = 6000
	rawFallback = 1500
)

// Researcher assembles company context for draft personalization: it scrapes
// the usual public pages and condenses them with the text generator when one
// is configured, otherwise ships trimmed raw text.
type Researcher struct {
	hc      *http.Client
	limiter *webutil.HostLimiter
	domains *emails.DomainFinder
	gen     ai.TextGenerator
}

func NewResearcher(limiter *webutil.HostLimiter, domains *emails.DomainFinder, gen ai.TextGenerator) *Researcher {
	return &Researcher{
		hc:      &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
		domains: domains,
		gen:     gen,
	}
}

func (r *Researcher) ResearchCompany(ctx context.Context, company, role, websiteHint string) (string, error) {
	dom, err := r.domains.Find(ctx, company, websiteHint)
	if err != nil {
		return "", fmt.Errorf("company domain lookup: %w", err)
	}
	if dom == "" {
		return "", nil
	}

	pages := []string{
		"https://" + dom + "/about",
		"https://" + dom + "/blog",
		"https://" + dom + "/careers",
		"https://" + dom,
	}

	var mu sync.Mutex
	var scraped strings.Builder

	g, gctx := errgroup.WithContext(ctx)
	for _, page := range pages {
		page := page
		g.Go(func() error {
			text, err := r.fetchText(gctx, page)
			if err != nil {
				// a missing /blog or /careers page is normal
				log.Printf("[research] skip url=%s err=%v", page, err)
				return nil
			}
			if text == "" {
				return nil
			}
			mu.Lock()
			fmt.Fprintf(&scraped, "\n\n--- %s ---\n%s", page, truncate(text, perPageCap))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw := strings.TrimSpace(scraped.String())
	if raw == "" {
		return "", nil
	}

	if r.gen == nil || !r.gen.Available() {
		return truncate(raw, rawFallback), nil
	}

	summary, err := r.gen.Generate(ctx, ai.GenerateRequest{
		Instructions: "You summarize company research for cold outreach emails. " +
			"Be concise. Focus on things useful for personalizing an email " +
			"from a candidate applying for a role.",
		Input: fmt.Sprintf(
			"Company: %s\nRole applying for: %s\n\nScraped content:\n%s\n\n"+
				"Summarize into JSON:\n"+
				`{"mission": "1-2 sentences about what the company does",`+
				`"recent_news": "any recent announcements, launches, or news",`+
				`"blog_highlights": "interesting recent blog posts or topics",`+
				`"culture_notes": "team culture, values, or interesting facts",`+
				`"relevant_role_info": "anything relevant to %s specifically"}`,
			company, role, truncate(raw, summaryCap), role),
		Temperature: 0.3,
		JSONObject:  true,
	})
	if err != nil {
		// research is a nice-to-have; fall back to raw text instead of
		// failing the stage over a summarizer hiccup
		log.Printf("[research] summarize failed company=%s err=%v", company, err)
		return truncate(raw, rawFallback), nil
	}
	return summary, nil
}

func (r *Researcher) fetchText(ctx context.Context, page string) (string, error) {
	if err := r.limiter.WaitURL(ctx, page); err != nil {
		return "", err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, footer, noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
