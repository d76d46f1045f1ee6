package emails

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"outreach-engine/internal/webutil"
)

// Well-known company domains resolved without any network traffic.
var knownDomains = map[string]string{
	"stripe":     "stripe.com",
	"google":     "google.com",
	"meta":       "meta.com",
	"facebook":   "meta.com",
	"apple":      "apple.com",
	"amazon":     "amazon.com",
	"microsoft":  "microsoft.com",
	"netflix":    "netflix.com",
	"uber":       "uber.com",
	"lyft":       "lyft.com",
	"airbnb":     "airbnb.com",
	"spotify":    "spotify.com",
	"slack":      "slack.com",
	"salesforce": "salesforce.com",
	"shopify":    "shopify.com",
	"databricks": "databricks.com",
	"figma":      "figma.com",
	"notion":     "notion.so",
	"vercel":     "vercel.com",
	"openai":     "openai.com",
	"anthropic":  "anthropic.com",
	"palantir":   "palantir.com",
	"coinbase":   "coinbase.com",
	"robinhood":  "robinhood.com",
	"plaid":      "plaid.com",
	"doordash":   "doordash.com",
	"instacart":  "instacart.com",
}

// Job boards and aggregators that must never be mistaken for a company's
// own domain.
var domainBlocklist = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"monster.com",
	"crunchbase.com",
	"wikipedia.org",
	"greenhouse.io",
	"lever.co",
	"workday.com",
	"facebook.com",
	"x.com",
	"twitter.com",
	"youtube.com",
}

// DomainFinder resolves "Acme" -> "acme.com". Lookups hit the known table
// first, then a DuckDuckGo search; results are cached for the process
// lifetime so a campaign's stages only pay once.
type DomainFinder struct {
	hc      *http.Client
	limiter *webutil.HostLimiter

	mu    sync.Mutex
	cache map[string]string
}

func NewDomainFinder(limiter *webutil.HostLimiter) *DomainFinder {
	return &DomainFinder{
		hc:      &http.Client{Timeout: 12 * time.Second},
		limiter: limiter,
		cache:   make(map[string]string),
	}
}

// Find returns the best-guess domain for a company, or "" when nothing
// trustworthy turned up. A website hint short-circuits everything.
func (d *DomainFinder) Find(ctx context.Context, company, websiteHint string) (string, error) {
	if h := hostFromHint(websiteHint); h != "" {
		return h, nil
	}

	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(company), " ", ""))
	if key == "" {
		return "", nil
	}
	if dom, ok := knownDomains[key]; ok {
		return dom, nil
	}

	d.mu.Lock()
	cached, ok := d.cache[key]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	found, err := d.searchDDG(ctx, company)
	if err != nil {
		return "", err
	}
	if found != "" {
		d.mu.Lock()
		d.cache[key] = found
		d.mu.Unlock()
	}
	return found, nil
}

func (d *DomainFinder) searchDDG(ctx context.Context, company string) (string, error) {
	query := fmt.Sprintf("%s official website", company)
	u := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)

	if err := d.limiter.WaitURL(ctx, u); err != nil {
		return "", err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := d.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("domain search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("domain search status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("domain search parse: %w", err)
	}

	var best string
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		host := webutil.HostFromURL(webutil.DecodeDDGRedirect(href))
		host = strings.ToLower(strings.TrimPrefix(host, "www."))
		if host == "" || isBlockedDomain(host) {
			return true
		}
		best = host
		return false // stop at first good domain
	})
	return best, nil
}

func hostFromHint(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ""
	}
	if !strings.Contains(hint, "://") {
		hint = "https://" + hint
	}
	host := strings.ToLower(strings.TrimPrefix(webutil.HostFromURL(hint), "www."))
	return host
}

func isBlockedDomain(host string) bool {
	for _, b := range domainBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
