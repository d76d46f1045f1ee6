// internal/rank/rule_scorer.go
package rank

import (
	"strings"

	"outreach-engine/internal/config"
	"outreach-engine/internal/domain"
)

// RuleScorer ranks contacts with the keyword rules from config. It looks at
// the contact's title plus whatever snippet text discovery picked up, and at
// how closely the title matches the requested role.
type RuleScorer struct {
	Cfg config.Config
}

func (s RuleScorer) Score(c domain.Contact, role string) (float64, string) {
	text := strings.ToLower(c.Title + " " + c.RecentActivity + " " + c.ProfileSummary)

	score := 0
	var reasons []string

	for _, r := range s.Cfg.Priority.TitleRules {
		for _, needle := range r.Any {
			if strings.Contains(text, strings.ToLower(needle)) {
				score += r.Weight
				reasons = append(reasons, r.Reason)
				break
			}
		}
	}

	for _, p := range s.Cfg.Priority.Penalties {
		for _, needle := range p.Any {
			if strings.Contains(text, strings.ToLower(needle)) {
				score += p.Weight
				reasons = append(reasons, p.Reason)
				break
			}
		}
	}

	// Role words found in the title are the strongest signal we have.
	roleHits := 0
	roleWords := strings.Fields(strings.ToLower(role))
	for _, w := range roleWords {
		if len(w) < 3 {
			continue
		}
		if strings.Contains(text, w) {
			roleHits++
		}
	}
	if roleHits > 0 {
		score += 20 * roleHits
		reasons = append(reasons, "title matches the target role")
	}

	return clamp01(float64(score) / 100), joinReasons(reasons)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func joinReasons(in []string) string {
	seen := map[string]bool{}
	var out []string
	for _, r := range in {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	if len(out) == 0 {
		return "no strong signals"
	}
	return strings.Join(out, "; ")
}
