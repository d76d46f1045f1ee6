package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything a UI would
// want to show about why a config is unusable.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	for i := range out.Priority.TitleRules {
		out.Priority.TitleRules[i].Any = trimList(out.Priority.TitleRules[i].Any)
	}
	for i := range out.Priority.Penalties {
		out.Priority.Penalties[i].Any = trimList(out.Priority.Penalties[i].Any)
	}

	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Store.Driver {
	case "", "memory", "sqlite":
	default:
		res.addErr("store.driver must be sqlite or memory (got %q)", out.Store.Driver)
	}
	if out.Store.Driver == "sqlite" && strings.TrimSpace(out.Store.Path) == "" {
		res.addWarn("store.driver is sqlite but store.path is empty; falling back to the in-memory store")
	}

	if out.Pipeline.TargetContacts <= 0 {
		res.addErr("pipeline.target_contacts must be > 0")
	} else if out.Pipeline.TargetContacts > 25 {
		res.addWarn("pipeline.target_contacts is very high (%d); searches may get rate limited.", out.Pipeline.TargetContacts)
	}
	checkTimeout := func(name string, v int) {
		if v <= 0 {
			res.addErr("pipeline.%s must be > 0", name)
		}
	}
	checkTimeout("discover_timeout_seconds", out.Pipeline.DiscoverSeconds)
	checkTimeout("emails_timeout_seconds", out.Pipeline.EmailsSeconds)
	checkTimeout("research_timeout_seconds", out.Pipeline.ResearchSeconds)
	checkTimeout("drafts_timeout_seconds", out.Pipeline.DraftsSeconds)

	if out.Search.RatePerSec <= 0 {
		res.addErr("search.rate_per_sec must be > 0")
	}
	if out.Search.Burst <= 0 {
		res.addErr("search.burst must be > 0")
	}

	if out.Retention.Days < 0 {
		res.addErr("retention.days must be >= 0")
	}
	if out.Retention.Days > 0 && out.Retention.SweepHours <= 0 {
		res.addErr("retention.sweep_hours must be > 0 when retention.days is set")
	}

	checkRules := func(name string, rules []Rule) {
		for i, r := range rules {
			if r.Reason == "" {
				res.addErr("%s[%d].reason is required", name, i)
			}
			if len(r.Any) == 0 {
				res.addErr("%s[%d].any must have at least 1 term", name, i)
			}
		}
	}
	checkRules("priority.title_rules", out.Priority.TitleRules)
	for i, p := range out.Priority.Penalties {
		if p.Reason == "" {
			res.addErr("priority.penalties[%d].reason is required", i)
		}
		if len(p.Any) == 0 {
			res.addErr("priority.penalties[%d].any must have at least 1 term", i)
		}
	}

	return out, res
}
