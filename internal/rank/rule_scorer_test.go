package rank

import (
	"testing"

	"outreach-engine/internal/config"
	"outreach-engine/internal/domain"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Priority.TitleRules = []config.Rule{
		{Reason: "hiring authority", Weight: 40, Any: []string{"recruiter", "talent"}},
		{Reason: "engineering leadership", Weight: 35, Any: []string{"head of", "director"}},
	}
	cfg.Priority.Penalties = []config.Penalty{
		{Reason: "unrelated function", Weight: -30, Any: []string{"sales"}},
	}
	return cfg
}

func TestScoreRecruiterBeatsUnrelated(t *testing.T) {
	s := RuleScorer{Cfg: testConfig()}

	recruiter := domain.Contact{Name: "Jane Doe", Title: "Senior Technical Recruiter"}
	sales := domain.Contact{Name: "John Roe", Title: "Sales Account Executive"}

	rScore, rReason := s.Score(recruiter, "Backend Engineer")
	sScore, _ := s.Score(sales, "Backend Engineer")

	if rScore <= sScore {
		t.Fatalf("recruiter %.2f should outrank sales %.2f", rScore, sScore)
	}
	if rReason != "hiring authority" {
		t.Fatalf("reason = %q", rReason)
	}
}

func TestScoreRoleWordsBoost(t *testing.T) {
	s := RuleScorer{Cfg: testConfig()}

	match := domain.Contact{Name: "A", Title: "Backend Engineer"}
	other := domain.Contact{Name: "B", Title: "Product Designer"}

	mScore, mReason := s.Score(match, "Backend Engineer")
	oScore, oReason := s.Score(other, "Backend Engineer")

	if mScore <= oScore {
		t.Fatalf("role match %.2f should outrank %.2f", mScore, oScore)
	}
	if mReason != "title matches the target role" {
		t.Fatalf("reason = %q", mReason)
	}
	if oReason != "no strong signals" {
		t.Fatalf("no-signal reason = %q", oReason)
	}
}

func TestScoreClampedToUnitRange(t *testing.T) {
	cfg := testConfig()
	cfg.Priority.TitleRules = append(cfg.Priority.TitleRules,
		config.Rule{Reason: "huge", Weight: 500, Any: []string{"engineer"}})
	s := RuleScorer{Cfg: cfg}

	hi, _ := s.Score(domain.Contact{Title: "Recruiter Engineer"}, "Engineer")
	if hi != 1 {
		t.Fatalf("score = %.2f, want clamp to 1", hi)
	}

	lo, _ := s.Score(domain.Contact{Title: "Sales"}, "Backend Engineer")
	if lo != 0 {
		t.Fatalf("score = %.2f, want clamp to 0", lo)
	}
}

func TestScoreReasonsDeduplicated(t *testing.T) {
	cfg := testConfig()
	cfg.Priority.TitleRules = append(cfg.Priority.TitleRules,
		config.Rule{Reason: "hiring authority", Weight: 10, Any: []string{"sourcing"}})
	s := RuleScorer{Cfg: cfg}

	_, reason := s.Score(domain.Contact{Title: "Recruiter, sourcing lead"}, "x")
	if reason != "hiring authority" {
		t.Fatalf("reason = %q, want single deduplicated reason", reason)
	}
}
