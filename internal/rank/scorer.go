package rank

import "outreach-engine/internal/domain"

// Scorer assigns a priority in 0..1 plus a human-readable reason to a
// discovered contact. Higher means "email this person first".
type Scorer interface {
	Score(c domain.Contact, role string) (score float64, reason string)
}
