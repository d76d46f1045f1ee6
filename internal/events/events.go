package events

import (
	"encoding/json"

	"outreach-engine/internal/domain"
)

// Snapshot renders a campaign exactly as the pull endpoint would, so push
// and poll observers always see the same shape.
func Snapshot(c *domain.Campaign) string {
	b, _ := json.Marshal(c)
	return string(b)
}
