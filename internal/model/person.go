// internal/model/person.go
package model

import "time"

// Person priority tiers, highest first.
const (
    PriorityCritical = "critical"
    PriorityHigh     = "high"
    PriorityMedium   = "medium"
    PriorityLow      = "low"
)

// Person statuses. Only active people are evaluated for outreach.
const (
    StatusActive   = "active"
    StatusInactive = "inactive"
    StatusBlocked  = "blocked"
)

type Person struct {
    ID               int        `db:"id" json:"id"`
    Name             string     `db:"name" json:"name"`
    Phone            string     `db:"phone" json:"phone,omitempty"`
    Email            string     `db:"email" json:"email,omitempty"`
    RelationshipType string     `db:"relationship_type" json:"relationship_type"`
    Priority         string     `db:"priority" json:"priority"`
    Status           string     `db:"status" json:"status"`
    Timezone         string     `db:"timezone" json:"timezone,omitempty"`
    LastContacted    *time.Time `db:"last_contacted" json:"last_contacted,omitempty"`
    CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// HasContactChannel reports whether the person can actually be reached over
// the text channel. People without a phone are still shown as candidates but
// cannot be approved or sent.
func (p *Person) HasContactChannel() bool {
    return p.Phone != ""
}
