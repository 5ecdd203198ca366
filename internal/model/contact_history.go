// internal/model/contact_history.go
package model

import "time"

// ContactHistory is an append-only record of an actual contact with a person.
// The engine only ever writes one on a confirmed successful dispatch.
type ContactHistory struct {
    ID          int       `db:"id" json:"id"`
    PersonID    int       `db:"person_id" json:"person_id"`
    ContactType string    `db:"contact_type" json:"contact_type"`
    Subject     string    `db:"subject" json:"subject"`
    Notes       string    `db:"notes" json:"notes"`
    Outcome     string    `db:"outcome" json:"outcome"`
    ContactDate time.Time `db:"contact_date" json:"contact_date"`
}

// OutreachAction is an audit entry for a workflow decision (approve, deny,
// delay, cancel, send). Separate from ContactHistory: actions are recorded
// whether or not anything was delivered.
type OutreachAction struct {
    ID            int        `db:"id" json:"id"`
    PersonID      int        `db:"person_id" json:"person_id"`
    Action        string     `db:"action" json:"action"`
    Message       string     `db:"message" json:"message"`
    ScheduledTime *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
    DelayReason   string     `db:"delay_reason" json:"delay_reason,omitempty"`
    CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
