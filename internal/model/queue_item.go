// internal/model/queue_item.go
package model

import "time"

// QueueItem statuses. "sending" is a transient claim held while a dispatch is
// in flight; "sent" and "cancelled" are terminal.
const (
    QueuePending   = "pending"
    QueueSending   = "sending"
    QueueSent      = "sent"
    QueueCancelled = "cancelled"
)

type QueueItem struct {
    ID              int        `db:"id" json:"id"`
    PersonID        int        `db:"person_id" json:"person_id"`
    Message         string     `db:"message" json:"message"`
    ScheduledTime   time.Time  `db:"scheduled_time" json:"scheduled_time"`
    DelayReason     string     `db:"delay_reason" json:"delay_reason,omitempty"`
    Status          string     `db:"status" json:"status"`
    OriginalTrigger string     `db:"original_trigger" json:"original_trigger,omitempty"`
    RetryCount      int        `db:"retry_count" json:"retry_count"`
    CreatedAt       time.Time  `db:"created_at" json:"created_at"`
    SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
    CancelledAt     *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}
