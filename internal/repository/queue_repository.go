package repository

import (
    "database/sql"
    "time"

    appErrors "github.com/julianb233/outreach-backend/internal/errors"
    "github.com/julianb233/outreach-backend/internal/model"
)

type QueueRepositoryInterface interface {
    Create(item *model.QueueItem) error
    GetByID(id int) (*model.QueueItem, error)
    ListPending() ([]model.QueueItem, error)
    ListDue(now time.Time, limit int) ([]model.QueueItem, error)
    HasPendingForPerson(personID int) (bool, error)

    // Claim discipline: a send must win the pending row before dispatching.
    ClaimForSend(id int) (*model.QueueItem, bool, error)
    ReleaseClaim(id int) error

    MarkSent(id, personID int, message string, sentAt time.Time) error
    Cancel(id int) (*model.QueueItem, error)
    UpdatePending(id int, message string, scheduledTime time.Time) (*model.QueueItem, error)
    IncrementRetry(id int) error
    StatusCounts() (map[string]int, error)
}

type QueueRepository struct {
    DB *sql.DB
}

const queueColumns = `id, person_id, message, scheduled_time, delay_reason, status, original_trigger, retry_count, created_at, sent_at, cancelled_at`

func scanQueueItem(row interface{ Scan(...any) error }) (*model.QueueItem, error) {
    var q model.QueueItem
    var delayReason, originalTrigger sql.NullString
    err := row.Scan(&q.ID, &q.PersonID, &q.Message, &q.ScheduledTime, &delayReason, &q.Status,
        &originalTrigger, &q.RetryCount, &q.CreatedAt, &q.SentAt, &q.CancelledAt)
    if err != nil {
        return nil, err
    }
    q.DelayReason = delayReason.String
    q.OriginalTrigger = originalTrigger.String
    return &q, nil
}

// ====================== Queue CRUD ======================

func (r *QueueRepository) Create(item *model.QueueItem) error {
    item.CreatedAt = time.Now()
    if item.Status == "" {
        item.Status = model.QueuePending
    }
    query := `
        INSERT INTO outreach_queue (person_id, message, scheduled_time, delay_reason, status, original_trigger, retry_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
        RETURNING id
    `
    return r.DB.QueryRow(query, item.PersonID, item.Message, item.ScheduledTime,
        nullIfEmpty(item.DelayReason), item.Status, nullIfEmpty(item.OriginalTrigger), item.CreatedAt).Scan(&item.ID)
}

func (r *QueueRepository) GetByID(id int) (*model.QueueItem, error) {
    query := `SELECT ` + queueColumns + ` FROM outreach_queue WHERE id=$1`
    item, err := scanQueueItem(r.DB.QueryRow(query, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewQueueItemNotFound(id)
        }
        return nil, err
    }
    return item, nil
}

func (r *QueueRepository) ListPending() ([]model.QueueItem, error) {
    query := `
        SELECT ` + queueColumns + ` FROM outreach_queue
        WHERE status='pending'
        ORDER BY scheduled_time ASC
    `
    return r.listItems(query)
}

// ListDue returns pending items whose scheduled time has passed, oldest first.
func (r *QueueRepository) ListDue(now time.Time, limit int) ([]model.QueueItem, error) {
    query := `
        SELECT ` + queueColumns + ` FROM outreach_queue
        WHERE status='pending' AND scheduled_time <= $1
        ORDER BY scheduled_time ASC
        LIMIT $2
    `
    return r.listItems(query, now, limit)
}

func (r *QueueRepository) listItems(query string, args ...any) ([]model.QueueItem, error) {
    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    items := []model.QueueItem{}
    for rows.Next() {
        item, err := scanQueueItem(rows)
        if err != nil {
            return nil, err
        }
        items = append(items, *item)
    }
    return items, rows.Err()
}

// HasPendingForPerson reports whether the person already has a queued message,
// used to keep them out of fresh candidate passes.
func (r *QueueRepository) HasPendingForPerson(personID int) (bool, error) {
    var count int
    err := r.DB.QueryRow(`SELECT COUNT(*) FROM outreach_queue WHERE person_id=$1 AND status IN ('pending','sending')`, personID).Scan(&count)
    if err != nil {
        return false, err
    }
    return count > 0, nil
}

// ====================== Send lifecycle ======================

// ClaimForSend flips a pending item to sending. When the row was not pending
// the claim is lost: the current row is returned with claimed=false so the
// caller can observe the winner's terminal state and no-op.
func (r *QueueRepository) ClaimForSend(id int) (*model.QueueItem, bool, error) {
    query := `
        UPDATE outreach_queue SET status='sending'
        WHERE id=$1 AND status='pending'
        RETURNING ` + queueColumns + `
    `
    item, err := scanQueueItem(r.DB.QueryRow(query, id))
    if err == sql.ErrNoRows {
        current, getErr := r.GetByID(id)
        if getErr != nil {
            return nil, false, getErr
        }
        return current, false, nil
    }
    if err != nil {
        return nil, false, err
    }
    return item, true, nil
}

// ReleaseClaim puts a claimed item back to pending after a failed dispatch.
func (r *QueueRepository) ReleaseClaim(id int) error {
    _, err := r.DB.Exec(`UPDATE outreach_queue SET status='pending' WHERE id=$1 AND status='sending'`, id)
    return err
}

// MarkSent finishes a successful dispatch: queue row goes terminal, the
// person's last_contacted moves forward, and a contact_history entry is
// appended, all in one transaction so the bookkeeping is all-or-nothing.
func (r *QueueRepository) MarkSent(id, personID int, message string, sentAt time.Time) error {
    tx, err := r.DB.Begin()
    if err != nil {
        return err
    }
    defer tx.Rollback()

    res, err := tx.Exec(`UPDATE outreach_queue SET status='sent', sent_at=$1 WHERE id=$2 AND status='sending'`, sentAt, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err != nil {
        return err
    } else if n == 0 {
        // The sending claim is gone; nothing may be committed for this item.
        return appErrors.NewQueueItemNotFound(id)
    }
    if _, err := tx.Exec(`
        UPDATE people SET last_contacted=$1
        WHERE id=$2 AND (last_contacted IS NULL OR last_contacted < $1)`, sentAt, personID); err != nil {
        return err
    }
    if _, err := tx.Exec(`
        INSERT INTO contact_history (person_id, contact_type, subject, notes, outcome, contact_date)
        VALUES ($1, 'text', 'Outreach', $2, 'successful', $3)`, personID, message, sentAt); err != nil {
        return err
    }

    return tx.Commit()
}

// Cancel only takes a pending row. An item whose dispatch is in flight holds
// the sending claim and cannot be cancelled out from under it; the caller
// sees not-found and can retry once the claim resolves.
func (r *QueueRepository) Cancel(id int) (*model.QueueItem, error) {
    query := `
        UPDATE outreach_queue SET status='cancelled', cancelled_at=NOW()
        WHERE id=$1 AND status='pending'
        RETURNING ` + queueColumns + `
    `
    item, err := scanQueueItem(r.DB.QueryRow(query, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewQueueItemNotFound(id)
        }
        return nil, err
    }
    return item, nil
}

// UpdatePending edits a pending item's message and schedule.
func (r *QueueRepository) UpdatePending(id int, message string, scheduledTime time.Time) (*model.QueueItem, error) {
    query := `
        UPDATE outreach_queue SET message=$1, scheduled_time=$2
        WHERE id=$3 AND status='pending'
        RETURNING ` + queueColumns + `
    `
    item, err := scanQueueItem(r.DB.QueryRow(query, message, scheduledTime, id))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewQueueItemNotFound(id)
        }
        return nil, err
    }
    return item, nil
}

func (r *QueueRepository) IncrementRetry(id int) error {
    _, err := r.DB.Exec(`UPDATE outreach_queue SET retry_count=retry_count+1 WHERE id=$1`, id)
    return err
}

func (r *QueueRepository) StatusCounts() (map[string]int, error) {
    rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM outreach_queue GROUP BY status`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{"pending": 0, "sent": 0, "cancelled": 0}
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        stats[status] = count
    }
    return stats, rows.Err()
}

func nullIfEmpty(s string) any {
    if s == "" {
        return nil
    }
    return s
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
