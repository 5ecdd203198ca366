package repository

import (
    "database/sql"
    "time"

    "github.com/julianb233/outreach-backend/internal/model"
)

type HistoryRepositoryInterface interface {
    AppendAction(action *model.OutreachAction) error
    RecordDelivery(personID int, subject, message string, at time.Time) error
}

type HistoryRepository struct {
    DB *sql.DB
}

// AppendAction records a workflow decision in the audit log. Append-only: the
// engine never updates or deletes history.
func (r *HistoryRepository) AppendAction(action *model.OutreachAction) error {
    if action.CreatedAt.IsZero() {
        action.CreatedAt = time.Now()
    }
    query := `
        INSERT INTO outreach_history (person_id, action, message, scheduled_time, delay_reason, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
    return r.DB.QueryRow(query, action.PersonID, action.Action, action.Message,
        action.ScheduledTime, nullIfEmpty(action.DelayReason), action.CreatedAt).Scan(&action.ID)
}

// RecordDelivery writes the bookkeeping for a confirmed immediate send: the
// contact_history append and the forward-only last_contacted update happen in
// one transaction, so partial application cannot occur.
func (r *HistoryRepository) RecordDelivery(personID int, subject, message string, at time.Time) error {
    tx, err := r.DB.Begin()
    if err != nil {
        return err
    }
    defer tx.Rollback()

    if _, err := tx.Exec(`
        INSERT INTO contact_history (person_id, contact_type, subject, notes, outcome, contact_date)
        VALUES ($1, 'text', $2, $3, 'successful', $4)`, personID, subject, message, at); err != nil {
        return err
    }
    if _, err := tx.Exec(`
        UPDATE people SET last_contacted=$1
        WHERE id=$2 AND (last_contacted IS NULL OR last_contacted < $1)`, at, personID); err != nil {
        return err
    }

    return tx.Commit()
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)
