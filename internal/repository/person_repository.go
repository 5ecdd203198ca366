package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/julianb233/outreach-backend/internal/errors"
	"github.com/julianb233/outreach-backend/internal/model"
)

// PersonRepositoryInterface defines the contact-store reads and writes the
// engine needs. The people table itself is owned by the CRM; the engine only
// reads the roster and advances last_contacted on confirmed sends.
type PersonRepositoryInterface interface {
	ListActive(limit int) ([]model.Person, error)
	GetByID(id int) (*model.Person, error)

	// Deny cool-down bookkeeping.
	ListActiveDenials(now time.Time) (map[int]time.Time, error)
	UpsertDenial(personID int, expiresAt time.Time, reason string) error
}

// PersonRepository is the concrete implementation
type PersonRepository struct {
	DB *sql.DB
}

const personColumns = `id, name, phone, email, relationship_type, priority, status, timezone, last_contacted, created_at`

func scanPerson(row interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	var phone, email, tz sql.NullString
	err := row.Scan(&p.ID, &p.Name, &phone, &email, &p.RelationshipType, &p.Priority, &p.Status, &tz, &p.LastContacted, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Phone = phone.String
	p.Email = email.String
	p.Timezone = tz.String
	return &p, nil
}

// ListActive returns the evaluation roster: active people ordered by
// last_contacted ascending with never-contacted people first, so they are
// scanned first within any priority tier.
func (r *PersonRepository) ListActive(limit int) ([]model.Person, error) {
	query := `
        SELECT ` + personColumns + `
        FROM people
        WHERE status = 'active'
        ORDER BY last_contacted ASC NULLS FIRST
        LIMIT $1
    `
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	people := []model.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// GetByID fetches a person by ID
func (r *PersonRepository) GetByID(id int) (*model.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE id = $1`
	p, err := scanPerson(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewPersonNotFound(id)
		}
		return nil, err
	}
	return p, nil
}

// ====================== Deny cool-downs ======================

// ListActiveDenials returns unexpired cool-down entries keyed by person id.
// Expired rows are pruned on read.
func (r *PersonRepository) ListActiveDenials(now time.Time) (map[int]time.Time, error) {
	if _, err := r.DB.Exec(`DELETE FROM outreach_denials WHERE expires_at <= $1`, now); err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(`SELECT person_id, expires_at FROM outreach_denials WHERE expires_at > $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	denials := map[int]time.Time{}
	for rows.Next() {
		var personID int
		var expiresAt time.Time
		if err := rows.Scan(&personID, &expiresAt); err != nil {
			return nil, err
		}
		denials[personID] = expiresAt
	}
	return denials, rows.Err()
}

// UpsertDenial installs or extends a suppression window for a denied person.
func (r *PersonRepository) UpsertDenial(personID int, expiresAt time.Time, reason string) error {
	query := `
        INSERT INTO outreach_denials (person_id, expires_at, reason, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (person_id) DO UPDATE SET expires_at = EXCLUDED.expires_at, reason = EXCLUDED.reason
    `
	_, err := r.DB.Exec(query, personID, expiresAt, reason)
	return err
}

var _ PersonRepositoryInterface = (*PersonRepository)(nil)
