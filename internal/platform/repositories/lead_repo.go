package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/deepugami/mini-crm/internal/platform/models"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(lead *models.Lead) error {
	now := time.Now().Unix()
	lead.ID = uuid.New().String()
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now

	query := `
		INSERT INTO leads (id, contact_id, source, status, assigned_to, last_touch_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		lead.ID,
		lead.ContactID,
		lead.Source,
		lead.Status,
		lead.AssignedTo,
		lead.LastTouchAt,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	return err
}

func (r *LeadRepository) GetByID(id string) (*models.Lead, error) {
	query := `
		SELECT id, contact_id, source, status, assigned_to, last_touch_at, created_at, updated_at
		FROM leads WHERE id = ?
	`
	return scanLead(r.db.QueryRow(query, id))
}

// List returns leads newest first, optionally filtered by status.
func (r *LeadRepository) List(status string) ([]*models.Lead, error) {
	query := `
		SELECT id, contact_id, source, status, assigned_to, last_touch_at, created_at, updated_at
		FROM leads
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	return r.queryLeads(query, args...)
}

func (r *LeadRepository) Update(lead *models.Lead) error {
	lead.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE leads SET status = ?, assigned_to = ?, last_touch_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, lead.Status, lead.AssignedTo, lead.LastTouchAt, lead.UpdatedAt, lead.ID)
	return err
}

func (r *LeadRepository) UpdateStatus(id, status string, now int64) error {
	query := "UPDATE leads SET status = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, now, id)
	return err
}

// Touch bumps the lead's last-touch timestamp. Missing leads are a no-op,
// which the create_activity executor relies on.
func (r *LeadRepository) Touch(id string, now int64) error {
	query := "UPDATE leads SET last_touch_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, now, id)
	return err
}

// ListUntouchedBefore returns leads whose last-touch timestamp is unset or
// older than the cutoff, optionally filtered by status. This is the
// time-wait scanner's eligibility query; there is no suppression here, an
// eligible lead is returned on every call until its state changes.
func (r *LeadRepository) ListUntouchedBefore(cutoff int64, status string) ([]*models.Lead, error) {
	query := `
		SELECT id, contact_id, source, status, assigned_to, last_touch_at, created_at, updated_at
		FROM leads
		WHERE (last_touch_at IS NULL OR last_touch_at < ?)
	`
	args := []any{cutoff}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC, id ASC"

	return r.queryLeads(query, args...)
}

func (r *LeadRepository) queryLeads(query string, args ...any) ([]*models.Lead, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(s interface {
	Scan(dest ...interface{}) error
}) (*models.Lead, error) {
	var lead models.Lead
	var lastTouchAt sql.NullInt64

	err := s.Scan(
		&lead.ID,
		&lead.ContactID,
		&lead.Source,
		&lead.Status,
		&lead.AssignedTo,
		&lastTouchAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastTouchAt.Valid {
		val := lastTouchAt.Int64
		lead.LastTouchAt = &val
	}

	return &lead, nil
}
