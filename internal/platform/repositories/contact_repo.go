package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/deepugami/mini-crm/internal/platform/models"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(contact *models.Contact) error {
	now := time.Now().Unix()
	contact.ID = uuid.New().String()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	query := `
		INSERT INTO contacts (id, name, phone, email, company, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		contact.ID,
		contact.Name,
		contact.Phone,
		contact.Email,
		contact.Company,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	return err
}

func (r *ContactRepository) GetByID(id string) (*models.Contact, error) {
	query := `
		SELECT id, name, phone, email, company, created_at, updated_at
		FROM contacts WHERE id = ?
	`
	return scanContact(r.db.QueryRow(query, id))
}

func (r *ContactRepository) List() ([]*models.Contact, error) {
	query := `
		SELECT id, name, phone, email, company, created_at, updated_at
		FROM contacts
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) Update(contact *models.Contact) error {
	contact.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE contacts SET name = ?, phone = ?, email = ?, company = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		contact.Name,
		contact.Phone,
		contact.Email,
		contact.Company,
		contact.UpdatedAt,
		contact.ID,
	)
	return err
}

// Delete removes a contact and everything hanging off it: its leads, and
// those leads' deals and activity logs.
func (r *ContactRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	leadIDs := "SELECT id FROM leads WHERE contact_id = ?"
	if _, err := tx.Exec("DELETE FROM activity_logs WHERE lead_id IN ("+leadIDs+")", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM deals WHERE lead_id IN ("+leadIDs+")", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM leads WHERE contact_id = ?", id); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

func scanContact(s interface {
	Scan(dest ...interface{}) error
}) (*models.Contact, error) {
	var contact models.Contact
	var email, company sql.NullString

	err := s.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Phone,
		&email,
		&company,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	contact.Email = email.String
	contact.Company = company.String

	return &contact, nil
}
