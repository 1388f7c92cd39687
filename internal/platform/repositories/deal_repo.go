package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/deepugami/mini-crm/internal/platform/models"
)

type DealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(deal *models.Deal) error {
	now := time.Now().Unix()
	deal.ID = uuid.New().String()
	if deal.Stage == "" {
		deal.Stage = models.DealStageNew
	}
	if deal.Currency == "" {
		deal.Currency = "USD"
	}
	deal.CreatedAt = now
	deal.UpdatedAt = now

	query := `
		INSERT INTO deals (id, lead_id, title, value, currency, stage, probability, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		deal.ID,
		deal.LeadID,
		deal.Title,
		deal.Value,
		deal.Currency,
		deal.Stage,
		deal.Probability,
		deal.CreatedAt,
		deal.UpdatedAt,
	)
	return err
}

func (r *DealRepository) List() ([]*models.Deal, error) {
	query := `
		SELECT id, lead_id, title, value, currency, stage, probability, created_at, updated_at
		FROM deals
		ORDER BY created_at DESC, id DESC
	`
	return r.queryDeals(query)
}

func (r *DealRepository) ListByLead(leadID string) ([]*models.Deal, error) {
	query := `
		SELECT id, lead_id, title, value, currency, stage, probability, created_at, updated_at
		FROM deals
		WHERE lead_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryDeals(query, leadID)
}

func (r *DealRepository) queryDeals(query string, args ...any) ([]*models.Deal, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []*models.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, rows.Err()
}

func scanDeal(s interface {
	Scan(dest ...interface{}) error
}) (*models.Deal, error) {
	var deal models.Deal

	err := s.Scan(
		&deal.ID,
		&deal.LeadID,
		&deal.Title,
		&deal.Value,
		&deal.Currency,
		&deal.Stage,
		&deal.Probability,
		&deal.CreatedAt,
		&deal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &deal, nil
}
