package repositories

import (
	"database/sql"
	"time"

	"github.com/deepugami/mini-crm/internal/platform/models"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(activity *models.ActivityLog) error {
	if activity.CreatedAt == 0 {
		activity.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO activity_logs (lead_id, activity_type, text, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		activity.LeadID,
		activity.ActivityType,
		activity.Text,
		activity.CreatedBy,
		activity.CreatedAt,
	)
	if err != nil {
		return err
	}

	activity.ID, err = result.LastInsertId()
	return err
}

// ListByLead returns a lead's activity, newest first.
func (r *ActivityRepository) ListByLead(leadID string) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, lead_id, activity_type, text, created_by, created_at
		FROM activity_logs
		WHERE lead_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.ActivityLog
	for rows.Next() {
		var activity models.ActivityLog
		err := rows.Scan(
			&activity.ID,
			&activity.LeadID,
			&activity.ActivityType,
			&activity.Text,
			&activity.CreatedBy,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		activities = append(activities, &activity)
	}
	return activities, rows.Err()
}
