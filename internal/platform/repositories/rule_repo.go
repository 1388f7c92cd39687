package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/deepugami/mini-crm/internal/platform/models"
)

// ErrDuplicateName is returned when a rule name collides with an existing one.
var ErrDuplicateName = errors.New("rule name already exists")

// RuleRepository owns automation rules and their webhook logs.
type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(rule *models.AutomationRule) error {
	rule.CreatedAt = time.Now().Unix()

	triggerJSON, _ := json.Marshal(rule.TriggerConfig)
	actionJSON, _ := json.Marshal(rule.ActionConfig)

	query := `
		INSERT INTO automation_rules (name, trigger_type, trigger_config, action_type, action_config, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		rule.Name,
		rule.TriggerType,
		string(triggerJSON),
		rule.ActionType,
		string(actionJSON),
		rule.Active,
		rule.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateName
		}
		return err
	}

	rule.ID, err = result.LastInsertId()
	return err
}

func (r *RuleRepository) GetByID(id int64) (*models.AutomationRule, error) {
	query := `
		SELECT id, name, trigger_type, trigger_config, action_type, action_config, active, created_at
		FROM automation_rules WHERE id = ?
	`
	return scanRule(r.db.QueryRow(query, id))
}

// List returns all rules, newest first.
func (r *RuleRepository) List() ([]*models.AutomationRule, error) {
	query := `
		SELECT id, name, trigger_type, trigger_config, action_type, action_config, active, created_at
		FROM automation_rules
		ORDER BY created_at DESC, id DESC
	`
	return r.queryRules(query)
}

// ListActive returns active rules in creation order. Dispatch walks this
// list, so the order here is the rule evaluation order for one event.
func (r *RuleRepository) ListActive() ([]*models.AutomationRule, error) {
	query := `
		SELECT id, name, trigger_type, trigger_config, action_type, action_config, active, created_at
		FROM automation_rules
		WHERE active = 1
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRules(query)
}

// ListActiveTimeWait returns the active rules the scanner evaluates each tick.
func (r *RuleRepository) ListActiveTimeWait() ([]*models.AutomationRule, error) {
	query := `
		SELECT id, name, trigger_type, trigger_config, action_type, action_config, active, created_at
		FROM automation_rules
		WHERE active = 1 AND trigger_type = ?
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRules(query, models.TriggerTimeWait)
}

func (r *RuleRepository) SetActive(id int64, active bool) error {
	result, err := r.db.Exec("UPDATE automation_rules SET active = ? WHERE id = ?", active, id)
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
	return nil
}

// Delete removes a rule and its webhook logs. Logs are owned by the rule,
// so they go with it; nothing else references them.
func (r *RuleRepository) Delete(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM webhook_logs WHERE rule_id = ?", id); err != nil {
		return err
	}

	result, err := tx.Exec("DELETE FROM automation_rules WHERE id = ?", id)
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

// InsertLog appends one execution record. Logs are never updated or deleted
// outside of rule deletion.
func (r *RuleRepository) InsertLog(entry *models.WebhookLog) error {
	entry.CreatedAt = time.Now().Unix()

	payloadJSON, _ := json.Marshal(entry.RequestPayload)

	query := `
		INSERT INTO webhook_logs (rule_id, request_payload, response_status, response_body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		entry.RuleID,
		string(payloadJSON),
		entry.ResponseStatus,
		entry.ResponseBody,
		entry.CreatedAt,
	)
	if err != nil {
		return err
	}

	entry.ID, err = result.LastInsertId()
	return err
}

// ListLogsByRule returns a rule's execution log, newest first.
func (r *RuleRepository) ListLogsByRule(ruleID int64) ([]*models.WebhookLog, error) {
	query := `
		SELECT id, rule_id, request_payload, response_status, response_body, created_at
		FROM webhook_logs
		WHERE rule_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(query, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.WebhookLog
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (r *RuleRepository) queryRules(query string, args ...any) ([]*models.AutomationRule, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(s interface {
	Scan(dest ...interface{}) error
}) (*models.AutomationRule, error) {
	var rule models.AutomationRule
	var triggerRaw, actionRaw sql.NullString

	err := s.Scan(
		&rule.ID,
		&rule.Name,
		&rule.TriggerType,
		&triggerRaw,
		&rule.ActionType,
		&actionRaw,
		&rule.Active,
		&rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if triggerRaw.Valid && triggerRaw.String != "" {
		json.Unmarshal([]byte(triggerRaw.String), &rule.TriggerConfig)
	}
	if actionRaw.Valid && actionRaw.String != "" {
		json.Unmarshal([]byte(actionRaw.String), &rule.ActionConfig)
	}

	return &rule, nil
}

func scanLog(s interface {
	Scan(dest ...interface{}) error
}) (*models.WebhookLog, error) {
	var entry models.WebhookLog
	var payloadRaw sql.NullString

	err := s.Scan(
		&entry.ID,
		&entry.RuleID,
		&payloadRaw,
		&entry.ResponseStatus,
		&entry.ResponseBody,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payloadRaw.Valid && payloadRaw.String != "" {
		json.Unmarshal([]byte(payloadRaw.String), &entry.RequestPayload)
	}

	return &entry, nil
}
