package automation

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

const defaultWebhookTimeout = 5 * time.Second

// Engine evaluates automation rules against record events and executes
// their actions. Dispatch runs synchronously on the caller's request path;
// a slow webhook target delays the triggering request, bounded by the
// webhook client timeout.
type Engine struct {
	rules      *repositories.RuleRepository
	leads      *repositories.LeadRepository
	deals      *repositories.DealRepository
	activities *repositories.ActivityRepository
	client     *http.Client
}

func NewEngine(
	rules *repositories.RuleRepository,
	leads *repositories.LeadRepository,
	deals *repositories.DealRepository,
	activities *repositories.ActivityRepository,
	webhookTimeout time.Duration,
) *Engine {
	if webhookTimeout <= 0 {
		webhookTimeout = defaultWebhookTimeout
	}
	return &Engine{
		rules:      rules,
		leads:      leads,
		deals:      deals,
		activities: activities,
		client:     &http.Client{Timeout: webhookTimeout},
	}
}

// Dispatch evaluates all active rules against one event and executes every
// match. Rules run independently in creation order; one rule's failure
// never stops the rest. Only a rule-store read failure is returned.
func (e *Engine) Dispatch(event, entity string, payload map[string]any) error {
	rules, err := e.rules.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if !Matches(rule, event, entity, payload) {
			continue
		}
		log.Debug().
			Int64("rule_id", rule.ID).
			Str("rule", rule.Name).
			Str("event", event).
			Str("entity", entity).
			Msg("automation rule matched")
		e.Execute(rule, payload)
	}

	return nil
}

// Execute runs one rule's action against a payload, without trigger
// matching. Configuration problems degrade to silent no-ops; only webhook
// and email executions leave a log entry regardless of outcome.
func (e *Engine) Execute(rule *models.AutomationRule, payload map[string]any) {
	switch rule.ActionType {
	case models.ActionWebhook:
		e.runWebhook(rule, payload)
	case models.ActionCreateActivity:
		e.runCreateActivity(rule, payload)
	case models.ActionUpdateStatus:
		e.runUpdateStatus(rule, payload)
	case models.ActionCreateDeal:
		e.runCreateDeal(rule, payload)
	case models.ActionEmail:
		// Mock send: no mail leaves the process, only the log records it.
		e.recordExecution(rule, payload, http.StatusOK, "EMAIL_SENT")
	default:
		// Unrecognized action types are tolerated.
	}
}

func (e *Engine) runWebhook(rule *models.AutomationRule, payload map[string]any) {
	url := stringValue(rule.ActionConfig, "url")
	if url == "" {
		return
	}
	method := strings.ToUpper(stringValue(rule.ActionConfig, "method"))
	if method == "" {
		method = http.MethodPost
	}

	body, err := json.Marshal(payload)
	if err != nil {
		e.recordExecution(rule, payload, 0, err.Error())
		return
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		e.recordExecution(rule, payload, 0, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// Transport failure: status 0, error text as body. Never raised.
		log.Debug().Err(err).Int64("rule_id", rule.ID).Str("url", url).Msg("webhook delivery failed")
		e.recordExecution(rule, payload, 0, err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	e.recordExecution(rule, payload, resp.StatusCode, string(respBody))
}

func (e *Engine) runCreateActivity(rule *models.AutomationRule, payload map[string]any) {
	leadID := stringValue(payload, "lead_id")
	if leadID == "" {
		leadID = stringValue(rule.ActionConfig, "lead_id")
	}
	if leadID == "" {
		return
	}

	text := stringValue(rule.ActionConfig, "text")
	if text == "" {
		text = "Automation note"
	}
	createdBy := stringValue(rule.ActionConfig, "created_by")
	if createdBy == "" {
		createdBy = "automation"
	}

	now := time.Now().Unix()
	activity := &models.ActivityLog{
		LeadID:       leadID,
		ActivityType: models.ActivityNote,
		Text:         text,
		CreatedBy:    createdBy,
		CreatedAt:    now,
	}
	if err := e.activities.Create(activity); err != nil {
		log.Error().Err(err).Int64("rule_id", rule.ID).Msg("create_activity action failed")
		return
	}

	// Touching a lead that no longer exists is a no-op, not an error.
	if err := e.leads.Touch(leadID, now); err != nil {
		log.Error().Err(err).Int64("rule_id", rule.ID).Str("lead_id", leadID).Msg("lead touch failed")
	}
}

func (e *Engine) runUpdateStatus(rule *models.AutomationRule, payload map[string]any) {
	leadID := stringValue(payload, "lead_id")
	if leadID == "" {
		leadID = stringValue(rule.ActionConfig, "lead_id")
	}
	status := stringValue(rule.ActionConfig, "status")
	if status == "" {
		status = stringValue(payload, "status")
	}
	if leadID == "" || status == "" {
		return
	}

	if _, err := e.leads.GetByID(leadID); err != nil {
		return
	}
	if !models.ValidLeadStatus(status) {
		return
	}

	if err := e.leads.UpdateStatus(leadID, status, time.Now().Unix()); err != nil {
		log.Error().Err(err).Int64("rule_id", rule.ID).Str("lead_id", leadID).Msg("update_status action failed")
	}
}

func (e *Engine) runCreateDeal(rule *models.AutomationRule, payload map[string]any) {
	leadID := stringValue(payload, "lead_id")
	if leadID == "" {
		leadID = stringValue(rule.ActionConfig, "lead_id")
	}
	if leadID == "" {
		return
	}

	title := stringValue(rule.ActionConfig, "title")
	if title == "" {
		title = "New Deal"
	}
	currency := stringValue(rule.ActionConfig, "currency")
	if currency == "" {
		currency = "USD"
	}

	// No existence check on the lead id: a deal may reference a lead that
	// was deleted between the event and the action.
	deal := &models.Deal{
		LeadID:   leadID,
		Title:    title,
		Value:    floatValue(rule.ActionConfig, "value"),
		Currency: currency,
	}
	if err := e.deals.Create(deal); err != nil {
		log.Error().Err(err).Int64("rule_id", rule.ID).Msg("create_deal action failed")
	}
}

func (e *Engine) recordExecution(rule *models.AutomationRule, payload map[string]any, status int, body string) {
	entry := &models.WebhookLog{
		RuleID:         rule.ID,
		RequestPayload: payload,
		ResponseStatus: status,
		ResponseBody:   body,
	}
	if err := e.rules.InsertLog(entry); err != nil {
		log.Error().Err(err).Int64("rule_id", rule.ID).Msg("failed to record rule execution")
	}
}
