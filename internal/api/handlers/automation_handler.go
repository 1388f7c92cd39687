package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "github.com/deepugami/mini-crm/internal/api/context"
	"github.com/deepugami/mini-crm/internal/engine/automation"
	"github.com/deepugami/mini-crm/internal/pkg/errors"
	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

type AutomationHandler struct {
	rules  *repositories.RuleRepository
	engine *automation.Engine
}

func NewAutomationHandler(rules *repositories.RuleRepository, engine *automation.Engine) *AutomationHandler {
	return &AutomationHandler{rules: rules, engine: engine}
}

func (h *AutomationHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string         `json:"name"`
		TriggerType   string         `json:"trigger_type"`
		TriggerConfig map[string]any `json:"trigger_config"`
		ActionType    string         `json:"action_type"`
		ActionConfig  map[string]any `json:"action_config"`
		Active        *bool          `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name is required", nil)
		return
	}
	// Only the kinds are validated. Config shape is deliberately not checked
	// against the kind; a misconfigured rule no-ops when it fires.
	if !models.ValidTriggerType(req.TriggerType) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid trigger_type", nil)
		return
	}
	if !models.ValidActionType(req.ActionType) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid action_type", nil)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	rule := &models.AutomationRule{
		Name:          req.Name,
		TriggerType:   req.TriggerType,
		TriggerConfig: req.TriggerConfig,
		ActionType:    req.ActionType,
		ActionConfig:  req.ActionConfig,
		Active:        active,
	}
	if err := h.rules.Create(rule); err != nil {
		if err == repositories.ErrDuplicateName {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Rule name already exists", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create rule", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rule)
}

func (h *AutomationHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list rules", nil)
		return
	}

	if rules == nil {
		rules = []*models.AutomationRule{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

// UpdateRule toggles the active flag. Rules are never structurally
// versioned, so nothing else is editable.
func (h *AutomationHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := h.ruleIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "active is required", nil)
		return
	}

	if err := h.rules.SetActive(ruleID, *req.Active); err != nil {
		if err == sql.ErrNoRows {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update rule", nil)
		return
	}

	rule, err := h.rules.GetByID(ruleID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load rule", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

func (h *AutomationHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := h.ruleIDParam(w, r)
	if !ok {
		return
	}

	if err := h.rules.Delete(ruleID); err != nil {
		if err == sql.ErrNoRows {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete rule", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
}

// ExecuteRule runs one rule's action with an empty payload, bypassing
// trigger matching. Operator-facing escape hatch for testing rules.
func (h *AutomationHandler) ExecuteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := h.ruleIDParam(w, r)
	if !ok {
		return
	}

	rule, err := h.rules.GetByID(ruleID)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
		return
	}

	h.engine.Execute(rule, map[string]any{})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "executed"})
}

func (h *AutomationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := h.ruleIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.rules.GetByID(ruleID); err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Rule not found", nil)
		return
	}

	logs, err := h.rules.ListLogsByRule(ruleID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list logs", nil)
		return
	}

	if logs == nil {
		logs = []*models.WebhookLog{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}

func (h *AutomationHandler) ruleIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	ruleID, err := strconv.ParseInt(params.ByName("rule_id"), 10, 64)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid rule id", nil)
		return 0, false
	}
	return ruleID, true
}
