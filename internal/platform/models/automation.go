package models

const (
	TriggerOnCreate      = "on_create"
	TriggerOnStageChange = "on_stage_change"
	TriggerTimeWait      = "time_wait"
)

const (
	ActionWebhook        = "webhook"
	ActionCreateActivity = "create_activity"
	ActionUpdateStatus   = "update_status"
	ActionCreateDeal     = "create_deal"
	ActionEmail          = "email"
)

func ValidTriggerType(triggerType string) bool {
	switch triggerType {
	case TriggerOnCreate, TriggerOnStageChange, TriggerTimeWait:
		return true
	}
	return false
}

func ValidActionType(actionType string) bool {
	switch actionType {
	case ActionWebhook, ActionCreateActivity, ActionUpdateStatus, ActionCreateDeal, ActionEmail:
		return true
	}
	return false
}

// AutomationRule pairs a trigger with an action. Both config maps are
// free-form JSON documents; their shape depends on the trigger/action type
// and is not validated at write time. A misconfigured rule no-ops when it
// fires instead of failing at creation.
type AutomationRule struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	TriggerType   string         `json:"trigger_type"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty"`
	ActionType    string         `json:"action_type"`
	ActionConfig  map[string]any `json:"action_config,omitempty"`
	Active        bool           `json:"active"`
	CreatedAt     int64          `json:"created_at"`
}

// WebhookLog is an append-only execution record. ResponseStatus 0 marks a
// transport-level failure rather than a real HTTP status.
type WebhookLog struct {
	ID             int64          `json:"id"`
	RuleID         int64          `json:"rule_id"`
	RequestPayload map[string]any `json:"request_payload,omitempty"`
	ResponseStatus int            `json:"response_status"`
	ResponseBody   string         `json:"response_body,omitempty"`
	CreatedAt      int64          `json:"created_at"`
}
