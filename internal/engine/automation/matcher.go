package automation

import "github.com/deepugami/mini-crm/internal/platform/models"

// Matches reports whether an event fired by a record mutation should
// trigger the given rule.
//
// Malformed or missing trigger config never errors; it degrades to a
// non-match.
func Matches(rule *models.AutomationRule, event, entity string, payload map[string]any) bool {
	switch rule.TriggerType {
	case models.TriggerOnCreate:
		return event == "create" && stringValue(rule.TriggerConfig, "entity") == entity

	case models.TriggerOnStageChange:
		if entity != "lead" || event != "status_change" {
			return false
		}
		// No configured status means any status change matches. A status
		// that is present but not a string is a broken filter and can
		// never match.
		expected, ok := optionalString(rule.TriggerConfig, "status")
		if !ok {
			return false
		}
		if expected == "" {
			return true
		}
		return stringValue(payload, "status") == expected
	}

	// time_wait rules are evaluated by the scanner on its own timer; no
	// event ever matches them here.
	return false
}
