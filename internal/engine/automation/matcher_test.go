package automation

import (
	"testing"

	"github.com/deepugami/mini-crm/internal/platform/models"
)

func TestMatchesOnCreate(t *testing.T) {
	rule := &models.AutomationRule{
		TriggerType:   models.TriggerOnCreate,
		TriggerConfig: map[string]any{"entity": "lead"},
	}

	if !Matches(rule, "create", "lead", nil) {
		t.Error("expected on_create rule to match create event for configured entity")
	}
	if Matches(rule, "create", "contact", nil) {
		t.Error("expected no match for a different entity")
	}
	if Matches(rule, "status_change", "lead", nil) {
		t.Error("expected no match for a different event")
	}
}

func TestMatchesOnCreateMissingConfig(t *testing.T) {
	rule := &models.AutomationRule{TriggerType: models.TriggerOnCreate}

	if Matches(rule, "create", "lead", nil) {
		t.Error("rule without a configured entity must not match")
	}
}

func TestMatchesOnCreateMalformedConfig(t *testing.T) {
	rule := &models.AutomationRule{
		TriggerType:   models.TriggerOnCreate,
		TriggerConfig: map[string]any{"entity": 42},
	}

	if Matches(rule, "create", "lead", nil) {
		t.Error("non-string entity config must degrade to non-match")
	}
}

func TestMatchesOnStageChange(t *testing.T) {
	t.Run("no status filter matches any change", func(t *testing.T) {
		rule := &models.AutomationRule{TriggerType: models.TriggerOnStageChange}

		payload := map[string]any{"status": "contacted"}
		if !Matches(rule, "status_change", "lead", payload) {
			t.Error("expected unfiltered rule to match any status change")
		}
	})

	t.Run("status filter is an exact match", func(t *testing.T) {
		rule := &models.AutomationRule{
			TriggerType:   models.TriggerOnStageChange,
			TriggerConfig: map[string]any{"status": "qualified"},
		}

		if !Matches(rule, "status_change", "lead", map[string]any{"status": "qualified"}) {
			t.Error("expected match when payload status equals the filter")
		}
		if Matches(rule, "status_change", "lead", map[string]any{"status": "contacted"}) {
			t.Error("expected no match for a different status")
		}
		if Matches(rule, "status_change", "lead", map[string]any{"status": "Qualified"}) {
			t.Error("status comparison must be case-sensitive")
		}
		if Matches(rule, "status_change", "lead", map[string]any{}) {
			t.Error("expected no match when payload carries no status")
		}
	})

	t.Run("non-string status filter never matches", func(t *testing.T) {
		rule := &models.AutomationRule{
			TriggerType:   models.TriggerOnStageChange,
			TriggerConfig: map[string]any{"status": 123},
		}

		if Matches(rule, "status_change", "lead", map[string]any{"status": "qualified"}) {
			t.Error("a status filter that is not a string is broken and must not match")
		}
	})

	t.Run("only lead status changes qualify", func(t *testing.T) {
		rule := &models.AutomationRule{TriggerType: models.TriggerOnStageChange}

		if Matches(rule, "status_change", "deal", map[string]any{"status": "won"}) {
			t.Error("expected no match for non-lead entities")
		}
		if Matches(rule, "create", "lead", map[string]any{"status": "new"}) {
			t.Error("expected no match for non-status_change events")
		}
	})
}

func TestMatchesTimeWaitNeverMatchesEvents(t *testing.T) {
	rule := &models.AutomationRule{
		TriggerType:   models.TriggerTimeWait,
		TriggerConfig: map[string]any{"entity": "lead"},
	}

	for _, event := range []string{"create", "status_change"} {
		if Matches(rule, event, "lead", map[string]any{"status": "new"}) {
			t.Errorf("time_wait rule must never match %q via event dispatch", event)
		}
	}
}

func TestMatchesUnknownTriggerType(t *testing.T) {
	rule := &models.AutomationRule{TriggerType: "on_full_moon"}

	if Matches(rule, "create", "lead", nil) {
		t.Error("unknown trigger types must not match")
	}
}
