package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deepugami/mini-crm/internal/api/handlers"
	"github.com/deepugami/mini-crm/internal/api/middleware"
	"github.com/deepugami/mini-crm/internal/engine/automation"
	"github.com/deepugami/mini-crm/internal/platform/auth"
	"github.com/deepugami/mini-crm/internal/platform/config"
	"github.com/deepugami/mini-crm/internal/platform/database"
	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

const testToken = "test-token"

type apiHarness struct {
	server *httptest.Server
	db     *sql.DB
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	contacts := repositories.NewContactRepository(db)
	leads := repositories.NewLeadRepository(db)
	deals := repositories.NewDealRepository(db)
	activities := repositories.NewActivityRepository(db)
	rules := repositories.NewRuleRepository(db)

	engine := automation.NewEngine(rules, leads, deals, activities, 2*time.Second)
	tokenSvc := auth.NewTokenService(config.AuthConfig{Token: testToken})

	router := NewRouter(&Dependencies{
		AuthHandler:       handlers.NewAuthHandler(tokenSvc),
		ContactHandler:    handlers.NewContactHandler(contacts),
		LeadHandler:       handlers.NewLeadHandler(leads, contacts, activities, engine),
		DealHandler:       handlers.NewDealHandler(deals, leads),
		AutomationHandler: handlers.NewAutomationHandler(rules, engine),
		HealthHandler:     handlers.NewHealthHandler(db),
		AuthMiddleware:    middleware.NewAuthMiddleware(tokenSvc),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})
	return &apiHarness{server: server, db: db}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	return h.doWithToken(t, method, path, testToken, body)
}

func (h *apiHarness) doWithToken(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func decodeInto(t *testing.T, data []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("Failed to decode response %s: %v", data, err)
	}
}

func (h *apiHarness) createContact(t *testing.T) *models.Contact {
	t.Helper()

	resp, body := h.do(t, http.MethodPost, "/api/v1/contacts", map[string]any{
		"name":  "Ada Lovelace",
		"phone": "+1-555-0100",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("contact create returned %d: %s", resp.StatusCode, body)
	}
	var contact models.Contact
	decodeInto(t, body, &contact)
	return &contact
}

func (h *apiHarness) createLead(t *testing.T, contactID string) *models.Lead {
	t.Helper()

	resp, body := h.do(t, http.MethodPost, "/api/v1/leads", map[string]any{
		"contact_id":  contactID,
		"source":      models.LeadSourceOrganic,
		"assigned_to": "alice",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("lead create returned %d: %s", resp.StatusCode, body)
	}
	var lead models.Lead
	decodeInto(t, body, &lead)
	return &lead
}

func (h *apiHarness) createRule(t *testing.T, rule map[string]any) int64 {
	t.Helper()

	resp, body := h.do(t, http.MethodPost, "/api/v1/automation/rules", rule)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("rule create returned %d: %s", resp.StatusCode, body)
	}
	var created models.AutomationRule
	decodeInto(t, body, &created)
	return created.ID
}

func TestAuthRequired(t *testing.T) {
	h := newAPIHarness(t)

	resp, _ := h.doWithToken(t, http.MethodGet, "/api/v1/contacts", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", resp.StatusCode)
	}

	resp, _ = h.doWithToken(t, http.MethodGet, "/api/v1/contacts", "wrong", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: expected 401, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/contacts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", resp.StatusCode)
	}
}

func TestTokenEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	resp, body := h.doWithToken(t, http.MethodPost, "/api/v1/auth/token", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var out map[string]string
	decodeInto(t, body, &out)
	if out["token"] != testToken || out["token_type"] != "bearer" {
		t.Errorf("unexpected token response: %v", out)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	resp, body := h.doWithToken(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}
	decodeInto(t, body, &out)
	if out.Status != "healthy" {
		t.Errorf("expected healthy, got %q", out.Status)
	}
	if out.Timestamp == 0 {
		t.Error("expected a timestamp in the health response")
	}
}

// A new lead fires an on_create rule exactly once, leaving a welcome note
// and a touched lead behind before the create response returns.
func TestLeadCreateTriggersWelcomeActivity(t *testing.T) {
	h := newAPIHarness(t)
	contact := h.createContact(t)

	h.createRule(t, map[string]any{
		"name":           "welcome-note",
		"trigger_type":   models.TriggerOnCreate,
		"trigger_config": map[string]any{"entity": "lead"},
		"action_type":    models.ActionCreateActivity,
		"action_config":  map[string]any{"text": "Welcome!", "created_by": "bot"},
	})

	lead := h.createLead(t, contact.ID)
	if lead.LastTouchAt == nil {
		t.Error("expected lead to be touched on create")
	}

	resp, body := h.do(t, http.MethodGet, "/api/v1/leads/"+lead.ID+"/activity", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activity list returned %d: %s", resp.StatusCode, body)
	}
	var activities []*models.ActivityLog
	decodeInto(t, body, &activities)
	if len(activities) != 1 {
		t.Fatalf("expected exactly one welcome activity, got %d", len(activities))
	}
	if activities[0].Text != "Welcome!" || activities[0].CreatedBy != "bot" {
		t.Errorf("unexpected activity: %+v", activities[0])
	}
}

// A stage-change rule filtered to qualified fires only on the transition
// into that status.
func TestStageChangeRuleCreatesDeal(t *testing.T) {
	h := newAPIHarness(t)
	contact := h.createContact(t)
	lead := h.createLead(t, contact.ID)

	h.createRule(t, map[string]any{
		"name":           "qualified-deal",
		"trigger_type":   models.TriggerOnStageChange,
		"trigger_config": map[string]any{"status": models.LeadStatusQualified},
		"action_type":    models.ActionCreateDeal,
		"action_config":  map[string]any{"title": "Qualified deal", "value": 500},
	})

	// contacted does not match the filter.
	resp, body := h.do(t, http.MethodPatch, "/api/v1/leads/"+lead.ID, map[string]any{
		"status": models.LeadStatusContacted,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lead patch returned %d: %s", resp.StatusCode, body)
	}

	resp, body = h.do(t, http.MethodGet, "/api/v1/deals", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deal list returned %d: %s", resp.StatusCode, body)
	}
	var deals []*models.Deal
	decodeInto(t, body, &deals)
	if len(deals) != 0 {
		t.Fatalf("expected no deals after contacted, got %d", len(deals))
	}

	resp, body = h.do(t, http.MethodPatch, "/api/v1/leads/"+lead.ID, map[string]any{
		"status": models.LeadStatusQualified,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lead patch returned %d: %s", resp.StatusCode, body)
	}

	_, body = h.do(t, http.MethodGet, "/api/v1/deals", nil)
	decodeInto(t, body, &deals)
	if len(deals) != 1 {
		t.Fatalf("expected one deal after qualification, got %d", len(deals))
	}
	if deals[0].LeadID != lead.ID || deals[0].Value != 500 || deals[0].Title != "Qualified deal" {
		t.Errorf("unexpected deal: %+v", deals[0])
	}
}

func TestManualRuleExecution(t *testing.T) {
	h := newAPIHarness(t)

	ruleID := h.createRule(t, map[string]any{
		"name":         "manual-email",
		"trigger_type": models.TriggerTimeWait,
		"action_type":  models.ActionEmail,
	})

	resp, body := h.do(t, http.MethodPost, "/api/v1/automation/rules/1/execute", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("execute returned %d: %s", resp.StatusCode, body)
	}
	var out map[string]string
	decodeInto(t, body, &out)
	if out["message"] != "executed" {
		t.Errorf("unexpected execute response: %v", out)
	}

	_, body = h.do(t, http.MethodGet, "/api/v1/automation/rules/1/logs", nil)
	var logs []*models.WebhookLog
	decodeInto(t, body, &logs)
	if len(logs) != 1 || logs[0].ResponseBody != "EMAIL_SENT" || logs[0].RuleID != ruleID {
		t.Errorf("expected one EMAIL_SENT log, got %+v", logs)
	}

	resp, _ = h.do(t, http.MethodPost, "/api/v1/automation/rules/999/execute", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing rule, got %d", resp.StatusCode)
	}
}

func TestRuleLifecycle(t *testing.T) {
	h := newAPIHarness(t)
	contact := h.createContact(t)

	h.createRule(t, map[string]any{
		"name":           "lifecycle",
		"trigger_type":   models.TriggerOnCreate,
		"trigger_config": map[string]any{"entity": "lead"},
		"action_type":    models.ActionCreateActivity,
		"action_config":  map[string]any{"text": "hi"},
	})

	// Duplicate names are rejected.
	resp, _ := h.do(t, http.MethodPost, "/api/v1/automation/rules", map[string]any{
		"name":         "lifecycle",
		"trigger_type": models.TriggerOnCreate,
		"action_type":  models.ActionEmail,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 on duplicate name, got %d", resp.StatusCode)
	}

	// Deactivated rules stop firing.
	resp, body := h.do(t, http.MethodPatch, "/api/v1/automation/rules/1", map[string]any{"active": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rule patch returned %d: %s", resp.StatusCode, body)
	}

	lead := h.createLead(t, contact.ID)
	_, body = h.do(t, http.MethodGet, "/api/v1/leads/"+lead.ID+"/activity", nil)
	var activities []*models.ActivityLog
	decodeInto(t, body, &activities)
	if len(activities) != 0 {
		t.Errorf("inactive rule must not fire, got %d activities", len(activities))
	}

	resp, _ = h.do(t, http.MethodDelete, "/api/v1/automation/rules/1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rule delete returned %d", resp.StatusCode)
	}
	resp, _ = h.do(t, http.MethodGet, "/api/v1/automation/rules/1/logs", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestInvalidRuleInput(t *testing.T) {
	h := newAPIHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/automation/rules", map[string]any{
		"name":         "bad-trigger",
		"trigger_type": "on_delete",
		"action_type":  models.ActionEmail,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown trigger, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodPost, "/api/v1/automation/rules", map[string]any{
		"name":         "bad-action",
		"trigger_type": models.TriggerOnCreate,
		"action_type":  "sms",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodPatch, "/api/v1/automation/rules/abc", map[string]any{"active": true})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric rule id, got %d", resp.StatusCode)
	}
}

func TestLeadValidation(t *testing.T) {
	h := newAPIHarness(t)
	contact := h.createContact(t)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/leads", map[string]any{
		"contact_id":  contact.ID,
		"source":      "billboard",
		"assigned_to": "alice",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid source, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodPost, "/api/v1/leads", map[string]any{
		"contact_id":  "missing",
		"source":      models.LeadSourceOrganic,
		"assigned_to": "alice",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown contact, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/leads?status=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status filter, got %d", resp.StatusCode)
	}
}

func TestDealRequiresExistingLead(t *testing.T) {
	h := newAPIHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/deals", map[string]any{
		"lead_id": "missing",
		"title":   "Ghost deal",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown lead, got %d", resp.StatusCode)
	}

	contact := h.createContact(t)
	lead := h.createLead(t, contact.ID)

	resp, body := h.do(t, http.MethodPost, "/api/v1/deals", map[string]any{
		"lead_id": lead.ID,
		"title":   "Real deal",
		"value":   1200.50,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("deal create returned %d: %s", resp.StatusCode, body)
	}
	var deal models.Deal
	decodeInto(t, body, &deal)
	if deal.Stage != models.DealStageNew || deal.Currency != "USD" {
		t.Errorf("expected default stage/currency, got %+v", deal)
	}
}

func TestContactCRUD(t *testing.T) {
	h := newAPIHarness(t)
	contact := h.createContact(t)

	resp, body := h.do(t, http.MethodPatch, "/api/v1/contacts/"+contact.ID, map[string]any{
		"company": "Analytical Engines Ltd",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contact patch returned %d: %s", resp.StatusCode, body)
	}
	var updated models.Contact
	decodeInto(t, body, &updated)
	if updated.Company != "Analytical Engines Ltd" || updated.Name != contact.Name {
		t.Errorf("unexpected contact after patch: %+v", updated)
	}

	resp, _ = h.do(t, http.MethodDelete, "/api/v1/contacts/"+contact.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contact delete returned %d", resp.StatusCode)
	}
	resp, _ = h.do(t, http.MethodGet, "/api/v1/contacts/"+contact.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}
