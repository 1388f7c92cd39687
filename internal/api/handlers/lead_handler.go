package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "github.com/deepugami/mini-crm/internal/api/context"
	"github.com/deepugami/mini-crm/internal/engine/automation"
	"github.com/deepugami/mini-crm/internal/pkg/errors"
	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

type LeadHandler struct {
	leads      *repositories.LeadRepository
	contacts   *repositories.ContactRepository
	activities *repositories.ActivityRepository
	engine     *automation.Engine
}

func NewLeadHandler(
	leads *repositories.LeadRepository,
	contacts *repositories.ContactRepository,
	activities *repositories.ActivityRepository,
	engine *automation.Engine,
) *LeadHandler {
	return &LeadHandler{leads: leads, contacts: contacts, activities: activities, engine: engine}
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContactID  string `json:"contact_id"`
		Source     string `json:"source"`
		AssignedTo string `json:"assigned_to"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if !models.ValidLeadSource(req.Source) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid source", nil)
		return
	}
	if req.AssignedTo == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "assigned_to is required", nil)
		return
	}
	if _, err := h.contacts.GetByID(req.ContactID); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid contact_id", nil)
		return
	}

	now := time.Now().Unix()
	lead := &models.Lead{
		ContactID:   req.ContactID,
		Source:      req.Source,
		AssignedTo:  req.AssignedTo,
		LastTouchAt: &now,
	}
	if err := h.leads.Create(lead); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create lead", nil)
		return
	}

	// The lead is committed; automation runs synchronously before the
	// response, so on-create actions are visible to the caller's next read.
	if err := h.engine.Dispatch("create", "lead", map[string]any{
		"lead_id":    lead.ID,
		"contact_id": lead.ContactID,
		"status":     lead.Status,
	}); err != nil {
		log.Error().Err(err).Str("lead_id", lead.ID).Msg("automation dispatch failed")
	}

	if req.Notes != "" {
		activity := &models.ActivityLog{
			LeadID:       lead.ID,
			ActivityType: models.ActivityNote,
			Text:         req.Notes,
			CreatedBy:    req.AssignedTo,
		}
		if err := h.activities.Create(activity); err != nil {
			log.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to record lead notes")
		}
	}

	// Automation may have mutated the lead already; return current state.
	if fresh, err := h.leads.GetByID(lead.ID); err == nil {
		lead = fresh
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(lead)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidLeadStatus(status) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid status", nil)
		return
	}

	leads, err := h.leads.List(status)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list leads", nil)
		return
	}

	if leads == nil {
		leads = []*models.Lead{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(leads)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	leadID := params.ByName("lead_id")

	var req struct {
		Status     *string `json:"status"`
		AssignedTo *string `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	lead, err := h.leads.GetByID(leadID)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Lead not found", nil)
		return
	}

	oldStatus := lead.Status
	if req.Status != nil {
		if !models.ValidLeadStatus(*req.Status) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid status", nil)
			return
		}
		lead.Status = *req.Status
	}
	if req.AssignedTo != nil {
		lead.AssignedTo = *req.AssignedTo
	}

	if err := h.leads.Update(lead); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update lead", nil)
		return
	}

	// Dispatch only on an actual status transition.
	if req.Status != nil && *req.Status != oldStatus {
		if err := h.engine.Dispatch("status_change", "lead", map[string]any{
			"lead_id": lead.ID,
			"status":  lead.Status,
		}); err != nil {
			log.Error().Err(err).Str("lead_id", lead.ID).Msg("automation dispatch failed")
		}
	}

	if fresh, err := h.leads.GetByID(lead.ID); err == nil {
		lead = fresh
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

func (h *LeadHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	leadID := params.ByName("lead_id")

	if _, err := h.leads.GetByID(leadID); err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Lead not found", nil)
		return
	}

	var req struct {
		ActivityType string `json:"activity_type"`
		Text         string `json:"text"`
		CreatedBy    string `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !models.ValidActivityType(req.ActivityType) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid activity_type", nil)
		return
	}
	if req.Text == "" || req.CreatedBy == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "text and created_by are required", nil)
		return
	}

	now := time.Now().Unix()
	activity := &models.ActivityLog{
		LeadID:       leadID,
		ActivityType: req.ActivityType,
		Text:         req.Text,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
	}
	if err := h.activities.Create(activity); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create activity", nil)
		return
	}

	// Any logged activity counts as touching the lead.
	if err := h.leads.Touch(leadID, now); err != nil {
		log.Error().Err(err).Str("lead_id", leadID).Msg("lead touch failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(activity)
}

func (h *LeadHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	leadID := params.ByName("lead_id")

	if _, err := h.leads.GetByID(leadID); err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Lead not found", nil)
		return
	}

	activities, err := h.activities.ListByLead(leadID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list activities", nil)
		return
	}

	if activities == nil {
		activities = []*models.ActivityLog{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(activities)
}
