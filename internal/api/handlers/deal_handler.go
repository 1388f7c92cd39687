package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deepugami/mini-crm/internal/pkg/errors"
	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

type DealHandler struct {
	deals *repositories.DealRepository
	leads *repositories.LeadRepository
}

func NewDealHandler(deals *repositories.DealRepository, leads *repositories.LeadRepository) *DealHandler {
	return &DealHandler{deals: deals, leads: leads}
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadID   string  `json:"lead_id"`
		Title    string  `json:"title"`
		Value    float64 `json:"value"`
		Currency string  `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Title == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "title is required", nil)
		return
	}
	// Unlike the create_deal automation action, the API path does check the
	// lead exists.
	if _, err := h.leads.GetByID(req.LeadID); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid lead_id", nil)
		return
	}

	deal := &models.Deal{
		LeadID:   req.LeadID,
		Title:    req.Title,
		Value:    req.Value,
		Currency: req.Currency,
	}
	if err := h.deals.Create(deal); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create deal", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deal)
}

func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list deals", nil)
		return
	}

	if deals == nil {
		deals = []*models.Deal{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deals)
}
