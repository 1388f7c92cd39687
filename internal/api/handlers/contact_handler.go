package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "github.com/deepugami/mini-crm/internal/api/context"
	"github.com/deepugami/mini-crm/internal/pkg/errors"
	"github.com/deepugami/mini-crm/internal/pkg/validator"
	"github.com/deepugami/mini-crm/internal/platform/models"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

type ContactHandler struct {
	contacts *repositories.ContactRepository
}

func NewContactHandler(contacts *repositories.ContactRepository) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Company string `json:"company"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name == "" || req.Phone == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "name and phone are required", nil)
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	contact := &models.Contact{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Company: req.Company,
	}
	if err := h.contacts.Create(contact); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create contact", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(contact)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list contacts", nil)
		return
	}

	if contacts == nil {
		contacts = []*models.Contact{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contacts)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	contactID := params.ByName("contact_id")

	contact, err := h.contacts.GetByID(contactID)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Contact not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contact)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	contactID := params.ByName("contact_id")

	var req struct {
		Name    *string `json:"name"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
		Company *string `json:"company"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	contact, err := h.contacts.GetByID(contactID)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Contact not found", nil)
		return
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Email != nil {
		if err := validator.ValidateEmail(*req.Email); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		contact.Email = *req.Email
	}
	if req.Company != nil {
		contact.Company = *req.Company
	}

	if err := h.contacts.Update(contact); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update contact", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contact)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	contactID := params.ByName("contact_id")

	if err := h.contacts.Delete(contactID); err != nil {
		if err == sql.ErrNoRows {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Contact not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete contact", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
}
