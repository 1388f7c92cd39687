package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deepugami/mini-crm/internal/platform/auth"
)

type AuthHandler struct {
	tokenSvc *auth.TokenService
}

func NewAuthHandler(tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{tokenSvc: tokenSvc}
}

// Token issues the static demo token. Credentials in the request body are
// ignored on purpose.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}{
		Token:     h.tokenSvc.Issue(),
		TokenType: "bearer",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
