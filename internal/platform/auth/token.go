package auth

import "github.com/deepugami/mini-crm/internal/platform/config"

// TokenService implements the demo auth scheme: one static bearer token,
// issued to anyone who asks and checked on every protected route.
type TokenService struct {
	token string
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{token: cfg.Token}
}

func (s *TokenService) Issue() string {
	return s.token
}

func (s *TokenService) Validate(token string) bool {
	return s.token != "" && token == s.token
}
