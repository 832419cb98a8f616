package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, JWT access token'ın payload'ı.
//
// Token'lar kimlik sisteminden gelir; bu servis sadece doğrular.
// Birden fazla katman (services, ws, middleware) kullandığı için models'te durur.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
