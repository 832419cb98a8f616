package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/unread/models"
	"github.com/akinalp/unread/pkg"
)

// tokenIssuer, imzalanan token'ların "iss" claim'i.
const tokenIssuer = "unread"

// TokenService, JWT access token doğrulama (ve geliştirme için üretme) interface'i.
//
// Token'ları normalde kimlik sistemi üretir; bu servis aynı secret ile
// doğrular. Issue, `unread token` komutu ve testler içindir.
type TokenService interface {
	Issue(userID, username string) (string, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type tokenService struct {
	jwtSecret []byte
	accessExp time.Duration
}

// NewTokenService, constructor. accessExpiryMinutes dakika cinsindendir.
func NewTokenService(jwtSecret string, accessExpiryMinutes int) TokenService {
	return &tokenService{
		jwtSecret: []byte(jwtSecret),
		accessExp: time.Duration(accessExpiryMinutes) * time.Minute,
	}
}

func (s *tokenService) Issue(userID, username string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", pkg.ErrBadRequest)
	}

	now := time.Now()
	claims := models.TokenClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *tokenService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}
