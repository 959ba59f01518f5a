package auth

import (
	"errors"
	"time"

	"rccafe/internal/config"
	"rccafe/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what the middleware extracts from a verified token.
type Claims struct {
	UserID uint
	Role   models.Role
}

// GenerateToken signs an HS256 token for the user valid for ttl.
func GenerateToken(userID uint, role models.Role, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GeneratePair issues an access and a refresh token with the configured secrets and lifetimes.
func GeneratePair(userID uint, role models.Role) (access, refresh string, err error) {
	cfg := config.Get().JWT
	access, err = GenerateToken(userID, role, cfg.AccessTTL, cfg.AccessSecret)
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateToken(userID, role, cfg.RefreshTTL, cfg.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseToken verifies tokenString with secret and returns its claims.
func ParseToken(tokenString string, secret []byte) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = string(models.RoleCustomer)
	}
	return Claims{UserID: uint(userID), Role: models.Role(role)}, nil
}
