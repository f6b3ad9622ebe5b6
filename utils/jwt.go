package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/config"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

// Claims carries the identity provider's view of the viewer. Tokens are
// minted by the external provider; this service only validates them.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// User converts the claims into the read-only identity snapshot.
func (c *Claims) User() models.User {
	return models.User{ID: c.UserID, Name: c.Name, Image: c.Image, Role: c.Role}
}

// GenerateToken issues a JWT for the given identity. Used by local tooling
// and tests; production tokens come from the identity provider, which shares
// the signing secret.
func GenerateToken(user models.User, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Image:  user.Image,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
