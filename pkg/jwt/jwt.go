package jwt

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Claims represents the JWT claims structure
type Claims struct {
	CredentialID uuid.UUID  `json:"credential_id"`
	ProfileID    uuid.UUID  `json:"profile_id"`
	Role         string     `json:"role"`
	BarID        *uuid.UUID `json:"bar_id,omitempty"`
	Name         string     `json:"name"`
	Permissions  []string   `json:"permissions"`
	TokenVersion string     `json:"token_version"`
	jwt.RegisteredClaims
}

var settings struct {
	sync.RWMutex
	secret string
	ttl    time.Duration
}

// Configure sets the signing secret and token lifetime. Empty or non-positive
// values fall back to JWT_SECRET / JWT_TTL_HOURS and then the defaults.
func Configure(secret string, ttl time.Duration) {
	settings.Lock()
	defer settings.Unlock()
	settings.secret = secret
	settings.ttl = ttl
}

// GetSecretKey returns the configured secret, else JWT_SECRET, else a default
func GetSecretKey() []byte {
	settings.RLock()
	secret := settings.secret
	settings.RUnlock()
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		secret = "your-super-secret-key-change-in-production"
	}
	return []byte(secret)
}

func ttl() time.Duration {
	settings.RLock()
	configured := settings.ttl
	settings.RUnlock()
	if configured > 0 {
		return configured
	}
	hours, err := strconv.Atoi(os.Getenv("JWT_TTL_HOURS"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// GenerateToken signs claims; expiry and issue time are filled in here.
func GenerateToken(claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl())),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "go-bar-manager",
		Subject:   claims.CredentialID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(GetSecretKey())
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return GetSecretKey(), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
