package observer

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no authentication token is provided.
	ErrMissingToken = errors.New("missing authentication token")
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid authentication token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Authenticator extracts and validates a caller's identity from the
// upgrade request, gating access to a graph's state-change stream.
type Authenticator interface {
	Authenticate(r *http.Request) (subject string, err error)
}

// JWTAuth implements Authenticator using HMAC-signed JWT bearer tokens,
// grounded on the teacher's internal/infrastructure/websocket/auth.go.
type JWTAuth struct {
	secretKey string
}

// NewJWTAuth constructs a JWTAuth bound to an HMAC secret.
func NewJWTAuth(secretKey string) *JWTAuth { return &JWTAuth{secretKey: secretKey} }

type jwtClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// Authenticate tries the Authorization header first, then a "token" query
// parameter, matching the teacher's fallback order for browser clients
// that cannot set custom headers on a websocket upgrade.
func (a *JWTAuth) Authenticate(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return a.validate(strings.TrimPrefix(header, "Bearer "))
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return a.validate(token)
	}
	return "", ErrMissingToken
}

func (a *JWTAuth) validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(a.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", ErrInvalidToken
}

// GenerateToken issues a token for subject, useful in tests and for the
// host application to mint short-lived observer credentials.
func (a *JWTAuth) GenerateToken(subject string, expiresAt time.Time) (string, error) {
	claims := jwtClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secretKey))
}

// NoAuth accepts every connection, for local development.
type NoAuth struct{}

// NewNoAuth constructs a no-op Authenticator.
func NewNoAuth() *NoAuth { return &NoAuth{} }

// Authenticate always succeeds.
func (NoAuth) Authenticate(r *http.Request) (string, error) {
	if subject := r.URL.Query().Get("subject"); subject != "" {
		return subject, nil
	}
	return "anonymous", nil
}
