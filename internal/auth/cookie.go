package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session"

// sessionTTL bounds how long a browser keeps a session cookie. The
// server-side row outlives the cookie harmlessly; an expired cookie simply
// starts a fresh anonymous session.
const sessionTTL = 7 * 24 * time.Hour

// TokenService signs and verifies the session cookie.
//
// The session itself is server-side; the cookie only names it. Signing the
// token into a JWT (HS256) makes the cookie tamper-evident: a forged or
// truncated value fails verification and is treated as "no session" rather
// than risking a lookup with attacker-chosen keys.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. SESSION_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Sign wraps a session token in a signed JWT suitable for the cookie value.
func (s *TokenService) Sign(sessionToken string) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionToken,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			Issuer:    "webcompat",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session cookie: %w", err)
	}

	return signed, nil
}

// Verify parses a cookie value and returns the session token it names.
// Expired, tampered, or otherwise invalid values return an error; callers
// treat that as an anonymous visitor, not a failure.
func (s *TokenService) Verify(cookieValue string) (string, error) {
	token, err := jwt.ParseWithClaims(
		cookieValue,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("webcompat"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session cookie expired")
		}
		return "", fmt.Errorf("auth: invalid session cookie: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("auth: invalid session cookie claims")
	}

	return c.Subject, nil
}

// SetCookie writes the signed session cookie.
// HttpOnly keeps it away from JavaScript; SameSite=Lax still sends it on the
// top-level navigation back from GitHub's authorize page.
func SetCookie(w http.ResponseWriter, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
