package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clickbazaar/api/internal/platform/httpx"
)

const bearerPrefix = "Bearer "

var errInvalidToken = errors.New("auth: invalid token")

type accessClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and exposes route middleware.
type Authenticator struct {
	secret []byte
	leeway time.Duration
	clock  func() time.Time
}

// AuthenticatorConfig configures token verification.
type AuthenticatorConfig struct {
	Secret string
	Leeway time.Duration
	Clock  func() time.Time
}

// NewAuthenticator constructs an Authenticator from the supplied configuration.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = 30 * time.Second
	}
	return &Authenticator{
		secret: []byte(secret),
		leeway: leeway,
		clock:  clock,
	}, nil
}

// Verify parses and validates a raw bearer token, returning the identity.
func (a *Authenticator) Verify(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errInvalidToken
	}

	claims := &accessClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(a.clock),
	)
	token, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	uid := strings.TrimSpace(claims.Subject)
	if uid == "" {
		return nil, errInvalidToken
	}

	return &Identity{
		UID:   uid,
		Email: strings.TrimSpace(claims.Email),
		Role:  strings.TrimSpace(claims.Role),
	}, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.identityFromRequest(r)
			if err != nil || identity == nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is present and passes
// the request through unauthenticated otherwise. Malformed tokens are still
// rejected to avoid silently downgrading callers to guests.
func (a *Authenticator) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := a.identityFromRequest(r)
			if err != nil || identity == nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "invalid bearer token", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin rejects requests whose identity does not carry the admin role.
func (a *Authenticator) RequireAdmin() func(http.Handler) http.Handler {
	requireAuth := a.RequireAuth()
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.IsAdmin() {
				httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "admin role required", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (a *Authenticator) identityFromRequest(r *http.Request) (*Identity, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return nil, errInvalidToken
	}
	return a.Verify(strings.TrimPrefix(header, bearerPrefix))
}
