package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kailas-cloud/dareg/internal/domain/actor"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Credentials resolves bearer tokens to actors: static API keys first,
// then HS256 JWTs when a secret is configured.
type Credentials struct {
	keys      map[string]actor.Actor
	jwtSecret []byte
}

// NewCredentials creates a resolver. Empty keys are ignored.
func NewCredentials(keys map[string]actor.Actor, jwtSecret string) *Credentials {
	c := &Credentials{keys: make(map[string]actor.Actor, len(keys))}
	for k, a := range keys {
		if k != "" {
			c.keys[k] = a
		}
	}
	if jwtSecret != "" {
		c.jwtSecret = []byte(jwtSecret)
	}
	return c
}

// Enabled reports whether any credential source is configured.
func (c *Credentials) Enabled() bool {
	return len(c.keys) > 0 || c.jwtSecret != nil
}

var errInvalidToken = errors.New("invalid token")

// Resolve returns the actor a bearer token stands for.
func (c *Credentials) Resolve(token string) (actor.Actor, error) {
	if a, ok := c.keys[token]; ok {
		return a, nil
	}
	if c.jwtSecret == nil {
		return actor.Actor{}, errInvalidToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return actor.Actor{}, fmt.Errorf("%w: %w", errInvalidToken, err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return actor.Actor{}, fmt.Errorf("%w: missing subject", errInvalidToken)
	}
	admin, _ := claims["admin"].(bool)
	return actor.New(sub, admin), nil
}

// BearerAuthMiddleware resolves the Authorization header into an actor
// stored in the request context. With no credentials configured every
// request passes through as the anonymous actor.
func BearerAuthMiddleware(creds *Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Auth disabled: every request runs as the anonymous actor
		if creds == nil || !creds.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			a, err := creds.Resolve(auth[len(bearerPrefix):])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}
