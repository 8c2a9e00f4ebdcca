package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/fastprodman/wagerledger/internal/config"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
	// RoleGame is held by game servers reporting results.
	RoleGame = "game"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Claims is the access token payload.
type Claims struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type claimsCtxKey struct{}

// MintAccessToken signs claims with the configured secret. It is used by
// tooling and tests; the API itself only verifies tokens.
func MintAccessToken(cfg config.AuthConfig, claims Claims, now time.Time, ttl time.Duration) (string, error) {
	if cfg.AccessSecret == "" {
		return "", errors.New("jwt secret is required")
	}

	claims.Issuer = cfg.Issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}

	return signed, nil
}

func parseAccessToken(cfg config.AuthConfig, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.AccessSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == 0 {
		return nil, errors.New("token carries no user id")
	}

	return claims, nil
}

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func Authenticate(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, r, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			claims, err := parseAccessToken(cfg, strings.TrimSpace(token))
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected access token")
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if l := requestLogger(r.Context()); l != nil {
				l.UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Uint64("user_id", claims.UserID).Str("role", claims.Role)
				})
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger returns the logger attached to ctx for this request, or
// nil when zerolog.Ctx would hand back the shared fallback logger.
func requestLogger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l == zerolog.DefaultContextLogger || l.GetLevel() == zerolog.Disabled {
		return nil
	}
	return l
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims.Role == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				writeError(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return c, ok && c != nil
}

// mustClaims is for handlers mounted behind Authenticate.
func mustClaims(r *http.Request) *Claims {
	c, ok := ClaimsFromContext(r.Context())
	if !ok {
		panic("api: handler mounted without Authenticate")
	}
	return c
}
