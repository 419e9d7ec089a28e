// Package identity resolves the email address of the user behind a request.
//
// Authentication belongs to the host application. This package only reads
// the identity the host has already established: a header set by a trusted
// reverse proxy, the host's session stored in Redis, or a fixed address for
// local development.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/pkg/httputil"
	"github.com/ignite/list-subscriptions/internal/pkg/logger"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

// Provider yields the current user's email for a request.
type Provider interface {
	Email(r *http.Request) (string, error)
}

// HeaderProvider reads the email from a header set by a trusted proxy.
type HeaderProvider struct {
	Header string
}

// Email implements Provider.
func (p HeaderProvider) Email(r *http.Request) (string, error) {
	email := strings.TrimSpace(r.Header.Get(p.Header))
	if email == "" {
		return "", ErrUnauthenticated
	}
	return email, nil
}

// StaticProvider always returns the same address.
type StaticProvider struct {
	Address string
}

// Email implements Provider.
func (p StaticProvider) Email(*http.Request) (string, error) {
	if p.Address == "" {
		return "", ErrUnauthenticated
	}
	return p.Address, nil
}

// Session is the part of the host application's session record we read.
type Session struct {
	Email string `json:"email"`
}

// RedisSessionProvider looks the session cookie up in the host
// application's Redis session store under Prefix+cookie.
type RedisSessionProvider struct {
	client     *redis.Client
	cookieName string
	prefix     string
}

// NewRedisSessionProvider creates a provider reading sessions from client.
func NewRedisSessionProvider(client *redis.Client, cookieName, prefix string) *RedisSessionProvider {
	return &RedisSessionProvider{client: client, cookieName: cookieName, prefix: prefix}
}

// Email implements Provider.
func (p *RedisSessionProvider) Email(r *http.Request) (string, error) {
	cookie, err := r.Cookie(p.cookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrUnauthenticated
	}

	raw, err := p.client.Get(r.Context(), p.prefix+cookie.Value).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logger.Warn("identity: undecodable session", "cookie", p.cookieName, "error", err)
		return "", ErrUnauthenticated
	}
	email := strings.TrimSpace(s.Email)
	if email == "" {
		return "", ErrUnauthenticated
	}
	return email, nil
}

// New builds the provider selected by cfg.Mode. client is only used (and
// then required) for redis_session.
func New(cfg config.IdentityConfig, client *redis.Client) (Provider, error) {
	switch cfg.Mode {
	case config.IdentityHeader:
		return HeaderProvider{Header: cfg.Header}, nil
	case config.IdentityRedisSession:
		if client == nil {
			return nil, errors.New("identity: redis_session mode needs a redis client")
		}
		return NewRedisSessionProvider(client, cfg.CookieName, cfg.SessionPrefix), nil
	case config.IdentityStatic:
		logger.Warn("identity: static identity in use, every request acts as one user", "email", cfg.StaticEmail)
		return StaticProvider{Address: cfg.StaticEmail}, nil
	default:
		return nil, fmt.Errorf("identity: unknown mode %q", cfg.Mode)
	}
}

type emailContextKey struct{}

// WithEmail returns a copy of ctx carrying email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey{}, email)
}

// FromContext returns the email stored by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey{}).(string)
	return email, ok && email != ""
}

// Middleware resolves the identity once per request and stores it in the
// request context. Requests without an identity get a 401.
func Middleware(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := p.Email(r)
			switch {
			case errors.Is(err, ErrUnauthenticated):
				httputil.Unauthorized(w, "authentication required")
				return
			case err != nil:
				httputil.InternalError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}
