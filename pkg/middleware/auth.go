package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Identity carries the authenticated reviewer principal for a request.
type Identity struct {
	Subject string
	Name    string
}

type identityKey struct{}

// IdentityFrom extracts the authenticated Identity from a request context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given Identity. Exposed for
// tests that exercise identity-dependent handlers directly.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticate returns middleware that resolves the reviewer identity for
// each request. With auth enabled, bearer tokens are verified against the
// configured OIDC issuer and the subject and name claims are placed on the
// request context. With auth disabled, identity is read from the
// X-User-Id/X-User-Name headers for local development.
func Authenticate(cfg *AuthConfig, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled {
		return headerIdentity, nil
	}

	provider, err := oidc.NewProvider(context.Background(), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	logger = logger.With("system", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logger.Warn("token verification failed", "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			var claims struct {
				Name              string `json:"name"`
				PreferredUsername string `json:"preferred_username"`
			}
			if err := token.Claims(&claims); err != nil {
				logger.Warn("token claims parse failed", "error", err)
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			name := claims.Name
			if name == "" {
				name = claims.PreferredUsername
			}

			ctx := WithIdentity(r.Context(), Identity{
				Subject: token.Subject,
				Name:    name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

func headerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get("X-User-Id")
		if subject == "" {
			next.ServeHTTP(w, r)
			return
		}

		name := r.Header.Get("X-User-Name")
		if name == "" {
			name = subject
		}

		ctx := WithIdentity(r.Context(), Identity{Subject: subject, Name: name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
