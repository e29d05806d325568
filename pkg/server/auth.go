package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/archivist/pkg/config"
)

// APIKeyHeader is the alternative header carrying an API key.
const APIKeyHeader = "X-API-Key"

var (
	errNoAPIKey       = errors.New("no API key found")
	errInvalidAPIKey  = errors.New("invalid API key")
	errDisabledAPIKey = errors.New("API key disabled")
)

// APIKeyValidator checks API keys against the configured set.
type APIKeyValidator struct {
	keys map[string]config.APIKeyConfig
}

// NewAPIKeyValidator creates a validator for keys.
func NewAPIKeyValidator(keys []config.APIKeyConfig) *APIKeyValidator {
	m := make(map[string]config.APIKeyConfig, len(keys))
	for _, k := range keys {
		m[k.Key] = k
	}
	return &APIKeyValidator{keys: m}
}

// Validate returns the name of the caller owning key.
func (v *APIKeyValidator) Validate(key string) (string, error) {
	info, ok := v.keys[key]
	if !ok {
		return "", errInvalidAPIKey
	}
	if info.Disabled {
		return "", errDisabledAPIKey
	}
	return info.Name, nil
}

// APIKeyMiddleware rejects requests without a valid API key. A nil validator
// lets every request through.
func APIKeyMiddleware(v *APIKeyValidator, next http.Handler) http.Handler {
	if v == nil {
		return next
	}
	logger := slog.Default().With("component", "server.auth")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := extractAPIKey(r)
		if err == nil {
			var caller string
			caller, err = v.Validate(key)
			if err == nil {
				logger.Debug("API key authenticated", "caller", caller, "path", r.URL.Path)
				next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
				return
			}
		}

		logger.Warn("rejected unauthenticated request",
			"error", err,
			"remote_addr", r.RemoteAddr,
			"path", r.URL.Path,
		)
		w.Header().Set("WWW-Authenticate", `Bearer realm="archivist"`)
		writeError(w, http.StatusUnauthorized, ErrorTypeUnauthorized, "missing or invalid API key")
	})
}

func extractAPIKey(r *http.Request) (string, error) {
	if value := r.Header.Get("Authorization"); value != "" {
		if key, ok := strings.CutPrefix(value, "Bearer "); ok && key != "" {
			return key, nil
		}
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, nil
	}
	return "", errNoAPIKey
}

type callerKey struct{}

func withCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// Caller returns the name of the authenticated API key, if any.
func Caller(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	return caller, ok
}
