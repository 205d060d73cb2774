package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/auth"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
)

type callerKey struct{}

type caller struct {
	key     *auth.APIKeyInfo
	profile *profile.Profile
}

// callerFromContext returns the authenticated caller, if any.
func callerFromContext(ctx context.Context) *caller {
	c, _ := ctx.Value(callerKey{}).(*caller)
	return c
}

// callerProfile returns the profile bound to the request's API key, or nil
// for anonymous callers.
func callerProfile(ctx context.Context) *profile.Profile {
	if c := callerFromContext(ctx); c != nil {
		return c.profile
	}
	return nil
}

// rawKey extracts the API key from the request: an Authorization bearer
// token or the X-API-Key header.
func rawKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
	}
	return r.Header.Get("X-API-Key")
}

// authenticate resolves the request's API key by computing its HMAC-SHA256
// under the pepper, looking the hash up, and constant-time comparing the
// stored hash against the computed one.
func (s *Server) authenticate(ctx context.Context, key string) (*auth.APIKeyInfo, bool) {
	mac := hmac.New(sha256.New, s.cfg.APIKeyPepper)
	mac.Write([]byte(key))
	sum := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(sum))
	if err != nil {
		return nil, false
	}
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare(sum, stored) != 1 {
		return nil, false
	}
	return info, true
}

// withCaller attaches the caller identity to the context when the request
// carries a valid profile-bound key. Anonymous requests pass through.
func (s *Server) withCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rawKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		info, ok := s.authenticate(r.Context(), key)
		if !ok {
			respondError(w, r, http.StatusUnauthorized, "invalid api key")
			return
		}
		c := &caller{key: info}
		if info.UserID != "" {
			prof, err := s.profiles.GetByID(r.Context(), info.UserID)
			if err != nil {
				zctx.From(r.Context()).Warn("Loading caller profile",
					zap.String("user_id", info.UserID), zap.Error(err))
			} else {
				c.profile = prof
			}
		}
		ctx := context.WithValue(r.Context(), callerKey{}, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects requests whose key is missing, invalid, or lacks the
// admin scope.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rawKey(r)
		if key == "" {
			respondError(w, r, http.StatusUnauthorized, "api key required")
			return
		}
		info, ok := s.authenticate(r.Context(), key)
		if !ok {
			respondError(w, r, http.StatusUnauthorized, "invalid api key")
			return
		}
		if !info.HasScope(auth.ScopeAdmin) {
			respondError(w, r, http.StatusForbidden, "admin scope required")
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, &caller{key: info})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// maintenanceGate returns 503 on the storefront surface while maintenance
// mode is enabled. The admin surface is mounted outside this gate so the
// switch can be turned back off.
func (s *Server) maintenanceGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.settings.Load(r.Context())
		if err != nil {
			zctx.From(r.Context()).Error("Loading settings", zap.Error(err))
			respondError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		if cfg.MaintenanceMode {
			respondError(w, r, http.StatusServiceUnavailable, "store is under maintenance")
			return
		}
		next.ServeHTTP(w, r)
	})
}
