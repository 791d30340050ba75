package api

import (
	"encoding/json"
	"net/http"

	"github.com/permupdate/permtrack/backend/internal/auth"
	"github.com/permupdate/permtrack/backend/internal/cache"
	"github.com/rs/zerolog"
)

// AdminHandler handles operational endpoints for the dashboard backend
type AdminHandler struct {
	cache  *cache.ResponseCache
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(responseCache *cache.ResponseCache, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		cache:  responseCache,
		logger: logger.With().Str("component", "admin_handler").Logger(),
	}
}

// RequireAdmin middleware — only admin role allowed
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || !auth.HasRole(claims, "admin") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnalystOrAdmin middleware — analyst or admin role allowed
func RequireAnalystOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || (claims.Role != "admin" && claims.Role != "analyst") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"analyst or admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PurgeCache drops every cached dashboard payload so the next request
// rereads the aggregate store. Used after a manual data backfill.
func (h *AdminHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	cleared := h.cache.Purge()

	h.logger.Info().Int("cleared", cleared).Msg("response cache purged via admin")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "response cache purged",
		"cleared": cleared,
	})
}
