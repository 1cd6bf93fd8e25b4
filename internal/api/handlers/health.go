package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/hlog"

	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
)

// Pinger is a backing store the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler probes the backing stores.
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health reports "ok" per dependency, or the error it returned.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	code := errcode.Success
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			status[name] = err.Error()
			code = errcode.InternalServerError
			continue
		}
		status[name] = "ok"
	}
	response.Write(w, code, map[string]any{"checks": status})
}
