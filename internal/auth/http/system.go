package http

import (
	"context"
	"net/http"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/authsdk"
	"github.com/qwanyx/qwanyx/pkg/httpx"
	"github.com/qwanyx/qwanyx/pkg/jwtx"
)

// SystemHandler serves the probes and the public key set.
type SystemHandler struct {
	StartTime time.Time
	Version   string
	Store     store.Store
	Keys      *jwtx.KeySet
	// CachePing is nil when no shared rate-limit store is configured.
	CachePing func(context.Context) error
}

func (h *SystemHandler) health(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartTime).Round(time.Second).String(),
		Version: h.Version,
	}
}

// HandleLivez godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe. Answers 200 whenever the process serves HTTP.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get].
func (h *SystemHandler) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.health("ok"))
}

// HandleReadyz godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe. The store and the signing key gate readiness; a failing
//	@Description	shared rate-limit store only degrades the status, since limits fail open.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse
//	@Router			/readyz [get].
func (h *SystemHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := &authsdk.HealthChecks{
		Database: probe(ctx, h.Store.Ping),
		Signer:   "ok",
	}
	if !h.Keys.IsReady() {
		checks.Signer = "error: no signing key loaded"
	}
	if h.CachePing != nil {
		checks.Cache = probe(ctx, h.CachePing)
	}

	resp := h.health("ok")
	resp.Checks = checks
	status := http.StatusOK

	switch {
	case checks.Database != "ok" || checks.Signer != "ok":
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	case checks.Cache != "" && checks.Cache != "ok":
		resp.Status = "degraded"
	}

	httpx.WriteJSON(w, status, resp)
}

// HandleJWKS godoc
//
//	@Summary		Get JWKS
//	@Description	Public keys for verifying access tokens offline.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse
//	@Router			/.well-known/jwks.json [get].
func (h *SystemHandler) HandleJWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(h.Keys.PublicJWKS()))
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
