package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/metrics"
	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/httpx"
	"github.com/qwanyx/qwanyx/pkg/jwtx"
	"github.com/qwanyx/qwanyx/pkg/slogx"

	_ "github.com/qwanyx/qwanyx/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	CodeService      *service.CodeService
	UserService      *service.UserService
	WorkspaceService *service.WorkspaceService
	ContactService   *service.ContactService

	// Limiter selects the rate-limit store. Nil keeps limits in process.
	Limiter *httpx.RateLimiter
	// Metrics is optional; nil disables /metrics and request timing.
	Metrics *metrics.Metrics
	// AdminTokenHash guards /v1/workspaces. Empty disables those routes.
	AdminTokenHash string
	// CachePing reports the shared rate-limit store health in /readyz.
	CachePing func(context.Context) error
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

func (r *Router) ApplyRoutes() {
	// Request timing must wrap the mux directly so it sees the matched pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if r.Metrics != nil {
		r.middlewares = append(r.middlewares, r.Metrics.Middleware)
	}

	r.registerAuth()
	r.registerUsers()
	r.registerContacts()
	r.registerWorkspaces()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			QWANYX Workspace Authentication API
//	@version		0.1.0
//	@description	Passwordless, multi-tenant authentication. Request a 6-digit code by email, exchange it for a workspace-scoped bearer token.
//	@description
//	@description				Tokens are signed using EdDSA (Ed25519) and can be verified using the JWKS endpoint.
//
//	@contact.name				QWANYX
//	@contact.url				https://qwanyx.com
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						X-Admin-Token
//	@description				Operator token for workspace administration.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{CodeService: r.CodeService}

	// Code issuance - strict limit by IP + email (mail spam and enumeration)
	requestCode := httpx.Chain(http.HandlerFunc(h.HandleRequestCode),
		r.Limiter.ByIPAndJSONField(httpx.StrictLimit, "email"),
	)
	r.Mux.Handle("POST /v1/auth/request-code", requestCode)
	r.Mux.Handle("POST /v1/auth/login", requestCode)

	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			r.Limiter.ByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// Verification - strict limit by IP (brute force of 6-digit codes)
	r.Mux.Handle("POST /v1/auth/verify-code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyCode),
			r.Limiter.ByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	me := &MeHandler{UserService: r.UserService}
	users := &UsersHandler{UserService: r.UserService}

	authed := func(h http.HandlerFunc, extra ...httpx.Middleware) http.Handler {
		mws := append([]httpx.Middleware{
			httpx.AuthnMiddleware(r.verifier), // verify JWT (iss/aud/exp/workspace)
			r.Limiter.ByUser(httpx.ModerateLimit),
		}, extra...)
		return httpx.Chain(h, mws...)
	}
	admin := RequireWorkspaceAdmin(r.UserService)

	r.Mux.Handle("GET /v1/me", authed(me.HandleMe))
	r.Mux.Handle("GET /v1/me/sessions", authed(me.HandleSessions))
	r.Mux.Handle("PUT /v1/users/{id}/profile", authed(me.HandleUpdateProfile))

	r.Mux.Handle("GET /v1/users", authed(users.HandleList, admin))
	r.Mux.Handle("POST /v1/users", authed(users.HandleCreate, admin))
	r.Mux.Handle("GET /v1/users/{id}", authed(users.HandleGet, admin))
	r.Mux.Handle("PUT /v1/users/{id}", authed(users.HandleUpdate, admin))
	r.Mux.Handle("DELETE /v1/users/{id}", authed(users.HandleDelete, admin))
}

func (r *Router) registerContacts() {
	// Public form - moderate limit by IP
	r.Mux.Handle("POST /v1/contacts",
		httpx.Chain(&ContactsHandler{ContactService: r.ContactService},
			r.Limiter.ByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerWorkspaces() {
	h := &WorkspacesHandler{WorkspaceService: r.WorkspaceService}

	guarded := func(hf http.HandlerFunc) http.Handler {
		return httpx.Chain(hf,
			r.Limiter.ByIP(httpx.StrictLimit),
			RequireAdminToken(r.AdminTokenHash),
		)
	}

	r.Mux.Handle("POST /v1/workspaces", guarded(h.HandleCreate))
	r.Mux.Handle("GET /v1/workspaces", guarded(h.HandleList))
	r.Mux.Handle("POST /v1/workspaces/{code}/deactivate", guarded(h.HandleDeactivate))
}

func (r *Router) registerSystem() {
	sys := &SystemHandler{
		StartTime: r.startTime,
		Version:   r.buildVersion,
		Store:     r.store,
		Keys:      r.keys,
		CachePing: r.CachePing,
	}

	// Probes may be polled often by orchestrators and monitoring.
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(sys.HandleLivez), r.Limiter.ByIP(httpx.LenientLimit)))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(sys.HandleReadyz), r.Limiter.ByIP(httpx.LenientLimit)))

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(http.HandlerFunc(sys.HandleJWKS), r.Limiter.ByIP(httpx.PublicLimit)))

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
