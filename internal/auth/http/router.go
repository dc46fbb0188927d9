package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/httpx"
	"github.com/chefstream/auth/pkg/slogx"

	_ "github.com/chefstream/auth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService *service.AuthService
	MFAService  *service.MFAService

	// Cache is pinged by /readyz when set.
	Cache Pinger

	FrontendURL  string
	CookieSecure bool
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerGoogle()
	r.registerSessions()
	r.registerMFA()
	r.registerNotifications()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			ChefStream Authentication Service API
//	@version		0.1.0
//	@description	Password and Google sign-in with TOTP two-factor, server-side sessions and a security event log.
//	@description
//	@description				Access tokens are HS256 JWTs bound to a session. They are accepted from the access_token cookie or a bearer header.
//
//	@contact.name				ChefStream Team
//	@contact.url				https://github.com/chefstream/auth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
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
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured requires a live session and limits per user.
func (r *Router) secured(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(authenticator(r.AuthService)),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Auth:         r.AuthService,
		CookieTTL:    r.AuthService.Tokens.AccessTTL,
		CookieSecure: r.CookieSecure,
	}

	// credential endpoints share the strict profile
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/token",
		httpx.Chain(http.HandlerFunc(h.HandleToken),
			// JSON logins send "email", OAuth2 password forms send "username"
			httpx.RateLimitByIPAndField(httpx.StrictLimit, "email", "username"),
		),
	)
	r.Mux.Handle("POST /v1/auth/verify-2fa",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyTwoFactor),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/me", r.secured(h.HandleMe, httpx.LenientLimit))
}

func (r *Router) registerGoogle() {
	h := &GoogleHandler{
		Auth:         r.AuthService,
		FrontendURL:  r.FrontendURL,
		CookieTTL:    r.AuthService.Tokens.AccessTTL,
		CookieSecure: r.CookieSecure,
	}

	r.Mux.Handle("GET /v1/auth/google/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/google/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{Auth: r.AuthService}

	r.Mux.Handle("GET /v1/security/sessions", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/security/sessions/revoke-others", r.secured(h.HandleRevokeOthers, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/security/sessions/{id}/revoke", r.secured(h.HandleRevoke, httpx.ModerateLimit))
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFA: r.MFAService}

	r.Mux.Handle("POST /v1/security/2fa/setup", r.secured(h.HandleSetup, httpx.ModerateLimit))
	// code guessing gets the strict profile
	r.Mux.Handle("POST /v1/security/2fa/enable", r.secured(h.HandleEnable, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/security/2fa/disable", r.secured(h.HandleDisable, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/security/2fa/backup-codes", r.secured(h.HandleRegenerateBackupCodes, httpx.StrictLimit))
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{Auth: r.AuthService}

	r.Mux.Handle("POST /v1/security/notifications/toggle", r.secured(h.HandleToggle, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/security/events", r.secured(h.HandleEvents, httpx.LenientLimit))
}

func (r *Router) registerSystem() {
	// monitoring may poll often
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Cache),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
