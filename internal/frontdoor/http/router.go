package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"

	_ "github.com/aussiebroadwan/frontdoor/api/frontdoor" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *sessions
	portals      []domain.Portal
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(
	engine *service.Engine,
	jar *CookieJar,
	portals []domain.Portal,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     &sessions{engine: engine, jar: jar},
		portals:      portals,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		tagTab,
		httpx.SecurityHeaders,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerEntry()
	r.registerContinuation()
	r.registerDashboard()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Front Door API
//	@version		0.1.0
//	@description	Single sign-on front door for the portal federation.
//	@description
//	@description	The session lives in sealed cookies: fd_session (persistent) and one fd_tab_<id> per browser tab (browser session).
//	@description	A tab names itself with the X-Frontdoor-Tab header or the tab query parameter.
//	@description	Navigation outcomes answer 303 See Other; portal handoffs carry the access token in the access_token query parameter.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/frontdoor
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerEntry() {
	entry := &EntryHandler{sessions: r.sessions}
	r.Mux.Handle("GET /{$}",
		httpx.Chain(entry,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// POST /auth/login - strict rate limit by IP + email (credential guessing)
	login := &LoginHandler{sessions: r.sessions}
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(login,
			httpx.RateLimitByIPAndBodyField(httpx.StrictLimit, "email"),
		),
	)
}

func (r *Router) registerContinuation() {
	h := &ContinueHandler{sessions: r.sessions}

	// Confirm spends a refresh token, limit it like a login
	r.Mux.Handle("POST /continue/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /continue/cancel",
		httpx.Chain(http.HandlerFunc(h.HandleCancel),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDashboard() {
	h := &DashboardHandler{sessions: r.sessions, Portals: r.portals}

	r.Mux.Handle("GET /home",
		httpx.Chain(http.HandlerFunc(h.HandleHome),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /portals/{id}/open",
		httpx.Chain(http.HandlerFunc(h.HandleOpen),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{sessions: r.sessions}

	// Status is polled by the dashboard, lenient
	r.Mux.Handle("GET /session/status",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /session/renew",
		httpx.Chain(http.HandlerFunc(h.HandleRenew),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	logout := http.HandlerFunc(h.HandleLogout)
	r.Mux.Handle("GET /logout", httpx.Chain(logout, httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /logout", httpx.Chain(logout, httpx.RateLimitByIP(httpx.ModerateLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
