package http

import (
	"net/http"

	"github.com/classifieds-api/internal/application/account"
	"github.com/classifieds-api/internal/application/notify"
	"github.com/classifieds-api/internal/application/oauth"
	"github.com/classifieds-api/internal/application/session"
	"github.com/classifieds-api/internal/config"
	"github.com/classifieds-api/internal/infrastructure/dynamo"
	googleinfra "github.com/classifieds-api/internal/infrastructure/google"
	jwtinfra "github.com/classifieds-api/internal/infrastructure/jwt"
	s3infra "github.com/classifieds-api/internal/infrastructure/s3"
	"github.com/classifieds-api/internal/infrastructure/smtp"
	"github.com/classifieds-api/internal/infrastructure/sns"
	"github.com/classifieds-api/internal/transport/http/handler"
	appmiddleware "github.com/classifieds-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo    *dynamo.AccountRepo
	S3Store        *s3infra.Store
	Mailer         smtp.Mailer
	SMSSender      sns.SMSSender // optional; nil disables the SMS channel
	JWTProvider    *jwtinfra.Provider
	GoogleVerifier *googleinfra.Verifier
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true, // the session artifact travels in a cookie
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider, cfg.SessionCookieName)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifier := notify.NewDispatcher(deps.Mailer, deps.SMSSender)
	accountSvc := account.NewService(deps.AccountRepo, notifier, deps.S3Store)
	sessionSvc := session.NewService(deps.AccountRepo, deps.JWTProvider)
	oauthSvc := oauth.NewService(deps.AccountRepo)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(accountSvc, sessionSvc, cfg.SessionCookieName, cfg.SessionMaxAge)
	oauthH := handler.NewOAuthHandler(cfg, oauthSvc, deps.JWTProvider, deps.GoogleVerifier)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no session required) ──────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/user/register", userH.Register)
		r.With(sensitiveRL.Limit).Put("/user/verify", userH.Verify)
		r.With(sensitiveRL.Limit).Post("/user/login", userH.Login)
		r.Get("/user/logout", userH.Logout)

		r.Get("/auth/{provider}", oauthH.Redirect)
		r.Get("/auth/{provider}/callback", oauthH.Callback)

		// ── Gated routes ─────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/user/profile", userH.Profile)
			r.Post("/user/avatar", userH.Avatar)
		})
	})

	return r
}
