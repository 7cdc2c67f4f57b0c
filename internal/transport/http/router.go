package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/idverse-gateway/internal/application/auth"
	"github.com/idverse-gateway/internal/application/reconcile"
	"github.com/idverse-gateway/internal/application/verification"
	"github.com/idverse-gateway/internal/config"
	"github.com/idverse-gateway/internal/infrastructure/dynamo"
	"github.com/idverse-gateway/internal/infrastructure/idverse"
	jwtinfra "github.com/idverse-gateway/internal/infrastructure/jwt"
	"github.com/idverse-gateway/internal/infrastructure/sns"
	"github.com/idverse-gateway/internal/transport/http/handler"
	appmiddleware "github.com/idverse-gateway/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	VerificationRepo *dynamo.VerificationRepo
	TokenCache       *idverse.TokenCache
	ProviderClient   *idverse.Client
	Alerts           sns.AlertPublisher
	JWTProvider      *jwtinfra.Provider
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
		AllowCredentials: false,
		MaxAge:           300,
	}))

	webhookMw := appmiddleware.Bearer(deps.JWTProvider,
		jwtinfra.SubjectWebhookComplete, jwtinfra.SubjectWebhookEvent)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verifySvc := verification.NewService(deps.VerificationRepo, deps.ProviderClient, deps.Alerts)
	reconcileSvc := reconcile.NewService(deps.VerificationRepo)
	authSvc := auth.NewService(deps.JWTProvider, cfg.SessionTokenTTL, cfg.ExchangeKeyTTL)

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerifyHandler(verifySvc)
	updateH := handler.NewUpdateHandler(reconcileSvc)
	authH := handler.NewAuthHandler(authSvc, cfg.AuthKey)
	oauthH := handler.NewOAuthHandler(deps.TokenCache, cfg)
	defaultsH := handler.NewDefaultsHandler(cfg.Defaults)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.With(sensitiveRL.Limit).Post("/verify", verifyH.Verify)
		r.Post("/verify/test", verifyH.VerifyTest)
		r.Get("/verifications", verifyH.List)
		r.Get("/verifications/{id}", verifyH.Get)
		r.Get("/status/reference/{referenceId}", verifyH.StatusByReference)
		r.Get("/status/transaction/{transactionId}", verifyH.StatusByTransaction)

		r.Post("/updateStatus", updateH.UpdateStatus)
		r.With(webhookMw).Post("/webhook", updateH.Webhook)

		r.With(sensitiveRL.Limit).Get("/getAuth", authH.GetAuth)
		r.Get("/auth/session", authH.Session)

		r.Post("/3.5/oauthToken", oauthH.MockToken)
		r.Get("/defaults", defaultsH.Get)
	})

	r.Route("/test", func(r chi.Router) {
		r.Get("/oauth", oauthH.TestOAuth)
		r.Post("/oauth/clear", oauthH.ClearCache)
		r.Get("/config", oauthH.TestConfig)
	})

	return r
}
