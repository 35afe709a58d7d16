package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielcastano/eventgate-backend/api/controllers"
	entitlementcontrollers "github.com/danielcastano/eventgate-backend/api/controllers/entitlements"
	ledgercontrollers "github.com/danielcastano/eventgate-backend/api/controllers/ledger"
	ordercontrollers "github.com/danielcastano/eventgate-backend/api/controllers/orders"
	webhookcontrollers "github.com/danielcastano/eventgate-backend/api/controllers/webhooks"
	"github.com/danielcastano/eventgate-backend/api/middleware"
	"github.com/danielcastano/eventgate-backend/internal/auth"
	"github.com/danielcastano/eventgate-backend/internal/entitlements"
	"github.com/danielcastano/eventgate-backend/internal/ledger"
	"github.com/danielcastano/eventgate-backend/internal/orders"
	paymentswebhook "github.com/danielcastano/eventgate-backend/internal/webhooks/payments"
	"github.com/danielcastano/eventgate-backend/pkg/auth/session"
	"github.com/danielcastano/eventgate-backend/pkg/config"
	"github.com/danielcastano/eventgate-backend/pkg/db"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
	"github.com/danielcastano/eventgate-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	ordersService orders.Service,
	entitlementsService entitlements.Service,
	ledgerService ledger.Service,
	paymentsWebhookService *paymentswebhook.Service,
	paymentsWebhookGuard *paymentswebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentsWebhook(paymentsWebhookService, cfg.Payments.WebhookSecret, paymentsWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Get("/{orderId}/history", ordercontrollers.History(ordersService, logg))
			r.Post("/{orderId}/transitions", ordercontrollers.Transition(ordersService, logg))
			r.Post("/{orderId}/transitions/validate", ordercontrollers.ValidateTransition(ordersService, logg))
			r.Post("/{orderId}/refund-request", ordercontrollers.RequestRefund(ordersService, logg))
		})

		r.Route("/v1/entitlements", func(r chi.Router) {
			r.Get("/", entitlementcontrollers.ListMine(entitlementsService, logg))
			r.Post("/{entitlementId}/code", entitlementcontrollers.GenerateCode(entitlementsService, logg))
			r.Post("/{entitlementId}/transfer", entitlementcontrollers.Transfer(entitlementsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, enums.UserRoleScanner, enums.UserRoleAdmin))
			r.Post("/v1/scans", entitlementcontrollers.Scan(entitlementsService, logg))
			r.Get("/v1/events/{eventId}/scans", entitlementcontrollers.ListScans(entitlementsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Post("/v1/orders/{orderId}/refund-approval", ordercontrollers.ApproveRefund(ordersService, logg))
			r.Post("/v1/entitlements/{entitlementId}/revoke", entitlementcontrollers.Revoke(entitlementsService, logg))
			r.Route("/v1/ledger", func(r chi.Router) {
				r.Get("/balance", ledgercontrollers.Balance(ledgerService, logg))
				r.Get("/entities/{entityId}/entries", ledgercontrollers.EntityEntries(ledgerService, logg))
			})
		})
	})

	return r
}
