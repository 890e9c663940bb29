// Package microlearn предоставляет маршруты для API-сервиса.
package microlearn

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	otprequest "github.com/magabrotheeeer/microlearn/internal/http/handlers/auth/request"
	otpverify "github.com/magabrotheeeer/microlearn/internal/http/handlers/auth/verify"
	deliveryrun "github.com/magabrotheeeer/microlearn/internal/http/handlers/delivery/run"
	deliverystats "github.com/magabrotheeeer/microlearn/internal/http/handlers/delivery/stats"
	"github.com/magabrotheeeer/microlearn/internal/http/handlers/health"
	planslist "github.com/magabrotheeeer/microlearn/internal/http/handlers/plans/list"
	paymentlist "github.com/magabrotheeeer/microlearn/internal/http/handlers/payment/list"
	paymentorder "github.com/magabrotheeeer/microlearn/internal/http/handlers/payment/order"
	paymentverify "github.com/magabrotheeeer/microlearn/internal/http/handlers/payment/verify"
	subscriptioncheck "github.com/magabrotheeeer/microlearn/internal/http/handlers/subscription/check"
	topicpurchase "github.com/magabrotheeeer/microlearn/internal/http/handlers/topic/purchase"
	trialactivate "github.com/magabrotheeeer/microlearn/internal/http/handlers/trial/activate"
	userme "github.com/magabrotheeeer/microlearn/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/microlearn/internal/http/middlewarectx"
	jwtlib "github.com/magabrotheeeer/microlearn/internal/lib/jwt"
	"github.com/magabrotheeeer/microlearn/internal/paymentprovider"
	deliveryservice "github.com/magabrotheeeer/microlearn/internal/services/delivery"
	otpservice "github.com/magabrotheeeer/microlearn/internal/services/otp"
	paymentservice "github.com/magabrotheeeer/microlearn/internal/services/payment"
	plansservice "github.com/magabrotheeeer/microlearn/internal/services/plans"
	subscriptionservice "github.com/magabrotheeeer/microlearn/internal/services/subscription"
	"github.com/magabrotheeeer/microlearn/internal/storage/repository"
	trialservice "github.com/magabrotheeeer/microlearn/internal/services/trial"
)

// RegisterRoutes регистрирует все маршруты API-сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwtlib.Maker, db *repository.Storage,
	otpSvc *otpservice.Service, trialSvc *trialservice.Service, paymentSvc *paymentservice.Service,
	subscriptionSvc *subscriptionservice.Service, plansSvc *plansservice.Service,
	deliverySvc *deliveryservice.Service, providerClient *paymentprovider.Client) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(1), 3))
			r.Post("/auth/otp/request", otprequest.New(logger, otpSvc).ServeHTTP)
			r.Post("/auth/otp/verify", otpverify.New(logger, otpSvc).ServeHTTP)
		})
		r.Get("/plans", planslist.New(logger, plansSvc).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Get("/me", userme.New(logger, otpSvc).ServeHTTP)
			r.Post("/trial/activate", trialactivate.New(logger, trialSvc).ServeHTTP)
			r.Get("/subscription", subscriptioncheck.New(logger, subscriptionSvc).ServeHTTP)
			r.Post("/topics/purchase", topicpurchase.New(logger, subscriptionSvc, providerClient).ServeHTTP)
			r.Post("/payments/order", paymentorder.New(logger, providerClient).ServeHTTP)
			r.Post("/payments/verify", paymentverify.New(logger, paymentSvc).ServeHTTP)
			r.Get("/payments", paymentlist.New(logger, paymentSvc).ServeHTTP)
			r.Post("/deliveries/run", deliveryrun.New(logger, deliverySvc).ServeHTTP)
			r.Get("/deliveries/stats", deliverystats.New(logger, deliverySvc).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
