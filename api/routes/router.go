package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Samyy-Momin/onefooddialer/api/controllers"
	"github.com/Samyy-Momin/onefooddialer/api/middleware"
	"github.com/Samyy-Momin/onefooddialer/internal/customers"
	"github.com/Samyy-Momin/onefooddialer/internal/dashboard"
	"github.com/Samyy-Momin/onefooddialer/internal/invoices"
	"github.com/Samyy-Momin/onefooddialer/internal/orders"
	"github.com/Samyy-Momin/onefooddialer/internal/plans"
	"github.com/Samyy-Momin/onefooddialer/internal/subscriptions"
	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/config"
	"github.com/Samyy-Momin/onefooddialer/pkg/db"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	customerService customers.Service,
	planService plans.Service,
	subscriptionService subscriptions.Service,
	orderService orders.Service,
	invoiceService invoices.Service,
	walletService wallet.Service,
	dashboardService dashboard.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.BusinessContext(logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Billing.IdempotencyTTL, logg))

		staff := middleware.RequireRole(logg,
			enums.UserRoleSuperAdmin,
			enums.UserRoleBusinessOwner,
			enums.UserRoleKitchenManager,
			enums.UserRoleStaff,
		)
		owner := middleware.RequireRole(logg,
			enums.UserRoleSuperAdmin,
			enums.UserRoleBusinessOwner,
		)

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(customerService, logg))
			r.With(staff).Post("/", controllers.CustomerCreate(customerService, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(customerService, logg))
			r.With(staff).Put("/{customerId}", controllers.CustomerUpdate(customerService, logg))
			r.With(owner).Delete("/{customerId}", controllers.CustomerDeactivate(customerService, logg))
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", controllers.PlanList(planService, logg))
			r.With(owner).Post("/", controllers.PlanCreate(planService, logg))
			r.Get("/{planId}", controllers.PlanDetail(planService, logg))
			r.With(owner).Put("/{planId}", controllers.PlanUpdate(planService, logg))
			r.With(owner).Delete("/{planId}", controllers.PlanDeactivate(planService, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionList(subscriptionService, logg))
			r.Post("/", controllers.SubscriptionCreate(subscriptionService, logg))
			r.Get("/{subscriptionId}", controllers.SubscriptionDetail(subscriptionService, logg))
			r.Put("/{subscriptionId}", controllers.SubscriptionUpdate(subscriptionService, logg))
			r.Delete("/{subscriptionId}", controllers.SubscriptionCancel(subscriptionService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Post("/", controllers.OrderCreate(orderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			r.With(staff).Put("/{orderId}", controllers.OrderUpdateStatus(orderService, logg))
			r.Delete("/{orderId}", controllers.OrderCancel(orderService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(invoiceService, logg))
			r.With(staff).Post("/", controllers.InvoiceCreate(invoiceService, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(invoiceService, logg))
			r.Post("/{invoiceId}/pay", controllers.InvoicePay(invoiceService, logg))
		})

		r.Route("/wallet/{customerId}", func(r chi.Router) {
			r.Post("/add-money", controllers.WalletTopUp(walletService, logg))
			r.Post("/transfer", controllers.WalletTransfer(walletService, logg))
			r.Get("/history", controllers.WalletHistory(walletService, logg))
		})

		r.With(staff).Get("/dashboard/stats", controllers.DashboardStats(dashboardService, logg))
	})

	return r
}
