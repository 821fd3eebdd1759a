package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
)

// Handlers собирает хэндлеры, которые монтирует роутер.
type Handlers struct {
	Orders      *handlers.OrderHandler
	Disputes    *handlers.DisputeHandler
	Withdrawals *handlers.WithdrawalHandler
	Health      *handlers.HealthHandler
	WS          *handlers.WSHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens middleware.TokenParser,
	callers middleware.CallerResolver,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)

	protected := api.Group("")
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	protected.Use(middleware.AuthMiddleware(tokens, callers))
	{
		orders := protected.Group("/orders")
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("/my", h.Orders.ListMyOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.POST("/:id/start", h.Orders.StartOrder)
		orders.POST("/:id/deliver", h.Orders.DeliverOrder)
		orders.POST("/:id/complete", h.Orders.CompleteOrder)
		orders.POST("/:id/cancel", h.Orders.CancelOrder)
		orders.POST("/:id/revisions", h.Orders.RequestRevision)
		orders.GET("/:id/revisions", h.Orders.ListRevisions)
		orders.POST("/:id/dispute", h.Disputes.OpenDispute)
		orders.GET("/:id/dispute", h.Disputes.GetOrderDispute)

		protected.GET("/disputes/my", h.Disputes.ListMyDisputes)

		protected.GET("/balance", h.Withdrawals.GetBalance)
		protected.POST("/withdrawals", h.Withdrawals.CreateWithdrawal)
		protected.GET("/withdrawals/my", h.Withdrawals.ListMyWithdrawals)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/disputes", h.Disputes.ListDisputes)
		admin.POST("/disputes/:id/review", h.Disputes.StartReview)
		admin.POST("/disputes/:id/resolve", h.Disputes.ResolveDispute)

		admin.GET("/withdrawals", h.Withdrawals.ListWithdrawals)
		admin.POST("/withdrawals/:id/process", h.Withdrawals.ProcessWithdrawal)
		admin.POST("/withdrawals/:id/complete", h.Withdrawals.CompleteWithdrawal)
	}

	return r
}
