package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spendly/spendly-backend/internal/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups every HTTP handler served by the API
type Handlers struct {
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Wallet       *WalletHandler
	Category     *CategoryHandler
	Transaction  *TransactionHandler
	Budget       *BudgetHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	WebSocket    *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, authLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)

	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (public, rate limited per client IP)
	public := api.Group("/auth")
	public.Use(middleware.RateLimitMiddleware(authLimiter))
	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.POST("/forgot-password", h.Auth.ForgotPassword)
	public.POST("/reset-password", h.Auth.ResetPassword)

	// Websocket authenticates with the token query parameter
	api.GET("/ws", h.WebSocket.HandleWS)

	// Everything below requires a bearer token
	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())

	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)

	profile := protected.Group("/profile")
	profile.GET("", h.Profile.GetProfile)
	profile.PUT("", h.Profile.UpdateProfile)
	profile.POST("/avatar", h.Profile.UploadAvatar)
	profile.DELETE("/avatar", h.Profile.DeleteAvatar)

	wallets := protected.Group("/wallets")
	wallets.POST("", h.Wallet.CreateWallet)
	wallets.GET("", h.Wallet.GetWallets)
	wallets.GET("/:id", h.Wallet.GetWallet)
	wallets.PUT("/:id", h.Wallet.UpdateWallet)
	wallets.DELETE("/:id", h.Wallet.DeleteWallet)
	wallets.POST("/:id/adjust", h.Wallet.AdjustWallet)

	categories := protected.Group("/categories")
	categories.GET("", h.Category.GetCategories)
	categories.POST("", h.Category.CreateCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.POST("", h.Budget.CreateBudget)
	budgets.GET("", h.Budget.GetBudgets)
	budgets.GET("/:id", h.Budget.GetBudget)
	budgets.PUT("/:id", h.Budget.UpdateBudget)
	budgets.DELETE("/:id", h.Budget.DeleteBudget)
	budgets.GET("/:id/transactions", h.Budget.GetBudgetTransactions)

	notifications := protected.Group("/notifications")
	notifications.GET("", h.Notification.GetNotifications)
	notifications.GET("/unread-count", h.Notification.GetUnreadCount)
	notifications.POST("/read-all", h.Notification.MarkAllRead)
	notifications.PATCH("/:id/read", h.Notification.MarkRead)
	notifications.DELETE("/:id", h.Notification.DeleteNotification)

	reports := protected.Group("/reports")
	reports.GET("/summary", h.Report.GetSummary)
	reports.GET("/trend", h.Report.GetTrend)
	reports.GET("/export.pdf", h.Report.ExportPDF)
}
