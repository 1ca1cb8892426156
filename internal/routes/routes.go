package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SufailSLX/budget-tracker/internal/handlers"
)

// Setup registers every API route. Analytics and bulk routes are registered
// before the /:id routes so Fiber does not swallow them as path params.
func Setup(app *fiber.App, h *handlers.Handler, requireAuth fiber.Handler) {
	api := app.Group("/api")

	api.Get("/health", h.Health)

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/verify-otp", h.VerifyOTP)
	auth.Post("/resend-otp", h.ResendOTP)
	auth.Post("/set-pin", h.SetPin)
	auth.Post("/login", h.Login)
	auth.Get("/me", requireAuth, h.Me)

	txs := api.Group("/transactions", requireAuth)
	txs.Get("/analytics/monthly", h.MonthlyAnalytics)
	txs.Get("/analytics/categories", h.CategoryAnalytics)
	txs.Post("/", h.CreateTransaction)
	txs.Get("/", h.ListTransactions)
	txs.Get("/:id", h.GetTransaction)
	txs.Put("/:id", h.UpdateTransaction)
	txs.Delete("/:id", h.DeleteTransaction)

	notifs := api.Group("/notifications", requireAuth)
	notifs.Patch("/mark-all-read", h.MarkAllNotificationsRead)
	notifs.Get("/stats", h.NotificationStats)
	notifs.Post("/", h.CreateNotification)
	notifs.Get("/", h.ListNotifications)
	notifs.Patch("/:id/read", h.MarkNotificationRead)
	notifs.Delete("/:id", h.DeleteNotification)

	user := api.Group("/user", requireAuth)
	user.Get("/profile", h.GetProfile)
	user.Post("/savings-plan", h.SavingsPlan)
	user.Post("/link-account", h.LinkAccount)
	user.Delete("/unlink-account/:accountId", h.UnlinkAccount)
	user.Get("/stats", h.UserStats)
	user.Patch("/preferences", h.UpdatePreferences)
}
