package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SufailSLX/budget-tracker/internal/middleware"
	"github.com/SufailSLX/budget-tracker/internal/services"
)

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		return h.fail(c, fiber.StatusBadRequest, "page must be a positive integer")
	}
	if limit < 1 || limit > 50 {
		return h.fail(c, fiber.StatusBadRequest, "limit must be between 1 and 50")
	}
	unreadOnly := c.QueryBool("unreadOnly", false)

	u := middleware.CurrentUser(c)
	notifs, unread, pg, err := h.notifs.List(c.Context(), u.ID, unreadOnly, page, limit)
	if err != nil {
		return h.serviceError(c, err)
	}

	body := fiber.Map{
		"success":       true,
		"notifications": notifs,
		"unreadCount":   unread,
		"pagination": fiber.Map{
			"currentPage":        pg.CurrentPage,
			"totalPages":         pg.TotalPages,
			"totalNotifications": pg.TotalItems,
			"hasNextPage":        pg.HasNextPage,
			"hasPrevPage":        pg.HasPrevPage,
		},
	}
	if len(notifs) == 0 && page == 1 {
		body["message"] = "No notifications right now"
	}
	return c.JSON(body)
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	n, err := h.notifs.MarkRead(c.Context(), u.ID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Notification marked as read",
		"notification": n,
	})
}

func (h *Handler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	count, err := h.notifs.MarkAllRead(c.Context(), u.ID)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "All notifications marked as read",
		"modifiedCount": count,
	})
}

func (h *Handler) DeleteNotification(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	n, err := h.notifs.Delete(c.Context(), u.ID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":             true,
		"message":             "Notification deleted successfully",
		"deletedNotification": n,
	})
}

type createNotificationReq struct {
	Title     string `json:"title" validate:"required,max=100"`
	Message   string `json:"message" validate:"required,max=500"`
	Type      string `json:"type" validate:"omitempty,oneof=budget_alert savings_reminder transaction_update system achievement"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
	ActionURL string `json:"actionUrl" validate:"omitempty,url"`
}

func (h *Handler) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	u := middleware.CurrentUser(c)
	n, err := h.notifs.Create(c.Context(), u.ID, services.CreateNotificationInput{
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		Priority:  req.Priority,
		ActionURL: req.ActionURL,
	})
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"message":      "Notification created successfully",
		"notification": n,
	})
}

func (h *Handler) NotificationStats(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	stats, err := h.notifs.Stats(c.Context(), u.ID)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
