package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SufailSLX/budget-tracker/internal/middleware"
	"github.com/SufailSLX/budget-tracker/internal/models"
)

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"success": true,
		"profile": fiber.Map{
			"fullName":       u.FullName,
			"email":          u.Email,
			"accountCreated": u.CreatedAt,
			"monthlyBudget":  u.MonthlyBudget,
			"linkedAccounts": u.LinkedAccounts,
			"savingsGoals":   u.SavingsGoals,
			"preferences":    u.Preferences,
		},
	})
}

type savingsPlanReq struct {
	MonthlyBudget *float64 `json:"monthlyBudget" validate:"required,gte=0"`
}

func (h *Handler) SavingsPlan(c *fiber.Ctx) error {
	var req savingsPlanReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	u := middleware.CurrentUser(c)
	plan, err := h.users.SavingsPlan(c.Context(), u.ID, *req.MonthlyBudget)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Savings plan calculated successfully",
		"data":    plan,
	})
}

type linkAccountReq struct {
	Provider    string `json:"provider" validate:"required,oneof=google apple facebook bank"`
	AccountID   string `json:"accountId" validate:"required"`
	AccountName string `json:"accountName" validate:"required"`
}

func (h *Handler) LinkAccount(c *fiber.Ctx) error {
	var req linkAccountReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	u := middleware.CurrentUser(c)
	link, err := h.users.LinkAccount(c.Context(), u.ID, req.Provider, req.AccountID, req.AccountName)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       req.Provider + " account linked successfully",
		"linkedAccount": link,
	})
}

func (h *Handler) UnlinkAccount(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	link, err := h.users.UnlinkAccount(c.Context(), u.ID, c.Params("accountId"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":         true,
		"message":         link.Provider + " account unlinked successfully",
		"unlinkedAccount": link,
	})
}

func (h *Handler) UserStats(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	stats, err := h.txs.PeriodStats(c.Context(), u.ID)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

type preferencesReq struct {
	Preferences *models.Preferences `json:"preferences" validate:"required"`
}

func (h *Handler) UpdatePreferences(c *fiber.Ctx) error {
	var req preferencesReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	u := middleware.CurrentUser(c)
	prefs, err := h.users.UpdatePreferences(c.Context(), u.ID, *req.Preferences)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Preferences updated successfully",
		"preferences": prefs,
	})
}
