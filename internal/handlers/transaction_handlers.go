package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SufailSLX/budget-tracker/internal/middleware"
	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
	"github.com/SufailSLX/budget-tracker/internal/services"
)

type createTransactionReq struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Amount      float64  `json:"amount" validate:"required,gte=0.01"`
	Type        string   `json:"type" validate:"required,oneof=credit debit expense"`
	Category    string   `json:"category" validate:"required"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
}

func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	var req createTransactionReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	in := services.CreateTransactionInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, "date must be a valid ISO date")
		}
		in.Date = &d
	}

	u := middleware.CurrentUser(c)
	t, err := h.txs.Create(c.Context(), u.ID, in)
	if err != nil {
		return h.serviceError(c, err)
	}

	label := "Debit"
	if t.Type == models.TypeCredit {
		label = "Credit"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     label + " added successfully",
		"transaction": t,
	})
}

func (h *Handler) GetTransaction(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	t, err := h.txs.Get(c.Context(), u.ID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": t,
	})
}

func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	in := services.ListTransactionsInput{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if in.Page < 1 {
		return h.fail(c, fiber.StatusBadRequest, "page must be a positive integer")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return h.fail(c, fiber.StatusBadRequest, "limit must be between 1 and 100")
	}
	if in.Type != "" && in.Type != "credit" && in.Type != "debit" && in.Type != "expense" {
		return h.fail(c, fiber.StatusBadRequest, "type must be credit or debit")
	}
	if s := c.Query("startDate"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, "startDate must be a valid ISO date")
		}
		in.StartDate = &d
	}
	if s := c.Query("endDate"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, "endDate must be a valid ISO date")
		}
		in.EndDate = &d
	}

	u := middleware.CurrentUser(c)
	txs, page, err := h.txs.List(c.Context(), u.ID, in)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": txs,
		"pagination": fiber.Map{
			"currentPage":       page.CurrentPage,
			"totalPages":        page.TotalPages,
			"totalTransactions": page.TotalItems,
			"hasNextPage":       page.HasNextPage,
			"hasPrevPage":       page.HasPrevPage,
		},
	})
}

type updateTransactionReq struct {
	Title       *string  `json:"title" validate:"omitempty,max=100"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0.01"`
	Type        *string  `json:"type" validate:"omitempty,oneof=credit debit expense"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Tags        []string `json:"tags"`
	Date        *string  `json:"date"`
}

func (h *Handler) UpdateTransaction(c *fiber.Ctx) error {
	var req updateTransactionReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	in := services.UpdateTransactionInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if req.Date != nil && *req.Date != "" {
		d, err := parseDate(*req.Date)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, "date must be a valid ISO date")
		}
		in.Date = &d
	}

	u := middleware.CurrentUser(c)
	t, err := h.txs.Update(c.Context(), u.ID, c.Params("id"), in)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Transaction updated successfully",
		"transaction": t,
	})
}

func (h *Handler) DeleteTransaction(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	t, err := h.txs.Delete(c.Context(), u.ID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"message":            "Transaction deleted successfully",
		"deletedTransaction": t,
	})
}

func (h *Handler) MonthlyAnalytics(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	data, err := h.txs.Monthly(c.Context(), u.ID, c.QueryInt("months", 6))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func (h *Handler) CategoryAnalytics(c *fiber.Ctx) error {
	f := repository.RangeFilter{Type: c.Query("type")}
	if f.Type != "" && f.Type != "credit" && f.Type != "debit" && f.Type != "expense" {
		return h.fail(c, fiber.StatusBadRequest, "type must be credit or debit")
	}
	if s := c.Query("startDate"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, "startDate must be a valid ISO date")
		}
		f.StartDate = &d
	}
	if s := c.Query("endDate"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return h.fail(c, fiber.StatusBadRequest, "endDate must be a valid ISO date")
		}
		f.EndDate = &d
	}

	u := middleware.CurrentUser(c)
	data, err := h.txs.Categories(c.Context(), u.ID, f)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
