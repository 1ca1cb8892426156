package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/SufailSLX/budget-tracker/internal/middleware"
	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/services"
)

type registerReq struct {
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
}

// Register starts the sign-up flow: creates (or refreshes) a pending user
// and emails an OTP.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	if err := h.auth.Register(c.Context(), req.FullName, req.Email); err != nil {
		return h.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registration initiated. Please check your email for the verification code.",
		"step":    "verify_otp",
	})
}

type verifyOTPReq struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	if err := h.auth.VerifyOTP(c.Context(), req.Email, req.OTP); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email verified successfully. Now create your secure PIN.",
		"step":    "create_pin",
	})
}

type setPinReq struct {
	Email      string `json:"email" validate:"required,email"`
	Pin        string `json:"pin" validate:"required,len=4,numeric"`
	ConfirmPin string `json:"confirmPin" validate:"required,len=4,numeric"`
}

func (h *Handler) SetPin(c *fiber.Ctx) error {
	var req setPinReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	token, user, err := h.auth.SetPin(c.Context(), req.Email, req.Pin, req.ConfirmPin)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account created successfully. Welcome to Budget Tracker!",
		"token":   token,
		"user":    userSummary(user),
	})
}

type loginReq struct {
	Email string `json:"email" validate:"required,email"`
	Pin   string `json:"pin" validate:"required,len=4,numeric"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	token, user, err := h.auth.Login(c.Context(), req.Email, req.Pin)
	if err != nil {
		// login reports an unverified account as 401, not 400
		if errors.Is(err, services.ErrNotVerified) {
			return h.fail(c, fiber.StatusUnauthorized, err.Error())
		}
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful. Welcome back!",
		"token":   token,
		"user":    userSummary(user),
	})
}

type resendOTPReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	if err := h.auth.ResendOTP(c.Context(), req.Email); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "New OTP sent to your email address",
	})
}

// Me returns the authenticated user's account summary.
func (h *Handler) Me(c *fiber.Ctx) error {
	u := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":             u.ID.Hex(),
			"fullName":       u.FullName,
			"email":          u.Email,
			"createdAt":      u.CreatedAt,
			"monthlyBudget":  u.MonthlyBudget,
			"linkedAccounts": u.LinkedAccounts,
			"preferences":    u.Preferences,
		},
	})
}

func userSummary(u *models.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID.Hex(),
		"fullName":  u.FullName,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}
}
