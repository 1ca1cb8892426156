package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/SufailSLX/budget-tracker/internal/services"
	"github.com/SufailSLX/budget-tracker/internal/utils"
)

// Handler carries the service dependencies for all route handlers.
type Handler struct {
	auth     services.AuthService
	txs      services.TransactionService
	notifs   services.NotificationService
	users    services.UserService
	validate *validator.Validate
	env      string
	logger   *zap.Logger
}

func NewHandler(
	auth services.AuthService,
	txs services.TransactionService,
	notifs services.NotificationService,
	users services.UserService,
	env string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		txs:      txs,
		notifs:   notifs,
		users:    users,
		validate: validator.New(),
		env:      env,
		logger:   logger,
	}
}

// Health is the liveness probe.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Backend is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.env,
	})
}

func (h *Handler) fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func (h *Handler) validationFail(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  utils.FormatValidationErrors(err),
	})
}

// serviceError maps service sentinels onto HTTP statuses. Unknown errors are
// logged and collapsed into a generic 500.
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrLinkedAccountNotFound):
		return h.fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, services.ErrNotVerified),
		errors.Is(err, services.ErrPinMismatch),
		errors.Is(err, services.ErrPinAlreadySet),
		errors.Is(err, services.ErrOTPNotFound),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrOTPTooManyAttempts),
		errors.Is(err, services.ErrOTPMismatch),
		errors.Is(err, services.ErrAccountAlreadyLinked):
		return h.fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return h.fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		return h.fail(c, fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrEmailDispatch):
		return h.fail(c, fiber.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("unexpected service error",
			zap.String("path", c.Path()), zap.Error(err))
		return h.fail(c, fiber.StatusInternalServerError, "Something went wrong on our end")
	}
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
