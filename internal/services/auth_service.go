package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
	"github.com/SufailSLX/budget-tracker/internal/utils"
)

const otpMaxAttempts = 3

// Mailer delivers transactional email. OTP delivery failures are surfaced to
// the caller; welcome mail is best-effort.
type Mailer interface {
	SendOTP(ctx context.Context, email, fullName, code string) error
	SendWelcome(ctx context.Context, email, fullName string) error
}

// Limiter caps how often a key may perform an action within a window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AuthService drives the registration state machine:
// Unregistered -> PendingVerification -> Verified-NoPin -> Active.
type AuthService interface {
	Register(ctx context.Context, fullName, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	SetPin(ctx context.Context, email, pin, confirmPin string) (string, *models.User, error)
	Login(ctx context.Context, email, pin string) (string, *models.User, error)
	ResendOTP(ctx context.Context, email string) error
}

type authService struct {
	users    repository.UserRepository
	notifs   repository.NotificationRepository
	mailer   Mailer
	limiter  Limiter
	secret   string
	tokenTTL time.Duration
	otpTTL   time.Duration
	hashCost int
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	notifs repository.NotificationRepository,
	mailer Mailer,
	limiter Limiter,
	secret string,
	tokenTTL time.Duration,
	otpTTL time.Duration,
	hashCost int,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:    users,
		notifs:   notifs,
		mailer:   mailer,
		limiter:  limiter,
		secret:   secret,
		tokenTTL: tokenTTL,
		otpTTL:   otpTTL,
		hashCost: hashCost,
		logger:   logger,
	}
}

// Register starts (or restarts) a sign-up. A fresh email creates a pending
// user and issues an OTP; an unverified duplicate re-issues a new OTP; a
// verified duplicate fails with ErrAlreadyExists.
func (s *authService) Register(ctx context.Context, fullName, email string) error {
	email = models.NormalizeEmail(email)

	if err := s.checkRateLimit(ctx, email); err != nil {
		return err
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsVerified {
			return ErrAlreadyExists
		}
		// Unverified duplicate: resend-on-duplicate-registration. A new
		// code replaces the old one and the attempt counter resets.
		return s.issueOTP(ctx, u)
	case errors.Is(err, repository.ErrUserNotFound):
		// fall through to creation
	default:
		return fmt.Errorf("checking existing user: %w", err)
	}

	u = &models.User{
		FullName:    fullName,
		Email:       email,
		Preferences: models.DefaultPreferences(),
	}
	code := utils.GenerateOTP()
	u.OTP = &models.OTPState{
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL),
		Attempts:  0,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, u.Email, u.FullName, code); err != nil {
		// Compensating deletion: an account whose verification mail never
		// arrived would be permanently stuck.
		if delErr := s.users.Delete(ctx, u.ID); delErr != nil {
			s.logger.Error("failed to delete user after email dispatch failure",
				zap.String("email", u.Email), zap.Error(delErr))
		}
		s.logger.Warn("OTP email dispatch failed", zap.String("email", u.Email), zap.Error(err))
		return ErrEmailDispatch
	}
	return nil
}

// VerifyOTP checks a candidate code against the pending verification state.
// The check order is fixed: presence, expiry, attempt cap, equality. A
// mismatch increments the stored attempt counter even though the call fails.
func (s *authService) VerifyOTP(ctx context.Context, email, code string) error {
	email = models.NormalizeEmail(email)

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}

	if u.OTP == nil || u.OTP.Code == "" {
		return ErrOTPNotFound
	}
	if !time.Now().Before(u.OTP.ExpiresAt) {
		return ErrOTPExpired
	}
	if u.OTP.Attempts >= otpMaxAttempts {
		return ErrOTPTooManyAttempts
	}
	if u.OTP.Code != code {
		if err := s.users.IncrementOTPAttempts(ctx, u.ID); err != nil {
			return fmt.Errorf("recording failed attempt: %w", err)
		}
		return ErrOTPMismatch
	}

	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return fmt.Errorf("marking user verified: %w", err)
	}
	return nil
}

// SetPin completes registration: hashes and stores the PIN, fires the
// best-effort welcome notification and email, and issues a session token.
func (s *authService) SetPin(ctx context.Context, email, pin, confirmPin string) (string, *models.User, error) {
	email = models.NormalizeEmail(email)

	if pin != confirmPin {
		return "", nil, ErrPinMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.hashCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing PIN: %w", err)
	}

	ok, err := s.users.SetPin(ctx, email, string(hash))
	if err != nil {
		return "", nil, fmt.Errorf("storing PIN: %w", err)
	}
	if !ok {
		// The conditional update matched nothing; work out which
		// precondition failed.
		u, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return "", nil, ErrUserNotFound
			}
			return "", nil, fmt.Errorf("finding user: %w", err)
		}
		if !u.IsVerified {
			return "", nil, ErrNotVerified
		}
		return "", nil, ErrPinAlreadySet
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("reloading user: %w", err)
	}

	s.welcome(u)

	token, _, err := utils.GenerateAccessToken(u.ID.Hex(), s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("generating token: %w", err)
	}
	return token, u, nil
}

// Login authenticates an active user. Unknown email and wrong PIN produce
// the same error so accounts cannot be enumerated.
func (s *authService) Login(ctx context.Context, email, pin string) (string, *models.User, error) {
	email = models.NormalizeEmail(email)

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("finding user: %w", err)
	}

	if !u.IsVerified {
		return "", nil, ErrNotVerified
	}
	if !u.HasPin() {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := utils.GenerateAccessToken(u.ID.Hex(), s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("generating token: %w", err)
	}
	return token, u, nil
}

// ResendOTP re-issues a verification code for a not-yet-verified user.
func (s *authService) ResendOTP(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	if err := s.checkRateLimit(ctx, email); err != nil {
		return err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}
	return s.issueOTP(ctx, u)
}

// issueOTP stores a fresh code on an existing pending user and mails it.
// No compensating deletion here: the account pre-dates this attempt.
func (s *authService) issueOTP(ctx context.Context, u *models.User) error {
	code := utils.GenerateOTP()
	otp := &models.OTPState{
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL),
		Attempts:  0,
	}
	if err := s.users.SetOTP(ctx, u.ID, otp); err != nil {
		return fmt.Errorf("storing OTP: %w", err)
	}
	if err := s.mailer.SendOTP(ctx, u.Email, u.FullName, code); err != nil {
		s.logger.Warn("OTP email dispatch failed", zap.String("email", u.Email), zap.Error(err))
		return ErrEmailDispatch
	}
	return nil
}

func (s *authService) checkRateLimit(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, "otp:"+email)
	if err != nil {
		return fmt.Errorf("checking OTP rate limit: %w", err)
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

// welcome dispatches the post-activation notification and email. Failures
// are logged, never propagated: the account is already active.
func (s *authService) welcome(u *models.User) {
	userID := u.ID
	email, name := u.Email, u.FullName
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		n := &models.Notification{
			UserID:   userID,
			Title:    "Welcome to Budget Tracker",
			Message:  "Your account is ready. Add your first transaction to start tracking.",
			Type:     models.NotificationSystem,
			Priority: models.PriorityMedium,
		}
		if err := s.notifs.Create(ctx, n); err != nil {
			s.logger.Warn("failed to create welcome notification",
				zap.String("email", email), zap.Error(err))
		}
		if err := s.mailer.SendWelcome(ctx, email, name); err != nil {
			s.logger.Warn("failed to send welcome email",
				zap.String("email", email), zap.Error(err))
		}
	}()
}
