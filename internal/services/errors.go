package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP statuses; the message text is what clients see.
var (
	// registration / login flow
	ErrAlreadyExists      = errors.New("an account with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrNotVerified        = errors.New("please verify your email first")
	ErrPinMismatch        = errors.New("PINs do not match")
	ErrPinAlreadySet      = errors.New("PIN has already been set for this account")
	ErrInvalidCredentials = errors.New("invalid email or PIN")
	ErrEmailDispatch      = errors.New("failed to send verification email, please try again")
	ErrRateLimited        = errors.New("too many OTP requests, please try again later")

	// OTP verification, in the order the checks run
	ErrOTPNotFound        = errors.New("no OTP found")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrOTPTooManyAttempts = errors.New("too many failed attempts")
	ErrOTPMismatch        = errors.New("invalid OTP")

	// owner-scoped entities; absent and not-owned are indistinguishable
	ErrNotFound = errors.New("not found")

	// account linking
	ErrAccountAlreadyLinked  = errors.New("this account is already linked")
	ErrLinkedAccountNotFound = errors.New("linked account not found")
)
