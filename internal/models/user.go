package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPState holds a pending email verification code. It exists on a user
// document only while a verification is in progress and is removed entirely
// once the code is confirmed.
type OTPState struct {
	Code      string    `bson:"code" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"-"`
	Attempts  int       `bson:"attempts" json:"-"`
}

// LinkedAccount is an external account attached to a user profile.
type LinkedAccount struct {
	ID          string    `bson:"id" json:"id"`
	Provider    string    `bson:"provider" json:"provider"`
	AccountID   string    `bson:"account_id" json:"accountId"`
	AccountName string    `bson:"account_name" json:"accountName"`
	LinkedAt    time.Time `bson:"linked_at" json:"linkedAt"`
}

// SavingsGoal tracks progress towards a named savings target.
type SavingsGoal struct {
	Title         string    `bson:"title" json:"title"`
	TargetAmount  float64   `bson:"target_amount" json:"targetAmount"`
	CurrentAmount float64   `bson:"current_amount" json:"currentAmount"`
	Deadline      time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

// NotificationPrefs controls which notification channels are enabled.
type NotificationPrefs struct {
	Email            bool `bson:"email" json:"email"`
	BudgetAlerts     bool `bson:"budget_alerts" json:"budgetAlerts"`
	SavingsReminders bool `bson:"savings_reminders" json:"savingsReminders"`
}

// Preferences holds per-user settings.
type Preferences struct {
	Notifications NotificationPrefs `bson:"notifications" json:"notifications"`
	Currency      string            `bson:"currency" json:"currency"`
}

// DefaultPreferences returns the preferences assigned to a fresh account.
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: NotificationPrefs{
			Email:            true,
			BudgetAlerts:     true,
			SavingsReminders: true,
		},
		Currency: "USD",
	}
}

// User is a registered (or registering) account.
//
// The credential lifecycle is explicit: IsVerified reports whether the email
// was confirmed, PinHash is empty until the user picks a PIN, and OTP is nil
// unless a verification is pending. The PIN is only ever stored as a bcrypt
// hash.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"full_name" json:"fullName"`
	Email          string             `bson:"email" json:"email"`
	PinHash        string             `bson:"pin_hash,omitempty" json:"-"`
	IsVerified     bool               `bson:"is_verified" json:"isVerified"`
	OTP            *OTPState          `bson:"otp,omitempty" json:"-"`
	MonthlyBudget  *float64           `bson:"monthly_budget,omitempty" json:"monthlyBudget,omitempty"`
	SavingsGoals   []SavingsGoal      `bson:"savings_goals,omitempty" json:"savingsGoals,omitempty"`
	LinkedAccounts []LinkedAccount    `bson:"linked_accounts,omitempty" json:"linkedAccounts,omitempty"`
	Preferences    Preferences        `bson:"preferences" json:"preferences"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// HasPin reports whether the user has completed PIN setup.
func (u *User) HasPin() bool {
	return u.PinHash != ""
}

// AccountLinkProviders lists the providers an external account may come from.
var AccountLinkProviders = []string{"google", "apple", "facebook", "bank"}

// ValidProvider reports whether p is a known link provider.
func ValidProvider(p string) bool {
	for _, v := range AccountLinkProviders {
		if v == p {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
