package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
)

// SavingsSuggestion is one allocation proposal in a savings plan.
type SavingsSuggestion struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	Percentage  int     `json:"percentage"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
}

// SavingsPlan is the response of a budget update: fixed-percentage
// allocation suggestions plus the remainder.
type SavingsPlan struct {
	MonthlyBudget         float64             `json:"monthlyBudget"`
	Suggestions           []SavingsSuggestion `json:"suggestions"`
	TotalSuggested        float64             `json:"totalSuggested"`
	RemainingBudget       float64             `json:"remainingBudget"`
	UtilizationPercentage int                 `json:"utilizationPercentage"`
}

// UserService manages profile, budget, linked accounts, and preferences.
type UserService interface {
	SavingsPlan(ctx context.Context, userID primitive.ObjectID, monthlyBudget float64) (*SavingsPlan, error)
	LinkAccount(ctx context.Context, userID primitive.ObjectID, provider, accountID, accountName string) (*models.LinkedAccount, error)
	UnlinkAccount(ctx context.Context, userID primitive.ObjectID, linkID string) (*models.LinkedAccount, error)
	UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs models.Preferences) (*models.Preferences, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService creates a new user profile service.
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

// savings plan allocation table, fractions of the monthly budget
var savingsAllocations = []struct {
	title       string
	fraction    float64
	percentage  int
	description string
	priority    string
}{
	{"Emergency Fund", 0.20, 20, "Build a safety net for unexpected expenses", models.PriorityHigh},
	{"Investment Portfolio", 0.15, 15, "Grow your wealth with smart investments", models.PriorityMedium},
	{"Entertainment & Leisure", 0.10, 10, "Enjoy life while staying within budget", models.PriorityLow},
	{"Health & Wellness", 0.08, 8, "Invest in your physical and mental health", models.PriorityMedium},
	{"Education & Skills", 0.07, 7, "Continuous learning for career growth", models.PriorityMedium},
}

func (s *userService) SavingsPlan(ctx context.Context, userID primitive.ObjectID, monthlyBudget float64) (*SavingsPlan, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if err := s.users.SetMonthlyBudget(ctx, u.ID, monthlyBudget); err != nil {
		return nil, fmt.Errorf("updating budget: %w", err)
	}

	plan := &SavingsPlan{MonthlyBudget: monthlyBudget}
	for _, a := range savingsAllocations {
		amount := math.Round(monthlyBudget * a.fraction)
		plan.Suggestions = append(plan.Suggestions, SavingsSuggestion{
			Title:       a.title,
			Amount:      amount,
			Percentage:  a.percentage,
			Description: a.description,
			Priority:    a.priority,
		})
		plan.TotalSuggested += amount
	}
	plan.RemainingBudget = monthlyBudget - plan.TotalSuggested
	if monthlyBudget > 0 {
		plan.UtilizationPercentage = int(math.Round(plan.TotalSuggested / monthlyBudget * 100))
	}
	return plan, nil
}

func (s *userService) LinkAccount(ctx context.Context, userID primitive.ObjectID, provider, accountID, accountName string) (*models.LinkedAccount, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	for _, acc := range u.LinkedAccounts {
		if acc.Provider == provider && acc.AccountID == accountID {
			return nil, ErrAccountAlreadyLinked
		}
	}

	link := models.LinkedAccount{
		ID:          uuid.NewString(),
		Provider:    provider,
		AccountID:   accountID,
		AccountName: accountName,
		LinkedAt:    time.Now().UTC(),
	}
	if err := s.users.SetLinkedAccounts(ctx, u.ID, append(u.LinkedAccounts, link)); err != nil {
		return nil, fmt.Errorf("saving linked account: %w", err)
	}
	return &link, nil
}

func (s *userService) UnlinkAccount(ctx context.Context, userID primitive.ObjectID, linkID string) (*models.LinkedAccount, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	for i, acc := range u.LinkedAccounts {
		if acc.ID == linkID {
			removed := acc
			remaining := append(u.LinkedAccounts[:i:i], u.LinkedAccounts[i+1:]...)
			if err := s.users.SetLinkedAccounts(ctx, u.ID, remaining); err != nil {
				return nil, fmt.Errorf("saving after unlink: %w", err)
			}
			return &removed, nil
		}
	}
	return nil, ErrLinkedAccountNotFound
}

func (s *userService) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs models.Preferences) (*models.Preferences, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if err := s.users.SetPreferences(ctx, u.ID, prefs); err != nil {
		return nil, fmt.Errorf("saving preferences: %w", err)
	}
	return &prefs, nil
}

func mapUserErr(err error) error {
	if err == repository.ErrUserNotFound {
		return ErrUserNotFound
	}
	return err
}
