package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
)

// CreateTransactionInput carries a validated create request.
type CreateTransactionInput struct {
	Title       string
	Amount      float64
	Type        string
	Category    string
	Description string
	Tags        []string
	Date        *time.Time
}

// UpdateTransactionInput carries a partial update; nil fields are untouched.
type UpdateTransactionInput struct {
	Title       *string
	Amount      *float64
	Type        *string
	Category    *string
	Description *string
	Tags        []string
	Date        *time.Time
}

// ListTransactionsInput narrows and paginates a ledger listing.
type ListTransactionsInput struct {
	Page      int
	Limit     int
	Type      string
	Category  string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

// TransactionService owns the ledger and its aggregations.
type TransactionService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in CreateTransactionInput) (*models.Transaction, error)
	Get(ctx context.Context, userID primitive.ObjectID, id string) (*models.Transaction, error)
	List(ctx context.Context, userID primitive.ObjectID, in ListTransactionsInput) ([]models.Transaction, Pagination, error)
	Update(ctx context.Context, userID primitive.ObjectID, id string, in UpdateTransactionInput) (*models.Transaction, error)
	Delete(ctx context.Context, userID primitive.ObjectID, id string) (*models.Transaction, error)

	Monthly(ctx context.Context, userID primitive.ObjectID, months int) ([]MonthlyPoint, error)
	Categories(ctx context.Context, userID primitive.ObjectID, f repository.RangeFilter) ([]CategoryStat, error)
	PeriodStats(ctx context.Context, userID primitive.ObjectID) (*PeriodStats, error)
}

type transactionService struct {
	txs repository.TransactionRepository
	now func() time.Time
}

// NewTransactionService creates a new ledger service.
func NewTransactionService(txs repository.TransactionRepository) TransactionService {
	return &transactionService{txs: txs, now: time.Now}
}

func (s *transactionService) Create(ctx context.Context, userID primitive.ObjectID, in CreateTransactionInput) (*models.Transaction, error) {
	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}
	t := &models.Transaction{
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		Type:        models.NormalizeTransactionType(in.Type),
		Category:    in.Category,
		Description: in.Description,
		Tags:        in.Tags,
		Date:        date,
	}
	if err := s.txs.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}
	return t, nil
}

func (s *transactionService) Get(ctx context.Context, userID primitive.ObjectID, id string) (*models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	t, err := s.txs.FindByID(ctx, oid, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return t, nil
}

func (s *transactionService) List(ctx context.Context, userID primitive.ObjectID, in ListTransactionsInput) ([]models.Transaction, Pagination, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 {
		in.Limit = 20
	}
	if in.Limit > 100 {
		in.Limit = 100
	}
	txs, total, err := s.txs.List(ctx, repository.TransactionFilter{
		UserID:    userID,
		Type:      models.NormalizeTransactionType(in.Type),
		Category:  in.Category,
		Search:    in.Search,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Page:      in.Page,
		Limit:     in.Limit,
	})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("listing transactions: %w", err)
	}
	return txs, Paginate(in.Page, in.Limit, total), nil
}

func (s *transactionService) Update(ctx context.Context, userID primitive.ObjectID, id string, in UpdateTransactionInput) (*models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	t, err := s.txs.FindByID(ctx, oid, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if in.Type != nil {
		t.Type = models.NormalizeTransactionType(*in.Type)
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Tags != nil {
		t.Tags = in.Tags
	}
	if in.Date != nil {
		t.Date = *in.Date
	}

	if err := s.txs.Update(ctx, t); err != nil {
		return nil, mapRepoErr(err)
	}
	return t, nil
}

func (s *transactionService) Delete(ctx context.Context, userID primitive.ObjectID, id string) (*models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	t, err := s.txs.Delete(ctx, oid, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return t, nil
}

func mapRepoErr(err error) error {
	if err == repository.ErrNotFound {
		return ErrNotFound
	}
	return err
}
