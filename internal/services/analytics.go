package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
)

const (
	defaultMonths = 6
	maxMonths     = 12
)

// MonthlyPoint is one calendar month in the trailing series.
type MonthlyPoint struct {
	Name             string  `json:"name"`
	Month            int     `json:"month"`
	Year             int     `json:"year"`
	Credits          float64 `json:"credits"`
	Expenses         float64 `json:"expenses"`
	Balance          float64 `json:"balance"`
	TransactionCount int     `json:"transactionCount"`
}

// CategoryStat is the aggregate for one spending category.
type CategoryStat struct {
	Category         string  `json:"category"`
	TotalAmount      float64 `json:"totalAmount"`
	TransactionCount int     `json:"transactionCount"`
	AvgAmount        float64 `json:"avgAmount"`
}

// Metric is a value plus its change against the previous period, in whole
// percent.
type Metric struct {
	Value  float64 `json:"value"`
	Change int     `json:"change"`
}

// DateRange bounds one reporting period.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodStats compares the current calendar month with the previous one.
type PeriodStats struct {
	TotalCredits     Metric `json:"totalCredits"`
	TotalExpenses    Metric `json:"totalExpenses"`
	Balance          Metric `json:"balance"`
	TransactionCount int    `json:"transactionCount"`
	Period           struct {
		Current  DateRange `json:"current"`
		Previous DateRange `json:"previous"`
	} `json:"period"`
}

// PercentChange is (current-previous)/previous*100 with a fixed convention:
// when previous is zero the change is exactly 100, never infinity.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 100
	}
	return (current - previous) / previous * 100
}

// BalanceChange divides by the magnitude of the previous balance so a
// negative starting point does not flip the sign of a genuine improvement.
func BalanceChange(current, previous float64) float64 {
	if previous == 0 {
		return 100
	}
	return (current - previous) / math.Abs(previous) * 100
}

// Monthly produces one data point per trailing calendar month, oldest first.
// months defaults to 6 and is capped at 12.
func (s *transactionService) Monthly(ctx context.Context, userID primitive.ObjectID, months int) ([]MonthlyPoint, error) {
	if months < 1 {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}

	now := s.now()
	points := make([]MonthlyPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := monthStart(now, -i)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

		txs, err := s.txs.ListRange(ctx, userID, repository.RangeFilter{
			StartDate: &start,
			EndDate:   &end,
		})
		if err != nil {
			return nil, fmt.Errorf("loading month %s: %w", start.Format("2006-01"), err)
		}

		credits := sumByType(txs, models.TypeCredit)
		expenses := sumByType(txs, models.TypeDebit)
		points = append(points, MonthlyPoint{
			Name:             start.Format("Jan"),
			Month:            int(start.Month()),
			Year:             start.Year(),
			Credits:          credits,
			Expenses:         expenses,
			Balance:          credits - expenses,
			TransactionCount: len(txs),
		})
	}
	return points, nil
}

// Categories groups the ledger by category within an optional type/date
// filter: total, count, and 2-dp average per category, largest total first.
func (s *transactionService) Categories(ctx context.Context, userID primitive.ObjectID, f repository.RangeFilter) ([]CategoryStat, error) {
	f.Type = models.NormalizeTransactionType(f.Type)
	txs, err := s.txs.ListRange(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	type bucket struct {
		total decimal.Decimal
		count int
	}
	buckets := map[string]*bucket{}
	for _, t := range txs {
		b, ok := buckets[t.Category]
		if !ok {
			b = &bucket{}
			buckets[t.Category] = b
		}
		b.total = b.total.Add(decimal.NewFromFloat(t.Amount))
		b.count++
	}

	stats := make([]CategoryStat, 0, len(buckets))
	for cat, b := range buckets {
		avg := b.total.Div(decimal.NewFromInt(int64(b.count))).Round(2)
		stats = append(stats, CategoryStat{
			Category:         cat,
			TotalAmount:      b.total.InexactFloat64(),
			TransactionCount: b.count,
			AvgAmount:        avg.InexactFloat64(),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalAmount != stats[j].TotalAmount {
			return stats[i].TotalAmount > stats[j].TotalAmount
		}
		return stats[i].Category < stats[j].Category
	})
	return stats, nil
}

// PeriodStats sums the current calendar month, compares it with the
// previous one, and reports the changes in whole percent.
func (s *transactionService) PeriodStats(ctx context.Context, userID primitive.ObjectID) (*PeriodStats, error) {
	now := s.now()
	curStart := monthStart(now, 0)
	prevStart := monthStart(now, -1)
	prevEnd := curStart.Add(-time.Nanosecond)

	current, err := s.txs.ListRange(ctx, userID, repository.RangeFilter{StartDate: &curStart})
	if err != nil {
		return nil, fmt.Errorf("loading current month: %w", err)
	}
	previous, err := s.txs.ListRange(ctx, userID, repository.RangeFilter{StartDate: &prevStart, EndDate: &prevEnd})
	if err != nil {
		return nil, fmt.Errorf("loading previous month: %w", err)
	}

	curCredits := sumByType(current, models.TypeCredit)
	curExpenses := sumByType(current, models.TypeDebit)
	curBalance := curCredits - curExpenses

	prevCredits := sumByType(previous, models.TypeCredit)
	prevExpenses := sumByType(previous, models.TypeDebit)
	prevBalance := prevCredits - prevExpenses

	stats := &PeriodStats{
		TotalCredits:     Metric{Value: curCredits, Change: roundPercent(PercentChange(curCredits, prevCredits))},
		TotalExpenses:    Metric{Value: curExpenses, Change: roundPercent(PercentChange(curExpenses, prevExpenses))},
		Balance:          Metric{Value: curBalance, Change: roundPercent(BalanceChange(curBalance, prevBalance))},
		TransactionCount: len(current),
	}
	stats.Period.Current = DateRange{Start: curStart, End: now}
	stats.Period.Previous = DateRange{Start: prevStart, End: prevEnd}
	return stats, nil
}

// monthStart returns the first instant of the month offset months away from
// the month containing t.
func monthStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, t.Location())
}

func sumByType(txs []models.Transaction, typ string) float64 {
	total := decimal.Zero
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	return total.InexactFloat64()
}

func roundPercent(v float64) int {
	return int(math.Round(v))
}
