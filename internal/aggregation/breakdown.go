package aggregation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// MaxCategories is the number of breakdown entries returned.
const MaxCategories = 5

// CategoryBreakdown groups the settled debits inside window by category and
// returns the largest MaxCategories groups. The returned percentages always
// sum to exactly 100; the rounding remainder goes to the first entry.
func CategoryBreakdown(txs []domain.Transaction, window Window) []domain.CategoryBreakdown {
	type bucket struct {
		amount decimal.Decimal
		count  int
	}

	buckets := make(map[domain.Category]*bucket)
	total := decimal.Zero
	for _, tx := range txs {
		if !isSpending(tx) || !window.Contains(tx.Timestamp) {
			continue
		}
		b, ok := buckets[tx.Category]
		if !ok {
			b = &bucket{amount: decimal.Zero}
			buckets[tx.Category] = b
		}
		amount := tx.Amount.Abs()
		b.amount = b.amount.Add(amount)
		b.count++
		total = total.Add(amount)
	}

	result := make([]domain.CategoryBreakdown, 0, len(buckets))
	if total.IsZero() {
		return result
	}

	for cat, b := range buckets {
		result = append(result, domain.CategoryBreakdown{
			Category:   string(cat),
			Amount:     b.amount,
			Count:      b.count,
			Percentage: b.amount.Mul(hundred).Div(total).Round(1),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Amount.Cmp(result[j].Amount); c != 0 {
			return c > 0
		}
		return result[i].Category < result[j].Category
	})
	if len(result) > MaxCategories {
		result = result[:MaxCategories]
	}

	sum := decimal.Zero
	for _, entry := range result {
		sum = sum.Add(entry.Percentage)
	}
	if !sum.Equal(hundred) {
		result[0].Percentage = result[0].Percentage.Add(hundred.Sub(sum))
	}
	return result
}
