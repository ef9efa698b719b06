package aggregation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// MaxRecommendations caps the advice returned per request.
const MaxRecommendations = 5

// Recommendation messages, in rule order. The generic ones apply when no rule matches.
const (
	RecommendSavingsAccount = "Consider opening a savings account to earn interest on your idle balance."
	RecommendMealPlanning   = "Food is more than 30% of your spending this month. Meal planning could help you save."
	RecommendAutoTransfer   = "Your balance is more than twice your monthly income. Set up automatic transfers to savings."
	RecommendBudgeting      = "You are spending over 80% of your income. Try setting a monthly budget per category."
	RecommendInvesting      = "With a balance above 10,000 you could start investing for long-term growth."
	RecommendKeepItUp       = "Great job! Your income exceeds your spending this month. Keep it up."

	RecommendGenericReview    = "Review your recent transactions regularly to stay on top of your finances."
	RecommendGenericEmergency = "Build an emergency fund covering three to six months of expenses."
)

var (
	savingsSuggestionBalance = decimal.NewFromInt(5000)
	investSuggestionBalance  = decimal.NewFromInt(10000)
	foodShareLimit           = decimal.NewFromFloat(0.3)
	spendingShareLimit       = decimal.NewFromFloat(0.8)
	two                      = decimal.NewFromInt(2)
)

type recommendationRule struct {
	message string
	matches func(f recommendationFacts) bool
}

type recommendationFacts struct {
	balance    decimal.Decimal
	spending   decimal.Decimal
	income     decimal.Decimal
	foodSpend  decimal.Decimal
	hasSavings bool
}

// Rules are evaluated in priority order.
var recommendationRules = []recommendationRule{
	{RecommendSavingsAccount, func(f recommendationFacts) bool {
		return !f.hasSavings && f.balance.GreaterThan(savingsSuggestionBalance)
	}},
	{RecommendMealPlanning, func(f recommendationFacts) bool {
		return f.foodSpend.GreaterThan(f.spending.Mul(foodShareLimit))
	}},
	{RecommendAutoTransfer, func(f recommendationFacts) bool {
		return f.income.IsPositive() && f.balance.GreaterThan(f.income.Mul(two))
	}},
	{RecommendBudgeting, func(f recommendationFacts) bool {
		return f.spending.GreaterThan(f.income.Mul(spendingShareLimit))
	}},
	{RecommendInvesting, func(f recommendationFacts) bool {
		return f.income.IsPositive() && f.balance.GreaterThan(investSuggestionBalance)
	}},
	{RecommendKeepItUp, func(f recommendationFacts) bool {
		return f.income.GreaterThan(f.spending)
	}},
}

// Recommend returns up to MaxRecommendations advisory messages in rule
// priority order. When no rule matches, two generic messages are returned.
func Recommend(snapshot domain.Snapshot, now time.Time) []string {
	totals := MonthlyTotals(snapshot.Transactions, now)
	facts := recommendationFacts{
		balance:   TotalBalance(snapshot.Accounts),
		spending:  totals.Spending,
		income:    totals.Income,
		foodSpend: categorySpend(snapshot.Transactions, domain.CategoryFood, MonthWindow(now)),
	}
	for _, a := range snapshot.Accounts {
		if a.Type == domain.AccountSavings {
			facts.hasSavings = true
			break
		}
	}

	out := make([]string, 0, MaxRecommendations)
	for _, rule := range recommendationRules {
		if len(out) == MaxRecommendations {
			break
		}
		if rule.matches(facts) {
			out = append(out, rule.message)
		}
	}
	if len(out) == 0 {
		out = append(out, RecommendGenericReview, RecommendGenericEmergency)
	}
	return out
}

func categorySpend(txs []domain.Transaction, cat domain.Category, window Window) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Category == cat && isSpending(tx) && window.Contains(tx.Timestamp) {
			total = total.Add(tx.Amount.Abs())
		}
	}
	return total
}
