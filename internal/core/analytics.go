package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// DefaultMonthlyBudget is used when no budget is configured.
var DefaultMonthlyBudget = decimal.NewFromInt(2000)

var ErrInvalidPeriod = errors.New("invalid period")

var hundred = decimal.NewFromInt(100)

type (
	Period string

	// CategoryStat is a count and amount total for one group key.
	CategoryStat struct {
		Count  int
		Amount decimal.Decimal
	}

	// CategoryAmount is a named CategoryStat, used for ranked breakdowns.
	CategoryAmount struct {
		Name   string
		Count  int
		Amount decimal.Decimal
	}

	// BudgetInsight compares period spending to the monthly budget.
	BudgetInsight struct {
		Budget     decimal.Decimal
		Used       decimal.Decimal
		Remaining  decimal.Decimal
		Percentage decimal.Decimal
	}

	// Analytics is the dashboard summary for one reporting period.
	Analytics struct {
		Period      Period
		PeriodStart time.Time

		TransactionCount int
		TotalAmount      decimal.Decimal
		TotalSpent       decimal.Decimal
		TotalReceived    decimal.Decimal
		NetFlow          decimal.Decimal

		ByCategory map[TransactionType]CategoryStat
		ByStatus   map[Status]int
		ByCurrency map[string]decimal.Decimal

		AverageTransaction decimal.Decimal
		LargestTransaction decimal.Decimal

		// DailySpending holds debit totals keyed by YYYY-MM-DD.
		DailySpending    map[string]decimal.Decimal
		SpendingVelocity decimal.Decimal

		MerchantSpending map[string]CategoryStat

		TopCategories []CategoryAmount
		TopMerchants  []CategoryAmount

		Budget BudgetInsight
	}
)

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return PeriodMonth, nil
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Start returns the first instant included in the period ending at now.
// Week is a rolling seven days; month, quarter and year are calendar aligned.
func (p Period) Start(now time.Time) time.Time {
	loc := now.Location()
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodQuarter:
		m := (int(now.Month())-1)/3*3 + 1
		return time.Date(now.Year(), time.Month(m), 1, 0, 0, 0, 0, loc)
	case PeriodYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	}
}

// ComputeAnalytics summarises the transactions dated at or after the period
// start. An empty input yields zero totals and empty maps.
func ComputeAnalytics(txs []Transaction, period Period, now time.Time, monthlyBudget decimal.Decimal) Analytics {
	if period == "" {
		period = PeriodMonth
	}
	start := period.Start(now)
	loc := now.Location()

	a := Analytics{
		Period:           period,
		PeriodStart:      start,
		ByCategory:       make(map[TransactionType]CategoryStat),
		ByStatus:         make(map[Status]int),
		ByCurrency:       make(map[string]decimal.Decimal),
		DailySpending:    make(map[string]decimal.Decimal),
		MerchantSpending: make(map[string]CategoryStat),
	}

	for _, tx := range txs {
		if tx.Date.Before(start) {
			continue
		}
		a.TransactionCount++
		a.TotalAmount = a.TotalAmount.Add(tx.Amount)
		if tx.Amount.GreaterThan(a.LargestTransaction) {
			a.LargestTransaction = tx.Amount
		}

		switch {
		case tx.Type.IsDebit():
			a.TotalSpent = a.TotalSpent.Add(tx.Amount)
			day := tx.Day(loc)
			a.DailySpending[day] = a.DailySpending[day].Add(tx.Amount)
		case tx.Type.IsCredit():
			a.TotalReceived = a.TotalReceived.Add(tx.Amount)
		}

		cat := a.ByCategory[tx.Type]
		cat.Count++
		cat.Amount = cat.Amount.Add(tx.Amount)
		a.ByCategory[tx.Type] = cat

		a.ByStatus[tx.Status]++
		a.ByCurrency[tx.Currency] = a.ByCurrency[tx.Currency].Add(tx.Amount)

		if merchant := strings.TrimSpace(tx.Merchant); merchant != "" {
			m := a.MerchantSpending[merchant]
			m.Count++
			m.Amount = m.Amount.Add(tx.Amount)
			a.MerchantSpending[merchant] = m
		}
	}

	a.NetFlow = a.TotalReceived.Sub(a.TotalSpent)
	if a.TransactionCount > 0 {
		a.AverageTransaction = a.TotalAmount.Div(decimal.NewFromInt(int64(a.TransactionCount)))
	}
	if n := len(a.DailySpending); n > 0 {
		sum := decimal.Zero
		for _, v := range a.DailySpending {
			sum = sum.Add(v)
		}
		a.SpendingVelocity = sum.Div(decimal.NewFromInt(int64(n)))
	}

	a.TopCategories = rank(a.ByCategory)
	a.TopMerchants = rank(a.MerchantSpending)
	a.Budget = budgetInsight(a.TotalSpent, monthlyBudget)
	return a
}

func budgetInsight(spent, budget decimal.Decimal) BudgetInsight {
	b := BudgetInsight{
		Budget:    budget,
		Used:      spent,
		Remaining: budget.Sub(spent),
	}
	if budget.IsPositive() {
		b.Percentage = spent.Div(budget).Mul(hundred)
	}
	return b
}

// rank orders a breakdown by descending amount, then by name.
func rank[K ~string](in map[K]CategoryStat) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(in))
	for k, v := range in {
		out = append(out, CategoryAmount{Name: string(k), Count: v.Count, Amount: v.Amount})
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
