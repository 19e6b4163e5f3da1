package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 8, 20, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, -7), PeriodWeek.Start(now))
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), PeriodMonth.Start(now))
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), PeriodQuarter.Start(now))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), PeriodYear.Start(now))

	jan := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), PeriodQuarter.Start(jan))
	december := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), PeriodQuarter.Start(december))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)
	p, err = ParsePeriod("Quarter")
	require.NoError(t, err)
	assert.Equal(t, PeriodQuarter, p)
	_, err = ParsePeriod("decade")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestComputeAnalyticsExampleScenario(t *testing.T) {
	history := []Transaction{
		tx("a", TypeSent, "150", StatusCompleted, fixedNow),
		tx("b", TypeReceived, "500", StatusCompleted, fixedNow.AddDate(0, 0, -1)),
	}
	a := ComputeAnalytics(history, PeriodMonth, fixedNow, DefaultMonthlyBudget)
	assert.True(t, a.TotalSpent.Equal(dec("150")), a.TotalSpent.String())
	assert.True(t, a.TotalReceived.Equal(dec("500")))
	assert.True(t, a.NetFlow.Equal(dec("350")))
	assert.Equal(t, 2, a.TransactionCount)
}

func TestComputeAnalyticsBreakdowns(t *testing.T) {
	history := sampleHistory()
	history[0].Currency = "EUR"
	lunch := tx("t6", TypePayInStore, "15.50", StatusCompleted, fixedNow.Add(-4*time.Hour))
	lunch.Merchant = "Blue Bottle Coffee"
	history = append(history, lunch)

	a := ComputeAnalytics(history, PeriodMonth, fixedNow, dec("2000"))

	// t5 is two months old and falls outside the period.
	assert.Equal(t, 5, a.TransactionCount)
	assert.True(t, a.TotalAmount.Equal(dec("4320")), a.TotalAmount.String())
	assert.True(t, a.TotalSpent.Equal(dec("1320")), a.TotalSpent.String())
	assert.True(t, a.TotalReceived.Equal(dec("3000")))
	assert.True(t, a.NetFlow.Equal(a.TotalReceived.Sub(a.TotalSpent)))
	assert.True(t, a.LargestTransaction.Equal(dec("3000")))
	assert.True(t, a.AverageTransaction.Equal(dec("864")), a.AverageTransaction.String())

	assert.Equal(t, 2, a.ByCategory[TypePayInStore].Count)
	assert.True(t, a.ByCategory[TypePayInStore].Amount.Equal(dec("20")))
	assert.Equal(t, 1, a.ByCategory[TypeWithdrawal].Count)
	_, hasDeposit := a.ByCategory[TypeDeposit]
	assert.False(t, hasDeposit)

	assert.Equal(t, map[Status]int{StatusCompleted: 3, StatusPending: 1, StatusFailed: 1}, a.ByStatus)
	assert.True(t, a.ByCurrency["EUR"].Equal(dec("4.5")))
	assert.True(t, a.ByCurrency["USD"].Equal(dec("4315.5")))

	require.Len(t, a.DailySpending, 3)
	assert.True(t, a.DailySpending["2025-06-15"].Equal(dec("20")))
	assert.True(t, a.DailySpending["2025-06-14"].Equal(dec("1200")))
	assert.True(t, a.DailySpending["2025-06-05"].Equal(dec("100")))
	assert.True(t, a.SpendingVelocity.Equal(dec("440")), a.SpendingVelocity.String())

	require.Len(t, a.MerchantSpending, 1)
	assert.Equal(t, 2, a.MerchantSpending["Blue Bottle Coffee"].Count)
	assert.True(t, a.MerchantSpending["Blue Bottle Coffee"].Amount.Equal(dec("20")))

	require.NotEmpty(t, a.TopCategories)
	assert.Equal(t, string(TypeReceived), a.TopCategories[0].Name)
	require.Len(t, a.TopMerchants, 1)

	assert.True(t, a.Budget.Used.Equal(dec("1320")))
	assert.True(t, a.Budget.Remaining.Equal(dec("680")))
	assert.True(t, a.Budget.Percentage.Equal(dec("66")), a.Budget.Percentage.String())
}

func TestComputeAnalyticsEmpty(t *testing.T) {
	a := ComputeAnalytics(nil, PeriodYear, fixedNow, DefaultMonthlyBudget)
	assert.Equal(t, 0, a.TransactionCount)
	assert.True(t, a.TotalAmount.IsZero())
	assert.True(t, a.AverageTransaction.IsZero())
	assert.True(t, a.LargestTransaction.IsZero())
	assert.True(t, a.SpendingVelocity.IsZero())
	assert.True(t, a.NetFlow.IsZero())
	assert.NotNil(t, a.ByCategory)
	assert.NotNil(t, a.DailySpending)
	assert.Empty(t, a.MerchantSpending)
	assert.True(t, a.Budget.Remaining.Equal(DefaultMonthlyBudget))
	assert.True(t, a.Budget.Percentage.IsZero())
}

func TestAverageTimesCountMatchesTotal(t *testing.T) {
	history := []Transaction{
		tx("a", TypeSent, "10", StatusCompleted, fixedNow),
		tx("b", TypeSent, "10", StatusCompleted, fixedNow),
		tx("c", TypeDeposit, "13.33", StatusCompleted, fixedNow),
	}
	a := ComputeAnalytics(history, PeriodWeek, fixedNow, DefaultMonthlyBudget)
	product := a.AverageTransaction.Mul(decimal.NewFromInt(int64(a.TransactionCount)))
	assert.True(t, product.Sub(a.TotalAmount).Abs().LessThan(dec("0.000001")), product.String())
}

func TestComputeAnalyticsZeroBudget(t *testing.T) {
	history := []Transaction{tx("a", TypeSent, "10", StatusCompleted, fixedNow)}
	a := ComputeAnalytics(history, PeriodMonth, fixedNow, decimal.Zero)
	assert.True(t, a.Budget.Percentage.IsZero())
	assert.True(t, a.Budget.Remaining.Equal(dec("-10")))
}
