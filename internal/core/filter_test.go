package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

func tx(id string, typ TransactionType, amount string, status Status, date time.Time) Transaction {
	return Transaction{
		ID:       id,
		Type:     typ,
		Amount:   decimal.RequireFromString(amount),
		Currency: "USD",
		Status:   status,
		Date:     date,
	}
}

func sampleHistory() []Transaction {
	coffee := tx("t1", TypePayInStore, "4.50", StatusCompleted, fixedNow.Add(-2*time.Hour))
	coffee.Merchant = "Blue Bottle Coffee"
	rent := tx("t2", TypeSent, "1200", StatusPending, fixedNow.AddDate(0, 0, -1))
	rent.To = "Landlord Jane"
	rent.Reference = "RENT-JUNE"
	salary := tx("t3", TypeReceived, "3000", StatusCompleted, fixedNow.AddDate(0, 0, -3))
	salary.From = "Acme Corp"
	atm := tx("t4", TypeWithdrawal, "100", StatusFailed, fixedNow.AddDate(0, 0, -10))
	atm.Details = "ATM cash withdrawal"
	topup := tx("t5", TypeDeposit, "75", StatusCompleted, fixedNow.AddDate(0, -2, 0))
	return []Transaction{coffee, rent, salary, atm, topup}
}

func ids(txs []Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func TestFilterAndSort_IdentityFilter(t *testing.T) {
	history := sampleHistory()
	got := FilterAndSort(history, Filter{Types: nil, DateRange: RangeAll, AmountRange: AmountAll, Status: StatusAll, Search: "  "}, DefaultSort(), fixedNow)
	assert.ElementsMatch(t, ids(history), ids(got))

	zero := FilterAndSort(history, Filter{}, Sort{}, fixedNow)
	assert.Equal(t, ids(got), ids(zero))
}

func TestFilterAndSort_DoesNotMutateInput(t *testing.T) {
	history := sampleHistory()
	before := ids(history)
	FilterAndSort(history, Filter{}, Sort{By: SortByAmount, Order: SortAsc}, fixedNow)
	assert.Equal(t, before, ids(history))
}

func TestFilterAndSort_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"types", Filter{Types: []TransactionType{TypeSent, TypeReceived}}, []string{"t2", "t3"}},
		{"search merchant", Filter{Search: "coffee"}, []string{"t1"}},
		{"search is case insensitive", Filter{Search: " ACME "}, []string{"t3"}},
		{"search reference", Filter{Search: "rent-june"}, []string{"t2"}},
		{"search details", Filter{Search: "atm"}, []string{"t4"}},
		{"search to", Filter{Search: "jane"}, []string{"t2"}},
		{"search no match", Filter{Search: "zzz"}, []string{}},
		{"status", Filter{Status: StatusCompleted}, []string{"t1", "t3", "t5"}},
		{"today", Filter{DateRange: RangeToday}, []string{"t1"}},
		{"yesterday", Filter{DateRange: RangeYesterday}, []string{"t2"}},
		{"week", Filter{DateRange: RangeWeek}, []string{"t1", "t2", "t3"}},
		{"month", Filter{DateRange: RangeMonth}, []string{"t1", "t2", "t3", "t4"}},
		{"small", Filter{AmountRange: AmountSmall}, []string{"t1"}},
		{"medium", Filter{AmountRange: AmountMedium}, []string{"t4", "t5"}},
		{"large", Filter{AmountRange: AmountLarge}, []string{"t2", "t3"}},
		{"combined", Filter{Types: []TransactionType{TypeSent, TypeReceived, TypePayInStore}, Status: StatusCompleted, DateRange: RangeWeek}, []string{"t1", "t3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAndSort(sampleHistory(), tt.filter, DefaultSort(), fixedNow)
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}
}

func TestFilterAndSort_ExampleScenario(t *testing.T) {
	t0 := fixedNow
	history := []Transaction{
		tx("a", TypeSent, "150", StatusCompleted, t0),
		tx("b", TypeReceived, "500", StatusCompleted, t0.AddDate(0, 0, -1)),
	}
	got := FilterAndSort(history, Filter{Types: []TransactionType{TypeSent}}, DefaultSort(), fixedNow)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestClassifyAmountBoundaries(t *testing.T) {
	in := []string{"49.99", "50.00", "50.01", "200.00", "200.01"}
	want := []AmountRange{AmountSmall, AmountSmall, AmountMedium, AmountMedium, AmountLarge}
	for i, s := range in {
		assert.Equal(t, want[i], ClassifyAmount(decimal.RequireFromString(s)), s)
	}
}

func TestDateRangeLowerBoundIsInclusive(t *testing.T) {
	midnight := StartOfDay(fixedNow)
	history := []Transaction{
		tx("midnight", TypeSent, "1", StatusCompleted, midnight),
		tx("before", TypeSent, "1", StatusCompleted, midnight.Add(-time.Nanosecond)),
		tx("week-edge", TypeSent, "1", StatusCompleted, midnight.AddDate(0, 0, -7)),
		tx("yesterday-start", TypeSent, "1", StatusCompleted, midnight.AddDate(0, 0, -1)),
	}
	assert.ElementsMatch(t, []string{"midnight"}, ids(Apply(history, Filter{DateRange: RangeToday}, fixedNow)))
	assert.ElementsMatch(t, []string{"before", "yesterday-start"}, ids(Apply(history, Filter{DateRange: RangeYesterday}, fixedNow)))
	assert.ElementsMatch(t, []string{"midnight", "before", "week-edge", "yesterday-start"}, ids(Apply(history, Filter{DateRange: RangeWeek}, fixedNow)))
}

func TestMonthRangeUsesCalendarMonth(t *testing.T) {
	now := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	history := []Transaction{
		tx("in", TypeSent, "1", StatusCompleted, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		tx("out", TypeSent, "1", StatusCompleted, time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC)),
	}
	// Go normalises Feb 31 to Mar 3, so the lower bound is 2025-03-03.
	got := Apply(history, Filter{DateRange: RangeMonth}, now)
	assert.Empty(t, got)

	now = time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	got = Apply(history, Filter{DateRange: RangeMonth}, now)
	assert.ElementsMatch(t, []string{"in", "out"}, ids(got))
}

func TestSortOrderReversesWithoutTies(t *testing.T) {
	history := sampleHistory()
	for _, field := range []SortField{SortByDate, SortByAmount} {
		asc := FilterAndSort(history, Filter{}, Sort{By: field, Order: SortAsc}, fixedNow)
		desc := FilterAndSort(history, Filter{}, Sort{By: field, Order: SortDesc}, fixedNow)
		require.Len(t, asc, len(desc))
		for i := range asc {
			assert.Equal(t, asc[i].ID, desc[len(desc)-1-i].ID, "field %s index %d", field, i)
		}
	}
}

func TestSortByAmountDescending(t *testing.T) {
	got := FilterAndSort(sampleHistory(), Filter{}, Sort{By: SortByAmount, Order: SortDesc}, fixedNow)
	assert.Equal(t, []string{"t3", "t2", "t4", "t5", "t1"}, ids(got))
}

func TestSortByTypeIsStableOnTies(t *testing.T) {
	history := []Transaction{
		tx("s1", TypeSent, "1", StatusCompleted, fixedNow),
		tx("d1", TypeDeposit, "1", StatusCompleted, fixedNow),
		tx("s2", TypeSent, "2", StatusCompleted, fixedNow),
		tx("d2", TypeDeposit, "2", StatusCompleted, fixedNow),
	}
	desc := FilterAndSort(history, Filter{}, Sort{By: SortByType, Order: SortDesc}, fixedNow)
	assert.Equal(t, []string{"s1", "s2", "d1", "d2"}, ids(desc))

	asc := FilterAndSort(history, Filter{}, Sort{By: SortByType, Order: SortAsc}, fixedNow)
	assert.Equal(t, []string{"d1", "d2", "s1", "s2"}, ids(asc))
}

func TestSortByStatus(t *testing.T) {
	got := FilterAndSort(sampleHistory(), Filter{}, Sort{By: SortByStatus, Order: SortAsc}, fixedNow)
	var statuses []Status
	for _, t := range got {
		statuses = append(statuses, t.Status)
	}
	assert.Equal(t, []Status{StatusCompleted, StatusCompleted, StatusCompleted, StatusFailed, StatusPending}, statuses)
}

func TestParseFilterValues(t *testing.T) {
	types, err := ParseTypes([]string{"sent", "received", "sent"})
	require.NoError(t, err)
	assert.Equal(t, []TransactionType{TypeSent, TypeReceived}, types)

	types, err = ParseTypes([]string{"sent", "all"})
	require.NoError(t, err)
	assert.Nil(t, types)

	_, err = ParseTypes([]string{"refund"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	r, err := ParseDateRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeAll, r)
	_, err = ParseDateRange("decade")
	assert.ErrorIs(t, err, ErrInvalidFilter)

	a, err := ParseAmountRange("Large")
	require.NoError(t, err)
	assert.Equal(t, AmountLarge, a)

	st, err := ParseStatusFilter("pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st)
	st, err = ParseStatusFilter("ALL")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, st)

	f, err := ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, f)
	_, err = ParseSortOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFilterKeyIgnoresTypeOrder(t *testing.T) {
	a := Filter{Types: []TransactionType{TypeSent, TypeDeposit}, Search: "Coffee"}
	b := Filter{Types: []TransactionType{TypeDeposit, TypeSent}, Search: " coffee "}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Filter{}.Key())
	assert.Equal(t, "date:desc", Sort{}.String())
}
