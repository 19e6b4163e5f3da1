package core

import (
	"slices"
	"strings"
	"time"
)

// DateGroup is one calendar-day section of the history list.
type DateGroup struct {
	Key          string // YYYY-MM-DD
	Label        string
	Transactions []Transaction
}

// GroupByDate partitions txs by calendar day in now's location. Each group
// is ordered newest first and groups are returned in descending key order.
// Every record lands in exactly one group.
func GroupByDate(txs []Transaction, now time.Time) []DateGroup {
	loc := now.Location()
	byKey := make(map[string][]Transaction)
	for _, tx := range txs {
		key := tx.Day(loc)
		byKey[key] = append(byKey[key], tx)
	}

	groups := make([]DateGroup, 0, len(byKey))
	for key, items := range byKey {
		slices.SortStableFunc(items, func(a, b Transaction) int {
			return b.Date.Compare(a.Date)
		})
		groups = append(groups, DateGroup{
			Key:          key,
			Label:        SectionLabel(key, now),
			Transactions: items,
		})
	}
	slices.SortFunc(groups, func(a, b DateGroup) int {
		return strings.Compare(b.Key, a.Key)
	})
	return groups
}

// SectionLabel names a day key relative to now: Today, Yesterday, This Week
// for the rest of the last seven days, otherwise the key itself.
func SectionLabel(key string, now time.Time) string {
	day, err := time.ParseInLocation(time.DateOnly, key, now.Location())
	if err != nil {
		return key
	}
	today := StartOfDay(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case !day.Before(today.AddDate(0, 0, -7)) && day.Before(today):
		return "This Week"
	default:
		return key
	}
}
