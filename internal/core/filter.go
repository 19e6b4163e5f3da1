package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// All is the sentinel that disables a filter stage.
const All = "all"

const (
	RangeAll       DateRange = All
	RangeToday     DateRange = "today"
	RangeYesterday DateRange = "yesterday"
	RangeWeek      DateRange = "week"
	RangeMonth     DateRange = "month"
)

const (
	AmountAll    AmountRange = All
	AmountSmall  AmountRange = "small"
	AmountMedium AmountRange = "medium"
	AmountLarge  AmountRange = "large"
)

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByType   SortField = "type"
	SortByStatus SortField = "status"
)

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// StatusAll disables the status filter.
const StatusAll Status = All

var (
	smallLimit  = decimal.NewFromInt(50)
	mediumLimit = decimal.NewFromInt(200)
)

var ErrInvalidFilter = errors.New("invalid filter")

type (
	DateRange string

	AmountRange string

	SortField string

	SortOrder string

	// Filter combines every history constraint. The zero value matches
	// everything.
	Filter struct {
		// Types restricts records to the listed types; empty means no restriction.
		Types       []TransactionType
		DateRange   DateRange
		AmountRange AmountRange
		Status      Status
		Search      string
	}

	// Sort selects the history ordering. The zero value is newest first.
	Sort struct {
		By    SortField
		Order SortOrder
	}
)

// DefaultSort returns the history default: date, newest first.
func DefaultSort() Sort {
	return Sort{By: SortByDate, Order: SortDesc}
}

// String returns the sort as "field:order".
func (s Sort) String() string {
	n := s.normalized()
	return string(n.By) + ":" + string(n.Order)
}

func (s Sort) normalized() Sort {
	if s.By == "" {
		s.By = SortByDate
	}
	if s.Order == "" {
		s.Order = SortDesc
	}
	return s
}

func ParseDateRange(s string) (DateRange, error) {
	r := DateRange(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeYesterday, RangeWeek, RangeMonth:
		return r, nil
	default:
		return "", fmt.Errorf("%w: date range %q", ErrInvalidFilter, s)
	}
}

func ParseAmountRange(s string) (AmountRange, error) {
	r := AmountRange(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case "":
		return AmountAll, nil
	case AmountAll, AmountSmall, AmountMedium, AmountLarge:
		return r, nil
	default:
		return "", fmt.Errorf("%w: amount range %q", ErrInvalidFilter, s)
	}
}

// ParseStatusFilter accepts "all", an empty string or a known status.
func ParseStatusFilter(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, All) {
		return StatusAll, nil
	}
	st, err := ParseStatus(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return st, nil
}

// ParseTypes reads a list of type names. Any "all" entry, or an empty list,
// yields no restriction.
func ParseTypes(values []string) ([]TransactionType, error) {
	var out []TransactionType
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.EqualFold(v, All) {
			return nil, nil
		}
		t, err := ParseTransactionType(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func ParseSortField(s string) (SortField, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return SortByDate, nil
	case SortByDate, SortByAmount, SortByType, SortByStatus:
		return f, nil
	default:
		return "", fmt.Errorf("%w: sort field %q", ErrInvalidFilter, s)
	}
}

func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case "":
		return SortDesc, nil
	case SortAsc, SortDesc:
		return o, nil
	default:
		return "", fmt.Errorf("%w: sort order %q", ErrInvalidFilter, s)
	}
}

// ClassifyAmount buckets an amount: small up to 50, medium up to 200, large
// above that. Both limits are inclusive on the lower bucket.
func ClassifyAmount(d decimal.Decimal) AmountRange {
	switch {
	case d.LessThanOrEqual(smallLimit):
		return AmountSmall
	case d.LessThanOrEqual(mediumLimit):
		return AmountMedium
	default:
		return AmountLarge
	}
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Key returns a stable cache key for the filter.
func (f Filter) Key() string {
	types := make([]string, len(f.Types))
	for i, t := range f.Types {
		types[i] = string(t)
	}
	slices.Sort(types)
	return fmt.Sprintf("types=%s|range=%s|amount=%s|status=%s|q=%s",
		strings.Join(types, ","), f.DateRange, f.AmountRange, f.Status,
		strings.ToLower(strings.TrimSpace(f.Search)))
}

// FilterAndSort returns the records matching f ordered by s. The input slice
// is left untouched. Date ranges are evaluated against now.
func FilterAndSort(txs []Transaction, f Filter, s Sort, now time.Time) []Transaction {
	out := Apply(txs, f, now)
	SortTransactions(out, s)
	return out
}

// Apply runs the filter pipeline only. Every stage is an independent
// conjunction so the order of stages does not change the result.
func Apply(txs []Transaction, f Filter, now time.Time) []Transaction {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	lower, upper, bounded := dateBounds(f.DateRange, now)

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if len(f.Types) > 0 && !slices.Contains(f.Types, tx.Type) {
			continue
		}
		if query != "" && !matchesSearch(tx, query) {
			continue
		}
		if f.Status != "" && f.Status != StatusAll && tx.Status != f.Status {
			continue
		}
		if bounded {
			if tx.Date.Before(lower) {
				continue
			}
			if !upper.IsZero() && !tx.Date.Before(upper) {
				continue
			}
		}
		if f.AmountRange != "" && f.AmountRange != AmountAll && ClassifyAmount(tx.Amount) != f.AmountRange {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func matchesSearch(tx Transaction, query string) bool {
	for _, field := range []string{tx.Details, tx.From, tx.To, tx.Merchant, tx.Reference} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// dateBounds returns the inclusive lower bound and, for "yesterday", the
// exclusive upper bound.
func dateBounds(r DateRange, now time.Time) (lower, upper time.Time, bounded bool) {
	today := StartOfDay(now)
	switch r {
	case RangeToday:
		return today, time.Time{}, true
	case RangeYesterday:
		return today.AddDate(0, 0, -1), today, true
	case RangeWeek:
		return today.AddDate(0, 0, -7), time.Time{}, true
	case RangeMonth:
		return today.AddDate(0, -1, 0), time.Time{}, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// SortTransactions orders txs in place with a stable sort.
//
// The comparator is computed as a descending delta (b against a) and negated
// for ascending order, so ties keep their input order in both directions.
func SortTransactions(txs []Transaction, s Sort) {
	s = s.normalized()
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		c := descending(a, b, s.By)
		if s.Order == SortAsc {
			c = -c
		}
		return c
	})
}

func descending(a, b Transaction, by SortField) int {
	switch by {
	case SortByAmount:
		return b.Amount.Cmp(a.Amount)
	case SortByType:
		return cmp.Compare(string(b.Type), string(a.Type))
	case SortByStatus:
		return cmp.Compare(string(b.Status), string(a.Status))
	default:
		return b.Date.Compare(a.Date)
	}
}
