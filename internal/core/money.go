// Package core holds the transaction model and the pure history and
// analytics computations behind the money-transfer screens.
//
// This file contains amount parsing and the loosely typed record form that
// external sources hand us.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds every accepted amount. Amounts may carry at most
// MaxAmountScale fractional digits.
var MaxAmount = decimal.New(1, 15)

const MaxAmountScale = 8

// ParseAmount converts a decimal string into a non-negative amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted, as is
// surrounding whitespace. A lone comma followed by exactly three digits
// (1,234) could be a thousands separator and is rejected. Exponent notation,
// values above MaxAmount and more than MaxAmountScale fractional digits are
// rejected too. Every failure wraps ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("150")     -> 150, nil
//	ParseAmount("49,99")   -> 49.99, nil
//	ParseAmount("1,234")   -> 0, ErrInvalidAmount
//	ParseAmount("1e5")     -> 0, ErrInvalidAmount
//	ParseAmount("-1")      -> 0, ErrInvalidAmount
//	ParseAmount("ten")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: exponent notation %q", ErrInvalidAmount, s)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if i := strings.IndexByte(s, ','); len(s)-i-1 == 3 {
			return decimal.Zero, fmt.Errorf("%w: ambiguous separator in %q", ErrInvalidAmount, s)
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, s)
	}
	if d.Exponent() < -MaxAmountScale {
		return decimal.Zero, fmt.Errorf("%w: more than %d decimal places in %q", ErrInvalidAmount, MaxAmountScale, s)
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q exceeds %s", ErrInvalidAmount, s, MaxAmount)
	}
	return d, nil
}

// RawAmount keeps the textual form of an amount that arrived either as a JSON
// string or a JSON number.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
		return nil
	}
	*a = RawAmount(data)
	return nil
}

func (a RawAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// RawTransaction is a transaction as supplied by an external service, queue
// or sheet, before validation.
type RawTransaction struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    RawAmount `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Date      string    `json:"date"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Merchant  string    `json:"merchant,omitempty"`
	Method    string    `json:"method,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Details   string    `json:"details,omitempty"`
	Fee       string    `json:"fee,omitempty"`
}

// EnsureID returns r with its ID taken from newID when the ID is blank.
func (r RawTransaction) EnsureID(newID func() string) RawTransaction {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = newID()
	}
	return r
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate accepts RFC 3339 timestamps, zone-less timestamps (interpreted in
// loc) and plain dates.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Decode validates the raw record and converts it. Zone-less dates are read
// in loc.
func (r RawTransaction) Decode(loc *time.Location) (Transaction, error) {
	if loc == nil {
		loc = time.UTC
	}
	typ, err := ParseTransactionType(r.Type)
	if err != nil {
		return Transaction{}, err
	}
	status, err := ParseStatus(r.Status)
	if err != nil {
		return Transaction{}, err
	}
	amount, err := ParseAmount(string(r.Amount))
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(r.Date, loc)
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		ID:        strings.TrimSpace(r.ID),
		Type:      typ,
		Amount:    amount,
		Currency:  strings.ToUpper(strings.TrimSpace(r.Currency)),
		Status:    status,
		Date:      date,
		From:      r.From,
		To:        r.To,
		Merchant:  r.Merchant,
		Method:    r.Method,
		Reference: r.Reference,
		Details:   r.Details,
		Fee:       r.Fee,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Raw converts a validated transaction back into its wire form.
func (t Transaction) Raw() RawTransaction {
	return RawTransaction{
		ID:        t.ID,
		Type:      string(t.Type),
		Amount:    RawAmount(t.Amount.String()),
		Currency:  t.Currency,
		Status:    string(t.Status),
		Date:      t.Date.Format(time.RFC3339),
		From:      t.From,
		To:        t.To,
		Merchant:  t.Merchant,
		Method:    t.Method,
		Reference: t.Reference,
		Details:   t.Details,
		Fee:       t.Fee,
	}
}

// DecodeAll converts every record it can and returns the rejected ones with
// their errors. Rejected records are excluded from the dataset.
func DecodeAll(raws []RawTransaction, loc *time.Location) ([]Transaction, []DecodeError) {
	out := make([]Transaction, 0, len(raws))
	var rejected []DecodeError
	for i, r := range raws {
		tx, err := r.Decode(loc)
		if err != nil {
			rejected = append(rejected, DecodeError{Index: i, ID: r.ID, Err: err})
			continue
		}
		out = append(out, tx)
	}
	return out, rejected
}

// DecodeError describes a raw record that failed validation.
type DecodeError struct {
	Index int
	ID    string
	Err   error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("record %d (id %q): %v", e.Index, e.ID, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}
