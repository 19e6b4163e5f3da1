package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeSent       TransactionType = "sent"
	TypeReceived   TransactionType = "received"
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypePayInStore TransactionType = "pay_in_store"
)

const (
	StatusCompleted Status = "Completed"
	StatusPending   Status = "Pending"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

type (
	TransactionType string

	Status string

	// Transaction is a validated transaction record. Values of this type are
	// never mutated by the filter or analytics code.
	Transaction struct {
		ID       string
		Type     TransactionType
		Amount   decimal.Decimal
		Currency string
		Status   Status
		Date     time.Time

		From      string
		To        string
		Merchant  string
		Method    string
		Reference string
		Details   string
		Fee       string
	}
)

var (
	ErrEmptyID       = errors.New("empty transaction id")
	ErrUnknownType   = errors.New("unknown transaction type")
	ErrUnknownStatus = errors.New("unknown transaction status")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// TransactionTypes lists every known type in display order.
var TransactionTypes = []TransactionType{TypeSent, TypeReceived, TypeDeposit, TypeWithdrawal, TypePayInStore}

// Statuses lists every known status.
var Statuses = []Status{StatusCompleted, StatusPending, StatusFailed, StatusCancelled}

// ParseTransactionType accepts only the five known variants.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeSent, TypeReceived, TypeDeposit, TypeWithdrawal, TypePayInStore:
		return true
	default:
		return false
	}
}

// IsDebit reports whether the type moves funds out of the account.
func (t TransactionType) IsDebit() bool {
	return t == TypeSent || t == TypeWithdrawal || t == TypePayInStore
}

// IsCredit reports whether the type moves funds into the account.
func (t TransactionType) IsCredit() bool {
	return t == TypeReceived || t == TypeDeposit
}

// Label returns the human readable name used in history rows.
func (t TransactionType) Label() string {
	switch t {
	case TypeSent:
		return "Money Sent"
	case TypeReceived:
		return "Money Received"
	case TypeDeposit:
		return "Deposit"
	case TypeWithdrawal:
		return "Withdrawal"
	case TypePayInStore:
		return "Pay in Store"
	default:
		return string(t)
	}
}

// ParseStatus matches case-insensitively and returns the canonical spelling.
func ParseStatus(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(trimmed, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, t.Type)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, t.Status)
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the calendar day key (YYYY-MM-DD) of the transaction in loc.
func (t Transaction) Day(loc *time.Location) string {
	return t.Date.In(loc).Format(time.DateOnly)
}
