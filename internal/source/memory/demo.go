package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

// DemoTransactions returns a small history anchored at now, matching what the
// mobile app shows before a real account is connected.
func DemoTransactions(now time.Time) []core.Transaction {
	at := func(days int, hour int) time.Time {
		d := core.StartOfDay(now).AddDate(0, 0, -days)
		return d.Add(time.Duration(hour) * time.Hour)
	}
	return []core.Transaction{
		{
			ID: "TXN001", Type: core.TypeSent, Amount: decimal.RequireFromString("150.00"), Currency: "USD",
			Status: core.StatusCompleted, Date: at(0, 9), From: "You", To: "Sarah Johnson",
			Method: "Wallet", Reference: "REF-2024-001", Details: "Dinner split", Fee: "1.50",
		},
		{
			ID: "TXN002", Type: core.TypeReceived, Amount: decimal.RequireFromString("500.00"), Currency: "USD",
			Status: core.StatusCompleted, Date: at(1, 15), From: "Michael Chen", To: "You",
			Method: "Bank Transfer", Reference: "REF-2024-002", Details: "Freelance payment",
		},
		{
			ID: "TXN003", Type: core.TypePayInStore, Amount: decimal.RequireFromString("45.99"), Currency: "USD",
			Status: core.StatusCompleted, Date: at(2, 12), Merchant: "Fresh Market",
			Method: "QR Code", Reference: "REF-2024-003", Details: "Groceries",
		},
		{
			ID: "TXN004", Type: core.TypeDeposit, Amount: decimal.RequireFromString("1000.00"), Currency: "USD",
			Status: core.StatusPending, Date: at(3, 10), From: "Chase Bank", To: "You",
			Method: "Bank Transfer", Reference: "REF-2024-004", Details: "Account top up",
		},
		{
			ID: "TXN005", Type: core.TypeWithdrawal, Amount: decimal.RequireFromString("200.00"), Currency: "USD",
			Status: core.StatusFailed, Date: at(5, 18), From: "You", To: "ATM #4521",
			Method: "Card", Reference: "REF-2024-005", Details: "ATM withdrawal", Fee: "2.00",
		},
		{
			ID: "TXN006", Type: core.TypePayInStore, Amount: decimal.RequireFromString("12.50"), Currency: "EUR",
			Status: core.StatusCompleted, Date: at(9, 8), Merchant: "Cafe Central",
			Method: "NFC", Reference: "REF-2024-006", Details: "Coffee and pastry",
		},
		{
			ID: "TXN007", Type: core.TypeSent, Amount: decimal.RequireFromString("75.00"), Currency: "USD",
			Status: core.StatusCancelled, Date: at(20, 20), From: "You", To: "Alex Rivera",
			Method: "Wallet", Reference: "REF-2024-007", Details: "Concert tickets",
		},
	}
}
