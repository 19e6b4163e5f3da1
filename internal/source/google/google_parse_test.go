package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/core"
)

func TestParseTransactionRows(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Type", "Amount", "Currency", "Status", "Date", "Merchant", "Notes"},
		{"TXN001", "pay_in_store", "45.99", "USD", "Completed", "2025-06-14 10:30:00", "Fresh Market", "ignored"},
		{},
		{"", "", "", ""},
		{"TXN002", "received", 250.0, "USD", "pending", "2025-06-13"},
	}

	raws, err := parseTransactionRows(values)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	assert.Equal(t, core.RawTransaction{
		ID:       "TXN001",
		Type:     "pay_in_store",
		Amount:   "45.99",
		Currency: "USD",
		Status:   "Completed",
		Date:     "2025-06-14 10:30:00",
		Merchant: "Fresh Market",
	}, raws[0])
	assert.Equal(t, core.RawAmount("250"), raws[1].Amount)
	assert.Empty(t, raws[1].Merchant, "short rows leave trailing fields empty")
}

func TestParseTransactionRows_ThousandsAmounts(t *testing.T) {
	values := [][]interface{}{
		{"id", "type", "amount", "status", "date"},
		{"A", "deposit", 1234.0, "Completed", "2025-06-14"},
		{"B", "deposit", 1234567.25, "Completed", "2025-06-14"},
		{"C", "deposit", "1,234", "Completed", "2025-06-14"},
		{"D", "deposit", "1,234.00", "Completed", "2025-06-14"},
	}

	raws, err := parseTransactionRows(values)
	require.NoError(t, err)
	require.Len(t, raws, 4)
	assert.Equal(t, core.RawAmount("1234"), raws[0].Amount)
	assert.Equal(t, core.RawAmount("1234567.25"), raws[1].Amount)

	txs, rejected := core.DecodeAll(raws, nil)
	require.Len(t, txs, 2)
	require.Len(t, rejected, 2)
	for _, r := range rejected {
		assert.ErrorIs(t, r, core.ErrInvalidAmount)
	}
}

func TestParseTransactionRows_MissingHeader(t *testing.T) {
	_, err := parseTransactionRows([][]interface{}{{"id", "type", "date"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount,status")
}

func TestParseTransactionRows_Empty(t *testing.T) {
	raws, err := parseTransactionRows(nil)
	assert.NoError(t, err)
	assert.Empty(t, raws)
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "Transactions", quoteSheet("Transactions"))
	assert.Equal(t, "'2025 Transactions'", quoteSheet("2025 Transactions"))
	assert.Equal(t, "'Bob''s'", quoteSheet("Bob's"))
}
