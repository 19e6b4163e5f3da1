package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
	"moneyflow/internal/services"
	"moneyflow/internal/source"
)

// TransactionDTO is the JSON form of a transaction. Amounts are decimal strings.
type TransactionDTO struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	TypeLabel string `json:"type_label"`
	Direction string `json:"direction"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Date      string `json:"date"`
	Day       string `json:"day"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Merchant  string `json:"merchant,omitempty"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
	Details   string `json:"details,omitempty"`
	Fee       string `json:"fee,omitempty"`
}

type HistoryResponse struct {
	Count        int              `json:"count"`
	Sort         string           `json:"sort"`
	Transactions []TransactionDTO `json:"transactions"`
}

type GroupDTO struct {
	Key          string           `json:"key"`
	Label        string           `json:"label"`
	Transactions []TransactionDTO `json:"transactions"`
}

type GroupedResponse struct {
	Count  int        `json:"count"`
	Groups []GroupDTO `json:"groups"`
}

type StatDTO struct {
	Name   string `json:"name,omitempty"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

type BudgetDTO struct {
	Budget     string `json:"budget"`
	Used       string `json:"used"`
	Remaining  string `json:"remaining"`
	Percentage string `json:"percentage"`
}

type AnalyticsDTO struct {
	Period             string             `json:"period"`
	PeriodStart        string             `json:"period_start"`
	TransactionCount   int                `json:"transaction_count"`
	TotalAmount        string             `json:"total_amount"`
	TotalSpent         string             `json:"total_spent"`
	TotalReceived      string             `json:"total_received"`
	NetFlow            string             `json:"net_flow"`
	ByCategory         map[string]StatDTO `json:"by_category"`
	ByStatus           map[string]int     `json:"by_status"`
	ByCurrency         map[string]string  `json:"by_currency"`
	AverageTransaction string             `json:"average_transaction"`
	LargestTransaction string             `json:"largest_transaction"`
	DailySpending      map[string]string  `json:"daily_spending"`
	SpendingVelocity   string             `json:"spending_velocity"`
	MerchantSpending   map[string]StatDTO `json:"merchant_spending"`
	TopCategories      []StatDTO          `json:"top_categories"`
	TopMerchants       []StatDTO          `json:"top_merchants"`
	Budget             BudgetDTO          `json:"budget"`
}

type DashboardResponse struct {
	Analytics AnalyticsDTO     `json:"analytics"`
	Recent    []TransactionDTO `json:"recent"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newTransactionDTO(tx core.Transaction, loc *time.Location) TransactionDTO {
	direction := "credit"
	if tx.Type.IsDebit() {
		direction = "debit"
	}
	return TransactionDTO{
		ID:        tx.ID,
		Type:      string(tx.Type),
		TypeLabel: tx.Type.Label(),
		Direction: direction,
		Amount:    money(tx.Amount),
		Currency:  tx.Currency,
		Status:    string(tx.Status),
		Date:      tx.Date.In(loc).Format(time.RFC3339),
		Day:       tx.Day(loc),
		From:      tx.From,
		To:        tx.To,
		Merchant:  tx.Merchant,
		Method:    tx.Method,
		Reference: tx.Reference,
		Details:   tx.Details,
		Fee:       tx.Fee,
	}
}

func transactionDTOs(txs []core.Transaction, loc *time.Location) []TransactionDTO {
	out := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = newTransactionDTO(tx, loc)
	}
	return out
}

func groupedResponse(groups []core.DateGroup, loc *time.Location) GroupedResponse {
	resp := GroupedResponse{Groups: make([]GroupDTO, len(groups))}
	for i, g := range groups {
		resp.Groups[i] = GroupDTO{
			Key:          g.Key,
			Label:        g.Label,
			Transactions: transactionDTOs(g.Transactions, loc),
		}
		resp.Count += len(g.Transactions)
	}
	return resp
}

func newAnalyticsDTO(a core.Analytics) AnalyticsDTO {
	dto := AnalyticsDTO{
		Period:             string(a.Period),
		PeriodStart:        a.PeriodStart.Format(time.RFC3339),
		TransactionCount:   a.TransactionCount,
		TotalAmount:        money(a.TotalAmount),
		TotalSpent:         money(a.TotalSpent),
		TotalReceived:      money(a.TotalReceived),
		NetFlow:            money(a.NetFlow),
		ByCategory:         make(map[string]StatDTO, len(a.ByCategory)),
		ByStatus:           make(map[string]int, len(a.ByStatus)),
		ByCurrency:         make(map[string]string, len(a.ByCurrency)),
		AverageTransaction: money(a.AverageTransaction),
		LargestTransaction: money(a.LargestTransaction),
		DailySpending:      make(map[string]string, len(a.DailySpending)),
		SpendingVelocity:   money(a.SpendingVelocity),
		MerchantSpending:   make(map[string]StatDTO, len(a.MerchantSpending)),
		TopCategories:      rankedDTOs(a.TopCategories),
		TopMerchants:       rankedDTOs(a.TopMerchants),
		Budget: BudgetDTO{
			Budget:     money(a.Budget.Budget),
			Used:       money(a.Budget.Used),
			Remaining:  money(a.Budget.Remaining),
			Percentage: a.Budget.Percentage.StringFixed(1),
		},
	}
	for k, v := range a.ByCategory {
		dto.ByCategory[string(k)] = StatDTO{Count: v.Count, Amount: money(v.Amount)}
	}
	for k, v := range a.ByStatus {
		dto.ByStatus[string(k)] = v
	}
	for k, v := range a.ByCurrency {
		dto.ByCurrency[k] = money(v)
	}
	for k, v := range a.DailySpending {
		dto.DailySpending[k] = money(v)
	}
	for k, v := range a.MerchantSpending {
		dto.MerchantSpending[k] = StatDTO{Count: v.Count, Amount: money(v.Amount)}
	}
	return dto
}

func rankedDTOs(in []core.CategoryAmount) []StatDTO {
	out := make([]StatDTO, len(in))
	for i, c := range in {
		out[i] = StatDTO{Name: c.Name, Count: c.Count, Amount: money(c.Amount)}
	}
	return out
}

// money renders an amount with two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrReadOnly):
		return http.StatusNotImplemented
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidFilter),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrUnknownType),
		errors.Is(err, core.ErrUnknownStatus),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
