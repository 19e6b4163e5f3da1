package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/amqp"
	"moneyflow/internal/core"
	"moneyflow/internal/source/memory"
	"moneyflow/internal/source/mocks"
)

func validEvent(id string) *amqp.TransactionEvent {
	return amqp.NewTransactionEvent(core.RawTransaction{
		ID:       id,
		Type:     "received",
		Amount:   "250.00",
		Currency: "usd",
		Status:   "completed",
		Date:     "2025-06-14T09:30:00Z",
		From:     "Sarah Johnson",
	})
}

func TestIngestWorker_StoresValidEvent(t *testing.T) {
	store := memory.New(nil)
	w := NewIngestWorker(store, time.UTC, nil)

	require.NoError(t, w.HandleMessage(context.Background(), validEvent("TXN100")))

	got, err := store.GetTransaction(context.Background(), "TXN100")
	require.NoError(t, err)
	assert.Equal(t, core.TypeReceived, got.Type)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "250", got.Amount.String())
}

func TestIngestWorker_RedeliveryIsIdempotent(t *testing.T) {
	store := memory.New(nil)
	w := NewIngestWorker(store, time.UTC, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, w.HandleMessage(context.Background(), validEvent("TXN100")))
	}

	list, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestIngestWorker_AssignsStableIDWhenMissing(t *testing.T) {
	store := memory.New(nil)
	w := NewIngestWorker(store, time.UTC, nil)

	ev := validEvent("")
	for i := 0; i < 2; i++ {
		require.NoError(t, w.HandleMessage(context.Background(), ev))
	}

	list, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1, "redelivery reuses the derived id")
	assert.NotEmpty(t, list[0].ID)
	assert.Equal(t, core.TypeReceived, list[0].Type)

	other := validEvent("")
	other.Timestamp = ev.Timestamp.Add(time.Second)
	require.NoError(t, w.HandleMessage(context.Background(), other))
	list, err = store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2, "distinct events get distinct ids")
}

func TestIngestWorker_InvalidRecordsArePermanent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.RawTransaction)
		want   error
	}{
		{"negative amount", func(r *core.RawTransaction) { r.Amount = "-5" }, core.ErrInvalidAmount},
		{"bad amount", func(r *core.RawTransaction) { r.Amount = "lots" }, core.ErrInvalidAmount},
		{"unknown type", func(r *core.RawTransaction) { r.Type = "gift" }, core.ErrUnknownType},
		{"unknown status", func(r *core.RawTransaction) { r.Status = "done" }, core.ErrUnknownStatus},
		{"huge exponent", func(r *core.RawTransaction) { r.Amount = "1e5000000" }, core.ErrInvalidAmount},
		{"bad date", func(r *core.RawTransaction) { r.Date = "yesterday" }, core.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockTransactionWriter(ctrl)
			store.EXPECT().SaveTransaction(gomock.Any(), gomock.Any()).Times(0)

			ev := validEvent("TXN200")
			tt.mutate(&ev.Transaction)

			err := NewIngestWorker(store, time.UTC, nil).HandleMessage(context.Background(), ev)
			require.Error(t, err)
			assert.ErrorIs(t, err, amqp.ErrPermanent)
			assert.Contains(t, err.Error(), tt.want.Error())
		})
	}
}

func TestIngestWorker_StorageFailureIsTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTransactionWriter(ctrl)
	store.EXPECT().
		SaveTransaction(gomock.Any(), gomock.Any()).
		Return(errors.New("database is locked"))

	err := NewIngestWorker(store, time.UTC, nil).HandleMessage(context.Background(), validEvent("TXN300"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, amqp.ErrPermanent))
}

func TestIngestWorker_NilEvent(t *testing.T) {
	err := NewIngestWorker(memory.New(nil), nil, nil).HandleMessage(context.Background(), nil)
	assert.ErrorIs(t, err, amqp.ErrPermanent)
}
