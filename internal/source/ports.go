// Package source defines the ports through which transaction records enter
// the service, and hosts their adapters.
package source

import (
	"context"
	"errors"

	"moneyflow/internal/core"
)

var ErrNotFound = errors.New("transaction not found")

// Ports for outbound adapters.
type (
	// TransactionLister returns the current transaction snapshot.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionGetter returns a single transaction or ErrNotFound.
	TransactionGetter interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	// TransactionWriter stores a transaction, replacing any record with the same id.
	TransactionWriter interface {
		SaveTransaction(ctx context.Context, tx core.Transaction) error
	}

	// Store is the full read/write port.
	Store interface {
		TransactionLister
		TransactionGetter
		TransactionWriter
	}
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=ports.go
