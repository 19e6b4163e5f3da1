package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/source"
)

// SeedFile is the file NewFromFiles looks for inside the data directory.
const SeedFile = "transactions.json"

var _ source.Store = (*Store)(nil)

// Store keeps transactions in insertion order behind a mutex.
type Store struct {
	mu    sync.RWMutex
	index map[string]int
	items []core.Transaction
}

func New(txs []core.Transaction) *Store {
	s := &Store{index: make(map[string]int)}
	for _, tx := range txs {
		s.put(tx)
	}
	return s
}

// NewFromFiles seeds the store from base/transactions.json. Records that fail
// validation are logged and skipped. When the file is missing, the built-in
// demo records are used.
func NewFromFiles(base string, loc *time.Location, logger *applog.Logger) (*Store, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if loc == nil {
		loc = time.UTC
	}
	raws, err := readSeed(filepath.Join(base, SeedFile))
	if err != nil {
		return nil, err
	}
	if raws == nil {
		logger.Info("No seed file found, using demo transactions", "path", filepath.Join(base, SeedFile))
		return New(DemoTransactions(time.Now().In(loc))), nil
	}

	txs, rejected := core.DecodeAll(raws, loc)
	sl := applog.NewStructuredLogger(logger)
	for _, r := range rejected {
		sl.LogRejected(context.Background(), applog.ComponentSource, r.ID, r.Err)
	}
	logger.Info("Seeded memory store", "loaded", len(txs), "rejected", len(rejected))
	return New(txs), nil
}

// ListTransactions returns a copy of every stored transaction.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("%w: %s", source.ErrNotFound, id)
	}
	return s.items[i], nil
}

func (s *Store) SaveTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(tx)
	return nil
}

func (s *Store) put(tx core.Transaction) {
	if i, ok := s.index[tx.ID]; ok {
		s.items[i] = tx
		return
	}
	s.index[tx.ID] = len(s.items)
	s.items = append(s.items, tx)
}

// readSeed returns nil, nil when the file does not exist.
func readSeed(path string) ([]core.RawTransaction, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var raws []core.RawTransaction
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	if raws == nil {
		raws = []core.RawTransaction{}
	}
	return raws, nil
}
