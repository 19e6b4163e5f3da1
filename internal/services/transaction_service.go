// Package services orchestrates the transaction source, memoised history and
// analytics computations, and event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneyflow/internal/cache"
	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/source"
)

// RecentLimit is the number of transactions shown on the dashboard.
const RecentLimit = 5

var ErrReadOnly = errors.New("transaction source is read-only")

// Publisher announces stored transactions to other processes.
type Publisher interface {
	PublishTransaction(ctx context.Context, raw core.RawTransaction) error
}

// Pinger is implemented by sources that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Location      *time.Location
	MonthlyBudget decimal.Decimal
	Publisher     Publisher
	Logger        *applog.Logger
	CacheSize     int
	CacheTTL      time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Dashboard is the analytics summary plus the most recent transactions.
type Dashboard struct {
	Analytics core.Analytics
	Recent    []core.Transaction
}

// TransactionService is safe for concurrent use.
type TransactionService struct {
	lister    source.TransactionLister
	getter    source.TransactionGetter
	writer    source.TransactionWriter
	publisher Publisher

	loc    *time.Location
	budget decimal.Decimal
	now    func() time.Time

	version   atomic.Int64
	history   *cache.LRUCache[[]core.Transaction]
	analytics *cache.LRUCache[core.Analytics]

	logger *applog.Logger
	sl     *applog.StructuredLogger
}

// NewTransactionService wraps src. Lookups and writes are used when src also
// implements source.TransactionGetter or source.TransactionWriter.
func NewTransactionService(src source.TransactionLister, opts Options) *TransactionService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MonthlyBudget.IsZero() {
		opts.MonthlyBudget = core.DefaultMonthlyBudget
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &TransactionService{
		lister:    src,
		publisher: opts.Publisher,
		loc:       opts.Location,
		budget:    opts.MonthlyBudget,
		now:       opts.Now,
		history:   cache.NewLRUCache[[]core.Transaction](opts.CacheSize, opts.CacheTTL),
		analytics: cache.NewLRUCache[core.Analytics](opts.CacheSize, opts.CacheTTL),
		logger:    opts.Logger,
		sl:        applog.NewStructuredLogger(opts.Logger),
	}
	if g, ok := src.(source.TransactionGetter); ok {
		s.getter = g
	}
	if w, ok := src.(source.TransactionWriter); ok {
		s.writer = w
	}
	return s
}

// Caches returns the memo caches so a cache.Manager can sweep them.
func (s *TransactionService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.history, s.analytics}
}

// CacheStats reports history and analytics cache counters.
func (s *TransactionService) CacheStats() (history, analytics cache.Stats) {
	return s.history.Stats(), s.analytics.Stats()
}

// Version is bumped on every successful ingest.
func (s *TransactionService) Version() int64 {
	return s.version.Load()
}

func (s *TransactionService) currentTime() time.Time {
	return s.now().In(s.loc)
}

// History returns the transactions matching f ordered by srt.
func (s *TransactionService) History(ctx context.Context, f core.Filter, srt core.Sort) ([]core.Transaction, error) {
	return s.historyAt(ctx, f, srt, s.currentTime())
}

func (s *TransactionService) historyAt(ctx context.Context, f core.Filter, srt core.Sort, now time.Time) ([]core.Transaction, error) {
	logger := s.logger.WithComponent(applog.ComponentHistory)
	// Date ranges and section labels depend on the calendar day only
	key := fmt.Sprintf("v%d|%s|%s|%s", s.version.Load(), now.Format(time.DateOnly), f.Key(), srt)
	if cached, ok := s.history.Get(key); ok {
		logger.DebugContext(ctx, "History served from cache", applog.FieldCacheHit, true, applog.FieldResultCount, len(cached))
		return slices.Clone(cached), nil
	}

	txs, err := s.lister.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := core.FilterAndSort(txs, f, srt, now)
	s.history.Set(key, out)

	fields := applog.NewFields().
		WithOperation(applog.OpFilter).
		WithQuery(f.Key(), srt.String(), len(out))
	fields[applog.FieldCacheHit] = false
	logger.DebugContext(ctx, "History computed", fields.ToSlice()...)
	return slices.Clone(out), nil
}

// GroupedHistory returns History partitioned into day sections, newest first.
func (s *TransactionService) GroupedHistory(ctx context.Context, f core.Filter, srt core.Sort) ([]core.DateGroup, error) {
	now := s.currentTime()
	txs, err := s.historyAt(ctx, f, srt, now)
	if err != nil {
		return nil, err
	}
	return core.GroupByDate(txs, now), nil
}

// Analytics summarises the period ending now.
func (s *TransactionService) Analytics(ctx context.Context, period core.Period) (core.Analytics, error) {
	return s.analyticsAt(ctx, period, s.currentTime())
}

func (s *TransactionService) analyticsAt(ctx context.Context, period core.Period, now time.Time) (core.Analytics, error) {
	if period == "" {
		period = core.PeriodMonth
	}
	// The rolling week start moves with the clock, so key on the minute
	key := fmt.Sprintf("v%d|%s|%s", s.version.Load(), now.Truncate(time.Minute).Format(time.RFC3339), period)
	if cached, ok := s.analytics.Get(key); ok {
		return cached, nil
	}

	txs, err := s.lister.ListTransactions(ctx)
	if err != nil {
		return core.Analytics{}, fmt.Errorf("list transactions: %w", err)
	}
	a := core.ComputeAnalytics(txs, period, now, s.budget)
	s.analytics.Set(key, a)

	s.logger.WithComponent(applog.ComponentAnalytics).DebugContext(ctx, "Analytics computed",
		applog.FieldOperation, applog.OpAnalyze,
		applog.FieldPeriod, string(period),
		applog.FieldResultCount, a.TransactionCount)
	return a, nil
}

// Dashboard computes the period analytics and the most recent transactions
// concurrently.
func (s *TransactionService) Dashboard(ctx context.Context, period core.Period) (Dashboard, error) {
	now := s.currentTime()
	var d Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.analyticsAt(gctx, period, now)
		if err != nil {
			return fmt.Errorf("analytics: %w", err)
		}
		d.Analytics = a
		return nil
	})
	g.Go(func() error {
		recent, err := s.historyAt(gctx, core.Filter{}, core.DefaultSort(), now)
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		if len(recent) > RecentLimit {
			recent = recent[:RecentLimit]
		}
		d.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Transaction returns one record or an error wrapping source.ErrNotFound.
func (s *TransactionService) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	id = strings.TrimSpace(id)
	if s.getter != nil {
		return s.getter.GetTransaction(ctx, id)
	}

	txs, err := s.lister.ListTransactions(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("%w: %s", source.ErrNotFound, id)
}

// Ingest validates raw, assigns an id when it has none, stores it and
// publishes an event. A publish failure is logged and does not fail the
// ingest since the record is already stored.
func (s *TransactionService) Ingest(ctx context.Context, raw core.RawTransaction) (core.Transaction, error) {
	if s.writer == nil {
		return core.Transaction{}, ErrReadOnly
	}
	raw = raw.EnsureID(uuid.NewString)

	tx, err := raw.Decode(s.loc)
	if err != nil {
		s.sl.LogRejected(ctx, applog.ComponentIngest, raw.ID, err)
		return core.Transaction{}, err
	}

	if err := s.writer.SaveTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	v := s.version.Add(1)
	s.history.Clear()
	s.analytics.Clear()

	s.sl.LogTransactionIngested(ctx, tx.ID, string(tx.Type), tx.Amount.String(), tx.Currency, string(tx.Status))
	s.logger.DebugContext(ctx, "Dataset version bumped", applog.FieldDatasetVer, v)

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, tx.Raw()); err != nil {
			s.sl.LogError(ctx, "Failed to publish transaction event", err, applog.ComponentAMQP, applog.OpPublish,
				applog.NewFields().WithTransaction(tx.ID, string(tx.Type), tx.Amount.String(), tx.Currency, string(tx.Status)))
		}
	}
	return tx, nil
}

// Ready reports whether the underlying source is reachable.
func (s *TransactionService) Ready(ctx context.Context) error {
	if p, ok := s.lister.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
