// Package service provides the business logic layer (use cases).
// SessionService bootstraps a Telegram user into a family; LedgerService
// loads the family snapshot, computes ledger views and applies mutations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pnlfinance/family-finance/internal/aggregation"
	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/infra/observability"
	"github.com/pnlfinance/family-finance/internal/infra/resilience"
	"github.com/pnlfinance/family-finance/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService orchestrates reads and writes of a family's ledgers.
type LedgerService struct {
	store          port.FinanceStore
	cache          port.Cache[*domain.Snapshot]
	bulkhead       *resilience.Bulkhead
	metrics        *observability.Metrics
	logger         *zap.Logger
	defaultComment string
	now            func() time.Time
}

// NewLedgerService creates a ledger service. defaultComment is stored on
// transactions saved without a comment.
func NewLedgerService(
	store port.FinanceStore,
	cache port.Cache[*domain.Snapshot],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	defaultComment string,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		store:          store,
		cache:          cache,
		bulkhead:       bulkhead,
		metrics:        metrics,
		logger:         logger,
		defaultComment: defaultComment,
		now:            time.Now,
	}
}

// ============================================================
// Snapshot & view
// ============================================================

// Snapshot returns every record of the family, from cache when fresh.
// The returned snapshot is shared and must not be modified.
func (s *LedgerService) Snapshot(ctx context.Context, familyID string) (*domain.Snapshot, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID))

	if snap, ok := s.cache.Get(snapshotKey(familyID)); ok {
		s.metrics.IncrCacheHit("snapshot")
		return snap, nil
	}
	s.metrics.IncrCacheMiss("snapshot")

	snap, err := s.loadSnapshot(ctx, familyID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(snapshotKey(familyID), snap)
	return snap, nil
}

func (s *LedgerService) loadSnapshot(ctx context.Context, familyID string) (*domain.Snapshot, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("snapshot", time.Since(start))
	}()

	ledgers, err := s.store.ListLedgers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	snap := &domain.Snapshot{Ledgers: ledgers}
	ids := snap.LedgerIDs()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(s.guarded(gCtx, "transactions", func(ctx context.Context) (err error) {
		snap.Transactions, err = s.store.ListTransactions(ctx, ids)
		return err
	}))
	g.Go(s.guarded(gCtx, "categories", func(ctx context.Context) (err error) {
		snap.Categories, err = s.store.ListCategories(ctx, ids)
		return err
	}))
	g.Go(s.guarded(gCtx, "credit items", func(ctx context.Context) (err error) {
		snap.CreditItems, err = s.store.ListCreditItems(ctx, ids)
		return err
	}))
	g.Go(s.guarded(gCtx, "debts", func(ctx context.Context) (err error) {
		snap.Debts, err = s.store.ListDebts(ctx, ids)
		return err
	}))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// guarded runs fn inside the bulkhead and labels its error.
func (s *LedgerService) guarded(ctx context.Context, what string, fn func(context.Context) error) func() error {
	return func() error {
		if err := s.bulkhead.Acquire(ctx); err != nil {
			return err
		}
		defer s.bulkhead.Release()

		if err := fn(ctx); err != nil {
			s.logger.Error("snapshot fetch failed", zap.String("part", what), zap.Error(err))
			return fmt.Errorf("list %s: %w", what, err)
		}
		return nil
	}
}

// Invalidate drops the cached snapshot of a family.
func (s *LedgerService) Invalidate(familyID string) {
	s.cache.Delete(snapshotKey(familyID))
}

// Ledgers lists the family's ledgers.
func (s *LedgerService) Ledgers(ctx context.Context, familyID string) ([]domain.Ledger, error) {
	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return snap.Ledgers, nil
}

// View computes the monthly view of the ledger titled title.
func (s *LedgerService) View(ctx context.Context, familyID, title string, month domain.YearMonth) (*domain.LedgerView, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.View")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.title", title),
		attribute.String("month", month.String()),
	)

	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	view := aggregation.ComputeSnapshotView(snap, title, month)
	s.metrics.RecordRequestDuration("view", time.Since(start))

	if view == nil {
		return nil, &domain.ErrNotFound{Resource: "ledger", ID: title}
	}
	if view.MalformedAmounts > 0 {
		s.logger.Warn("transactions with malformed amounts ignored",
			zap.String("ledger", title),
			zap.String("month", month.String()),
			zap.Int("count", view.MalformedAmounts),
		)
		s.metrics.AddMalformedAmounts(view.MalformedAmounts)
	}
	if ledger := snap.LedgerByTitle(title); ledger != nil {
		s.warnDataQuality(snap, ledger, month)
	}
	return view, nil
}

// warnDataQuality logs legacy rows the write path would reject today: negative
// amounts (summed as-is) and category ids that no longer resolve (grouped by comment).
func (s *LedgerService) warnDataQuality(snap *domain.Snapshot, ledger *domain.Ledger, month domain.YearMonth) {
	known := make(map[string]bool, len(snap.Categories))
	for _, c := range snap.Categories {
		known[c.ID] = true
	}

	var negative, dangling int
	for _, tx := range snap.Transactions {
		if tx.LedgerID != ledger.ID || !tx.OccurredAt.Before(month.End()) {
			continue
		}
		if tx.Amount.Valid && tx.Amount.Decimal.IsNegative() {
			negative++
		}
		if tx.CategoryID != "" && !known[tx.CategoryID] {
			dangling++
		}
	}

	if negative > 0 {
		s.logger.Warn("negative transaction amounts summed as-is",
			zap.String("ledger", ledger.Title),
			zap.String("month", month.String()),
			zap.Int("count", negative),
		)
	}
	if dangling > 0 {
		s.logger.Warn("transactions reference deleted categories, grouped by comment",
			zap.String("ledger", ledger.Title),
			zap.String("month", month.String()),
			zap.Int("count", dangling),
		)
	}
}

// ============================================================
// Ownership helpers
// ============================================================

func snapshotKey(familyID string) string {
	return "snapshot:" + familyID
}

// ledgerByTitle resolves a ledger of the family by its title.
func (s *LedgerService) ledgerByTitle(ctx context.Context, familyID, title string) (*domain.Snapshot, *domain.Ledger, error) {
	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, nil, err
	}
	ledger := snap.LedgerByTitle(title)
	if ledger == nil {
		return nil, nil, &domain.ErrNotFound{Resource: "ledger", ID: title}
	}
	return snap, ledger, nil
}

// ownedLedger returns the family's ledger with the given id, or ErrForbidden
// when the record it was read from belongs to another family.
func ownedLedger(snap *domain.Snapshot, ledgerID, action string) (*domain.Ledger, error) {
	for i := range snap.Ledgers {
		if snap.Ledgers[i].ID == ledgerID {
			return &snap.Ledgers[i], nil
		}
	}
	return nil, &domain.ErrForbidden{Action: action}
}

// mutated invalidates the family's snapshot and counts the mutation.
func (s *LedgerService) mutated(familyID, entity, action, id string) {
	s.Invalidate(familyID)
	s.metrics.IncrMutation(entity, action)
	s.logger.Info("ledger data changed",
		zap.String("family_id", familyID),
		zap.String("entity", entity),
		zap.String("action", action),
		zap.String("id", id),
	)
}
