package services

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"

	"golang.org/x/sync/errgroup"
)

// DefaultReconcileParallelism bounds concurrent ReconcileAll transactions
const DefaultReconcileParallelism = 4

// ReconcileResult reports one catalog entry check
type ReconcileResult struct {
	BookID          uint `json:"book_id"`
	TotalBefore     int  `json:"total_before"`
	AvailableBefore int  `json:"available_before"`
	Total           int  `json:"total"`
	Available       int  `json:"available"`
	Changed         bool `json:"changed"`
}

// ReconcileSummary reports a full pass
type ReconcileSummary struct {
	Checked   int64 `json:"checked"`
	Corrected int64 `json:"corrected"`
}

// ReconcileService recomputes catalog counters from the copy registry
type ReconcileService struct {
	store       *repositories.Store
	parallelism int
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(store *repositories.Store, parallelism int) *ReconcileService {
	if parallelism < 1 {
		parallelism = DefaultReconcileParallelism
	}
	return &ReconcileService{store: store, parallelism: parallelism}
}

// reconcileBook locks a catalog entry and overwrites drifted counters
func reconcileBook(ctx context.Context, tx *repositories.Store, bookID uint) (*ReconcileResult, error) {
	book, err := tx.Books.GetForUpdate(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "book", bookID)
	}
	total, available, err := tx.Copies.CountByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		BookID:          bookID,
		TotalBefore:     book.TotalCopies,
		AvailableBefore: book.AvailableCopies,
		Total:           int(total),
		Available:       int(available),
	}
	if result.Total == book.TotalCopies && result.Available == book.AvailableCopies {
		return result, nil
	}

	if err := tx.Books.SetCounts(ctx, bookID, result.Total, result.Available); err != nil {
		return nil, err
	}
	result.Changed = true
	log.Printf("🔧 Reconciled book %d: total %d→%d, available %d→%d",
		bookID, result.TotalBefore, result.Total, result.AvailableBefore, result.Available)
	return result, nil
}

// ReconcileBook checks one catalog entry
func (s *ReconcileService) ReconcileBook(ctx context.Context, bookID uint) (result *ReconcileResult, err error) {
	defer observe("reconcile_book", time.Now(), &err)

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		result, err = reconcileBook(ctx, tx, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.Changed {
		reconcileDrift.Inc()
	}
	return result, nil
}

// ReconcileAll checks every catalog entry with bounded parallelism
func (s *ReconcileService) ReconcileAll(ctx context.Context) (summary *ReconcileSummary, err error) {
	defer observe("reconcile_all", time.Now(), &err)

	ids, err := s.store.Books.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	var checked, corrected int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			result, err := s.ReconcileBook(gctx, id)
			if err != nil {
				return err
			}
			atomic.AddInt64(&checked, 1)
			if result.Changed {
				atomic.AddInt64(&corrected, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary = &ReconcileSummary{Checked: checked, Corrected: corrected}
	if corrected > 0 {
		log.Printf("🔧 Reconciliation corrected %d of %d books", corrected, checked)
	}
	return summary, nil
}

// GetBook reconciles a catalog entry and returns it. Catalog reads shown to
// users go through here.
func (s *ReconcileService) GetBook(ctx context.Context, bookID uint) (*models.Book, error) {
	if _, err := s.ReconcileBook(ctx, bookID); err != nil {
		return nil, err
	}
	book, err := s.store.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "book", bookID)
	}
	return book, nil
}
