package businessflow

import (
	"context"
	"sync"
	"time"

	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockDecrement is one product line to take out of inventory
type StockDecrement struct {
	ProductID uuid.UUID
	Quantity  int
}

type inventoryJob struct {
	storeID       uuid.UUID
	transactionID uuid.UUID
	lines         []StockDecrement
}

// InventoryWorker applies stock decrements after a sale has been recorded.
// Jobs are processed in order by a single goroutine; every product line runs
// in its own database transaction.
type InventoryWorker struct {
	productRepo repository.ProductRepository
	txRunner    repository.TxRunner
	products    ProductCacheInvalidator
	logger      *zap.Logger

	jobs     chan inventoryJob
	wg       sync.WaitGroup
	mu       sync.RWMutex
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// NewInventoryWorker creates a worker with a bounded queue
func NewInventoryWorker(
	productRepo repository.ProductRepository,
	txRunner repository.TxRunner,
	products ProductCacheInvalidator,
	queueSize int,
	logger *zap.Logger,
) *InventoryWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryWorker{
		productRepo: productRepo,
		txRunner:    txRunner,
		products:    products,
		logger:      logger,
		jobs:        make(chan inventoryJob, queueSize),
	}
}

// Start launches the processing goroutine
func (w *InventoryWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for job := range w.jobs {
			w.process(job)
		}
	}()
}

// Enqueue schedules a decrement. When the queue is full, or the worker has not
// been started, the job is processed on its own goroutine.
func (w *InventoryWorker) Enqueue(storeID, transactionID uuid.UUID, lines []StockDecrement) {
	job := inventoryJob{storeID: storeID, transactionID: transactionID, lines: lines}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		// shutting down: finish on the caller's goroutine
		w.process(job)
		return
	}
	if w.started {
		select {
		case w.jobs <- job:
			return
		default:
			w.logger.Warn("Inventory queue is full, processing on a new goroutine",
				zap.String("transaction_id", transactionID.String()))
		}
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.process(job)
	}()
}

// Stop drains queued jobs and waits for them, or until ctx is done
func (w *InventoryWorker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.jobs)
		w.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *InventoryWorker) process(job inventoryJob) {
	start := time.Now()
	logger := w.logger.With(
		zap.String("store_id", job.storeID.String()),
		zap.String("transaction_id", job.transactionID.String()),
	)

	failed := 0
	for _, line := range job.lines {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
			return w.productRepo.DecrementStock(txCtx, line.ProductID, line.Quantity)
		})
		cancel()
		if err != nil {
			failed++
			logger.Error("Failed to update product inventory",
				zap.String("product_id", line.ProductID.String()),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}

	if w.products != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		w.products.InvalidateStoreProducts(ctx, job.storeID)
		cancel()
	}

	logger.Info("Inventory updated",
		zap.Int("lines", len(job.lines)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)))
}
