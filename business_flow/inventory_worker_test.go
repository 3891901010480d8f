package businessflow_test

import (
	"context"
	"testing"
	"time"

	businessflow "github.com/cherriedy/ban-hang-so-api/business_flow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stopWorker(t *testing.T, w *businessflow.InventoryWorker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func TestInventoryWorker_DrainsQueueOnStop(t *testing.T) {
	products := &fakeProductRepo{}
	tx := &fakeTxRunner{}
	invalidator := &fakeInvalidator{}
	// a small queue forces the overflow path
	worker := businessflow.NewInventoryWorker(products, tx, invalidator, 4, nil)
	worker.Start()

	storeID, productID := uuid.New(), uuid.New()
	line := []businessflow.StockDecrement{{ProductID: productID, Quantity: 1}}
	for i := 0; i < 50; i++ {
		worker.Enqueue(storeID, uuid.New(), line)
	}
	stopWorker(t, worker)

	assert.Equal(t, 50, products.total(productID))
	assert.Equal(t, 50, tx.count())
	assert.Equal(t, 50, invalidator.count())

	// after Stop the job runs on the caller's goroutine
	worker.Enqueue(storeID, uuid.New(), line)
	assert.Equal(t, 51, products.total(productID))
	assert.Equal(t, 51, invalidator.count())

	stopWorker(t, worker)
}

func TestInventoryWorker_NotStarted(t *testing.T) {
	products := &fakeProductRepo{}
	worker := businessflow.NewInventoryWorker(products, &fakeTxRunner{}, nil, 0, nil)

	productID := uuid.New()
	worker.Enqueue(uuid.New(), uuid.New(), []businessflow.StockDecrement{{ProductID: productID, Quantity: 3}})
	stopWorker(t, worker)

	assert.Equal(t, 3, products.total(productID))
}

func TestInventoryWorker_FailedLineDoesNotBlockOthers(t *testing.T) {
	broken, healthy := uuid.New(), uuid.New()
	products := &fakeProductRepo{failFor: broken}
	tx := &fakeTxRunner{}
	invalidator := &fakeInvalidator{}
	worker := businessflow.NewInventoryWorker(products, tx, invalidator, 8, nil)
	worker.Start()

	worker.Enqueue(uuid.New(), uuid.New(), []businessflow.StockDecrement{
		{ProductID: broken, Quantity: 1},
		{ProductID: healthy, Quantity: 2},
	})
	stopWorker(t, worker)

	assert.Equal(t, 2, products.total(healthy))
	assert.Zero(t, products.total(broken))
	assert.Equal(t, 2, tx.count())
	assert.Equal(t, 1, invalidator.count())
}
