package service

import (
	"testing"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStockLedger_Decrease(t *testing.T) {
	t.Run("subtracts the sum of quantities", func(t *testing.T) {
		e := newTestEnv(t)
		coca := e.seedProduct(t, "7894900011517", "Coca-Cola 2L", "59.90", 10)
		agua := e.seedProduct(t, "7896065200016", "Água Mineral 500ml", "12.00", 4)

		var products []model.Product
		err := e.db.Transaction(func(tx *gorm.DB) error {
			var err error
			products, err = e.ledger.Decrease(tx, items(coca.ID, 2, agua.ID, 1, coca.ID, 3), model.MovementSale, "test", testActor)
			return err
		})
		require.NoError(t, err)
		assert.Len(t, products, 2)

		assert.Equal(t, 5, e.product(t, coca.ID).Stock)
		assert.Equal(t, 3, e.product(t, agua.ID).Stock)
		assert.Equal(t, int64(2), e.movementCount(t), "one movement per product")
	})

	t.Run("rejects the whole batch when one item is short", func(t *testing.T) {
		e := newTestEnv(t)
		coca := e.seedProduct(t, "7894900011517", "Coca-Cola 2L", "59.90", 10)
		agua := e.seedProduct(t, "7896065200016", "Água Mineral 500ml", "12.00", 1)

		err := e.db.Transaction(func(tx *gorm.DB) error {
			_, err := e.ledger.Decrease(tx, items(coca.ID, 2, agua.ID, 2), model.MovementSale, "test", testActor)
			return err
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Contains(t, err.Error(), "Água Mineral 500ml")

		assert.Equal(t, 10, e.product(t, coca.ID).Stock)
		assert.Equal(t, 1, e.product(t, agua.ID).Stock)
		assert.Zero(t, e.movementCount(t))
	})

	t.Run("unknown product", func(t *testing.T) {
		e := newTestEnv(t)
		coca := e.seedProduct(t, "7894900011517", "Coca-Cola 2L", "59.90", 10)

		err := e.db.Transaction(func(tx *gorm.DB) error {
			_, err := e.ledger.Decrease(tx, items(coca.ID, 1, uuid.New(), 1), model.MovementSale, "test", testActor)
			return err
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Equal(t, 10, e.product(t, coca.ID).Stock)
	})

	t.Run("quantity must be positive", func(t *testing.T) {
		e := newTestEnv(t)
		coca := e.seedProduct(t, "7894900011517", "Coca-Cola 2L", "59.90", 10)

		for _, qty := range []int{0, -3} {
			err := e.db.Transaction(func(tx *gorm.DB) error {
				_, err := e.ledger.Decrease(tx, items(coca.ID, qty), model.MovementSale, "test", testActor)
				return err
			})
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		}
		assert.Equal(t, 10, e.product(t, coca.ID).Stock)
	})
}

func TestStockLedger_Reservation(t *testing.T) {
	e := newTestEnv(t)
	coca := e.seedProduct(t, "7894900011517", "Coca-Cola 2L", "59.90", 10)

	run := func(fn func(tx *gorm.DB) error) error {
		return e.db.Transaction(fn)
	}

	// Reserve 3: stock stays, available drops
	require.NoError(t, run(func(tx *gorm.DB) error {
		_, err := e.ledger.Reserve(tx, items(coca.ID, 3), "order:1", testActor)
		return err
	}))
	p := e.product(t, coca.ID)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 3, p.Reserved)
	assert.Equal(t, 7, p.Available())

	// Checkout cannot dip into reserved packs
	err := run(func(tx *gorm.DB) error {
		_, err := e.ledger.Decrease(tx, items(coca.ID, 8), model.MovementSale, "sale", testActor)
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Reserving beyond available fails too
	err = run(func(tx *gorm.DB) error {
		_, err := e.ledger.Reserve(tx, items(coca.ID, 8), "order:2", testActor)
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Releasing more than reserved is a mismatch
	err = run(func(tx *gorm.DB) error {
		_, err := e.ledger.Release(tx, items(coca.ID, 4), "order:1", testActor)
		return err
	})
	assert.ErrorIs(t, err, ErrReservationMismatch)

	// Commit consumes both counters
	require.NoError(t, run(func(tx *gorm.DB) error {
		_, err := e.ledger.Commit(tx, items(coca.ID, 3), "order:1", testActor)
		return err
	}))
	p = e.product(t, coca.ID)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, 0, p.Reserved)

	movements, err := e.movementRepo.FindAll(&coca.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	var commit *model.StockMovement
	for i := range movements {
		if movements[i].Type == model.MovementCommit {
			commit = &movements[i]
		}
	}
	require.NotNil(t, commit)
	assert.Equal(t, -3, commit.StockDelta)
	assert.Equal(t, -3, commit.ReservedDelta)
	assert.Equal(t, 7, commit.StockAfter)
	assert.Equal(t, "order:1", commit.Reference)
}

func TestStockLedger_ReleaseRestoresAvailability(t *testing.T) {
	e := newTestEnv(t)
	coca := e.seedProduct(t, "7894900011517", "Coca-Cola 2L", "59.90", 5)

	require.NoError(t, e.db.Transaction(func(tx *gorm.DB) error {
		if _, err := e.ledger.Reserve(tx, items(coca.ID, 5), "order:1", testActor); err != nil {
			return err
		}
		_, err := e.ledger.Release(tx, items(coca.ID, 5), "order:1", testActor)
		return err
	}))

	p := e.product(t, coca.ID)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, 0, p.Reserved)
}

func TestMergeItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, qty, err := mergeItems(items(a, 1, b, 2, a, 4))
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, 5, qty[a])
	assert.Equal(t, 2, qty[b])
	assert.True(t, ids[0].String() < ids[1].String(), "ids are sorted")

	_, _, err = mergeItems(nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
