package service

import (
	"errors"
	"fmt"
	"sort"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReservationMismatch = errors.New("quantity exceeds reserved stock")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
)

// StockItem is a quantity of packs of one product
type StockItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// StockLedger mutates stock and reservations inside a caller-owned transaction.
// Every call locks all touched products, validates every item, and only then
// writes; a rejected call leaves no trace.
type StockLedger interface {
	Increase(tx *gorm.DB, items []StockItem, kind model.MovementType, ref string, actor Actor) ([]model.Product, error)
	Decrease(tx *gorm.DB, items []StockItem, kind model.MovementType, ref string, actor Actor) ([]model.Product, error)
	// Reserve holds available packs for a pending order.
	Reserve(tx *gorm.DB, items []StockItem, ref string, actor Actor) ([]model.Product, error)
	// Release returns reserved packs to available.
	Release(tx *gorm.DB, items []StockItem, ref string, actor Actor) ([]model.Product, error)
	// Commit consumes reserved packs, removing them from stock.
	Commit(tx *gorm.DB, items []StockItem, ref string, actor Actor) ([]model.Product, error)
}

type stockLedger struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

func NewStockLedger(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) StockLedger {
	return &stockLedger{
		productRepo:  productRepo,
		movementRepo: movementRepo,
	}
}

// delta computes the stock and reserved changes for qty packs of p, or rejects them.
type delta func(p *model.Product, qty int) (stockDelta, reservedDelta int, err error)

func (l *stockLedger) Increase(tx *gorm.DB, items []StockItem, kind model.MovementType, ref string, actor Actor) ([]model.Product, error) {
	// A cancelled sale puts its packs back even if the product was deleted since.
	withDeleted := kind == model.MovementSaleCancel
	return l.apply(tx, items, kind, ref, actor, withDeleted, func(p *model.Product, qty int) (int, int, error) {
		return qty, 0, nil
	})
}

func (l *stockLedger) Decrease(tx *gorm.DB, items []StockItem, kind model.MovementType, ref string, actor Actor) ([]model.Product, error) {
	return l.apply(tx, items, kind, ref, actor, false, func(p *model.Product, qty int) (int, int, error) {
		if qty > p.Available() {
			return 0, 0, insufficient(p, qty)
		}
		return -qty, 0, nil
	})
}

func (l *stockLedger) Reserve(tx *gorm.DB, items []StockItem, ref string, actor Actor) ([]model.Product, error) {
	return l.apply(tx, items, model.MovementReserve, ref, actor, false, func(p *model.Product, qty int) (int, int, error) {
		if qty > p.Available() {
			return 0, 0, insufficient(p, qty)
		}
		return 0, qty, nil
	})
}

func (l *stockLedger) Release(tx *gorm.DB, items []StockItem, ref string, actor Actor) ([]model.Product, error) {
	return l.apply(tx, items, model.MovementRelease, ref, actor, true, func(p *model.Product, qty int) (int, int, error) {
		if qty > p.Reserved {
			return 0, 0, fmt.Errorf("%w: %s (reserved %d, requested %d)", ErrReservationMismatch, p.Name, p.Reserved, qty)
		}
		return 0, -qty, nil
	})
}

func (l *stockLedger) Commit(tx *gorm.DB, items []StockItem, ref string, actor Actor) ([]model.Product, error) {
	return l.apply(tx, items, model.MovementCommit, ref, actor, false, func(p *model.Product, qty int) (int, int, error) {
		if qty > p.Reserved {
			return 0, 0, fmt.Errorf("%w: %s (reserved %d, requested %d)", ErrReservationMismatch, p.Name, p.Reserved, qty)
		}
		return -qty, -qty, nil
	})
}

func insufficient(p *model.Product, qty int) error {
	return fmt.Errorf("%w: %s (available %d, requested %d)", ErrInsufficientStock, p.Name, p.Available(), qty)
}

func (l *stockLedger) apply(tx *gorm.DB, items []StockItem, kind model.MovementType, ref string, actor Actor, withDeleted bool, fn delta) ([]model.Product, error) {
	ids, quantities, err := mergeItems(items)
	if err != nil {
		return nil, err
	}

	productRepo := l.productRepo.WithTx(tx)
	movementRepo := l.movementRepo.WithTx(tx)

	// 1. Lock in id order so concurrent checkouts cannot deadlock
	products, err := productRepo.LockByIDs(ids, withDeleted)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, missingProduct(ids, products)
	}

	// 2. Validate everything before the first write
	type change struct{ stock, reserved int }
	changes := make([]change, len(products))
	for i := range products {
		p := &products[i]
		sd, rd, err := fn(p, quantities[p.ID])
		if err != nil {
			return nil, err
		}
		stock, reserved := p.Stock+sd, p.Reserved+rd
		if stock < 0 || reserved < 0 || reserved > stock {
			return nil, insufficient(p, quantities[p.ID])
		}
		changes[i] = change{sd, rd}
	}

	// 3. Apply and journal
	for i := range products {
		p := &products[i]
		c := changes[i]
		p.Stock += c.stock
		p.Reserved += c.reserved
		p.UpdatedBy = actor.ID

		if err := productRepo.UpdateStock(p.ID, p.Stock, p.Reserved, actor.ID); err != nil {
			return nil, err
		}

		movement := &model.StockMovement{
			ProductID:     p.ID,
			Type:          kind,
			StockDelta:    c.stock,
			ReservedDelta: c.reserved,
			StockAfter:    p.Stock,
			ReservedAfter: p.Reserved,
			Reference:     ref,
		}
		movement.CreatedBy = actor.ID
		movement.UpdatedBy = actor.ID
		if err := movementRepo.Create(movement); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// mergeItems sums quantities per product and returns the ids sorted
func mergeItems(items []StockItem) ([]uuid.UUID, map[uuid.UUID]int, error) {
	if len(items) == 0 {
		return nil, nil, ErrInvalidQuantity
	}
	quantities := make(map[uuid.UUID]int, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, nil, ErrInvalidQuantity
		}
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids, quantities, nil
}

func missingProduct(ids []uuid.UUID, found []model.Product) error {
	present := make(map[uuid.UUID]bool, len(found))
	for _, p := range found {
		present[p.ID] = true
	}
	for _, id := range ids {
		if !present[id] {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}
	return ErrProductNotFound
}
