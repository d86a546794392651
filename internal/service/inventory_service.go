package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCodeExists        = errors.New("product code already exists")
	ErrProductHasReserve = errors.New("product has stock reserved by pending orders")
)

type InventoryService interface {
	CreateProduct(req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	DeleteProduct(id uuid.UUID, actor Actor) error
	GetProducts(filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(id uuid.UUID) (*model.Product, error)
	AdjustStock(req *StockAdjustmentRequest, actor Actor) (*model.Product, error)
	GetMovements(productID *uuid.UUID, limit int) ([]model.StockMovement, error)
	ImportCSV(data []byte, actor Actor) (*ImportResult, error)
	ExportCSV() ([]byte, error)
}

// ProductRequest is the catalog payload. Stock is only read on create;
// later changes go through AdjustStock so the ledger records them.
type ProductRequest struct {
	Code          string          `json:"code" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=255"`
	Category      string          `json:"category" validate:"max=100"`
	UnitOfMeasure string          `json:"unit_of_measure" validate:"max=20"`
	UnitsPerPack  int             `json:"units_per_pack" validate:"gte=1"`
	Cost          decimal.Decimal `json:"cost" validate:"gte=0"`
	PackPrice     decimal.Decimal `json:"pack_price" validate:"gte=0"`
	Stock         int             `json:"stock" validate:"gte=0"`
}

type StockAdjustmentRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Direction string    `json:"direction" validate:"required,oneof=in out"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
	Note      string    `json:"note" validate:"max=255"`
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	ledger       StockLedger
	db           *gorm.DB
	wsHub        *ws.Hub
	log          *zap.Logger
}

func NewInventoryService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	ledger StockLedger,
	hub *ws.Hub,
	log *zap.Logger,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		db:           db,
		wsHub:        hub,
		log:          log.Named("inventory"),
	}
}

func (s *inventoryService) CreateProduct(req *ProductRequest, actor Actor) (*model.Product, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		Code:          req.Code,
		Name:          strings.TrimSpace(req.Name),
		Category:      req.Category,
		UnitOfMeasure: req.UnitOfMeasure,
		UnitsPerPack:  req.UnitsPerPack,
		Cost:          req.Cost.Round(2),
		PackPrice:     req.PackPrice.Round(2),
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)

		taken, err := productRepo.CodeTaken(product.Code, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrCodeExists, product.Code)
		}
		if err := productRepo.Create(product); err != nil {
			return err
		}

		// Opening stock is journalled like any other inbound movement.
		if req.Stock > 0 {
			updated, err := s.ledger.Increase(tx, []StockItem{{ProductID: product.ID, Quantity: req.Stock}}, model.MovementAdjustIn, "product:create", actor)
			if err != nil {
				return err
			}
			*product = updated[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.String("code", product.Code), zap.String("user", actor.Email))
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "product_created",
		Data:    product.ToResponse(),
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
	})
	return product, nil
}

func (s *inventoryService) UpdateProduct(id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)

		locked, err := productRepo.LockByIDs([]uuid.UUID{id}, false)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrProductNotFound
		}
		existing := locked[0]

		taken, err := productRepo.CodeTaken(req.Code, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrCodeExists, req.Code)
		}

		existing.Code = req.Code
		existing.Name = strings.TrimSpace(req.Name)
		existing.Category = req.Category
		existing.UnitOfMeasure = req.UnitOfMeasure
		existing.UnitsPerPack = req.UnitsPerPack
		existing.Cost = req.Cost.Round(2)
		existing.PackPrice = req.PackPrice.Round(2)
		existing.UpdatedBy = actor.ID

		if err := productRepo.Update(&existing); err != nil {
			return err
		}
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "product_updated",
		Data:    updated.ToResponse(),
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name),
	})
	return updated, nil
}

func (s *inventoryService) DeleteProduct(id uuid.UUID, actor Actor) error {
	var product model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		locked, err := productRepo.LockByIDs([]uuid.UUID{id}, false)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrProductNotFound
		}
		product = locked[0]
		// reserve is taken under the same lock by order creation
		if product.Reserved > 0 {
			return ErrProductHasReserve
		}
		return notFound(productRepo.Delete(id, actor.ID), ErrProductNotFound)
	})
	if err != nil {
		return err
	}

	s.log.Info("product deleted", zap.String("code", product.Code), zap.String("user", actor.Email))
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "product_deleted",
		Data:    map[string]string{"id": id.String(), "code": product.Code},
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s deleted product '%s'", actor.Name, product.Name),
	})
	return nil
}

func (s *inventoryService) GetProducts(filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.FindAll(filter)
}

func (s *inventoryService) GetProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

// maxReferenceLen matches the stock_movements.reference column
const maxReferenceLen = 100

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// AdjustStock records a manual inbound or outbound movement
func (s *inventoryService) AdjustStock(req *StockAdjustmentRequest, actor Actor) (*model.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	items := []StockItem{{ProductID: req.ProductID, Quantity: req.Quantity}}
	ref := "adjust"
	if note := strings.TrimSpace(req.Note); note != "" {
		ref = truncateUTF8("adjust: "+note, maxReferenceLen)
	}

	var products []model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if req.Direction == "in" {
			products, err = s.ledger.Increase(tx, items, model.MovementAdjustIn, ref, actor)
		} else {
			products, err = s.ledger.Decrease(tx, items, model.MovementAdjustOut, ref, actor)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	product := &products[0]
	verb := "added"
	if req.Direction == "out" {
		verb = "removed"
	}
	s.log.Info("stock adjusted",
		zap.String("code", product.Code),
		zap.String("direction", req.Direction),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock", product.Stock),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "stock_adjusted",
		Data:    product.ToResponse(),
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s %s %d packs of '%s'", actor.Name, verb, req.Quantity, product.Name),
	})
	return product, nil
}

func (s *inventoryService) GetMovements(productID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.movementRepo.FindAll(productID, limit)
}
