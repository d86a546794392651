package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

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
	ErrEmptyCart               = errors.New("cart is empty")
	ErrSaleNotFound            = errors.New("sale not found")
	ErrSaleAlreadyCancelled    = errors.New("sale is already cancelled")
	ErrFiadoSaleNotCancellable = errors.New("fiado sales cannot be cancelled")
)

type SalesService interface {
	AddSale(req *CreateSaleRequest, actor Actor) (*model.Sale, error)
	CancelSale(id uuid.UUID, actor Actor) (*model.Sale, error)
	GetSale(id uuid.UUID) (*model.Sale, error)
	ListSales(filter repository.SaleFilter) ([]model.Sale, error)
}

type CreateSaleRequest struct {
	Customer      string              `json:"customer" validate:"max=255"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required,oneof=dinheiro credito debito pix"`
	Items         []StockItem         `json:"items" validate:"dive"`
}

// checkout records sales; it is shared by the sales, fiado and order services
type checkout struct {
	ledger      StockLedger
	saleRepo    repository.SaleRepository
	counterRepo repository.CounterRepository
	sessionRepo repository.CashSessionRepository
}

// sell decrements stock for items and records a sale snapshotting the locked products.
func (c *checkout) sell(tx *gorm.DB, customer string, method model.PaymentMethod, status model.SaleStatus, items []StockItem, actor Actor) (*model.Sale, []model.Product, error) {
	saleID := uuid.New()
	products, err := c.ledger.Decrease(tx, items, model.MovementSale, "sale:"+saleID.String(), actor)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	sale := &model.Sale{
		BaseModel:     model.BaseModel{ID: saleID},
		Customer:      strings.TrimSpace(customer),
		PaymentMethod: method,
		Status:        status,
		SellerName:    actor.Name,
	}
	for _, item := range items {
		p := byID[item.ProductID]
		sale.Items = append(sale.Items, model.SaleItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.PackPrice,
			Quantity:  item.Quantity,
			Cost:      p.Cost,
			Unit:      p.UnitOfMeasure,
		})
	}

	if err := c.record(tx, sale, actor); err != nil {
		return nil, nil, err
	}
	return sale, products, nil
}

// record assigns the display id, the open session and the amount, then inserts.
func (c *checkout) record(tx *gorm.DB, sale *model.Sale, actor Actor) error {
	displayID, err := c.counterRepo.WithTx(tx).Next(model.CounterSales)
	if err != nil {
		return fmt.Errorf("next sale number: %w", err)
	}
	state, err := c.sessionRepo.WithTx(tx).ShareState()
	if err != nil {
		return fmt.Errorf("read register state: %w", err)
	}

	amount := decimal.Zero
	for i := range sale.Items {
		amount = amount.Add(sale.Items[i].Subtotal())
	}

	sale.DisplayID = displayID
	sale.Amount = amount.Round(2)
	sale.Date = time.Now()
	sale.SessionID = state.OpenSessionID
	sale.CreatedBy = actor.ID
	sale.UpdatedBy = actor.ID

	return c.saleRepo.WithTx(tx).Create(sale)
}

type salesService struct {
	*checkout
	db    *gorm.DB
	wsHub *ws.Hub
	log   *zap.Logger
}

func NewSalesService(
	db *gorm.DB,
	ledger StockLedger,
	saleRepo repository.SaleRepository,
	counterRepo repository.CounterRepository,
	sessionRepo repository.CashSessionRepository,
	hub *ws.Hub,
	log *zap.Logger,
) SalesService {
	return &salesService{
		checkout: &checkout{
			ledger:      ledger,
			saleRepo:    saleRepo,
			counterRepo: counterRepo,
			sessionRepo: sessionRepo,
		},
		db:    db,
		wsHub: hub,
		log:   log.Named("sales"),
	}
}

func (s *salesService) AddSale(req *CreateSaleRequest, actor Actor) (*model.Sale, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		sale     *model.Sale
		products []model.Product
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		sale, products, err = s.sell(tx, req.Customer, req.PaymentMethod, model.SaleFinalizada, req.Items, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.Int("display_id", sale.DisplayID),
		zap.String("amount", sale.Amount.StringFixed(2)),
		zap.String("payment_method", string(sale.PaymentMethod)),
		zap.String("user", actor.Email),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "sale",
		Action:  "sale_created",
		Data:    sale,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s recorded sale #%d", actor.Name, sale.DisplayID),
	})
	publishStock(s.wsHub, products, actor)

	return sale, nil
}

func (s *salesService) CancelSale(id uuid.UUID, actor Actor) (*model.Sale, error) {
	var (
		sale     *model.Sale
		products []model.Product
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		saleRepo := s.saleRepo.WithTx(tx)

		existing, err := saleRepo.LockByID(id)
		if err != nil {
			return notFound(err, ErrSaleNotFound)
		}
		switch existing.Status {
		case model.SaleCancelada:
			return ErrSaleAlreadyCancelled
		case model.SaleFiado:
			return ErrFiadoSaleNotCancellable
		}

		items := make([]StockItem, len(existing.Items))
		for i, item := range existing.Items {
			items[i] = StockItem{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		ref := "sale:" + existing.ID.String()
		if products, err = s.ledger.Increase(tx, items, model.MovementSaleCancel, ref, actor); err != nil {
			return err
		}

		now := time.Now()
		if err := saleRepo.MarkCancelled(existing.ID, now, actor.ID); err != nil {
			return err
		}
		existing.Status = model.SaleCancelada
		existing.CancelledAt = &now
		existing.UpdatedBy = actor.ID
		sale = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale cancelled", zap.Int("display_id", sale.DisplayID), zap.String("user", actor.Email))
	s.wsHub.Publish(ws.Event{
		Type:    "sale",
		Action:  "sale_cancelled",
		Data:    sale,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s cancelled sale #%d", actor.Name, sale.DisplayID),
	})
	publishStock(s.wsHub, products, actor)

	return sale, nil
}

func (s *salesService) GetSale(id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrSaleNotFound)
	}
	return sale, nil
}

func (s *salesService) ListSales(filter repository.SaleFilter) ([]model.Sale, error) {
	return s.saleRepo.FindAll(filter)
}

// publishStock pushes the new stock levels of products changed by an operation
func publishStock(hub *ws.Hub, products []model.Product, actor Actor) {
	if len(products) == 0 {
		return
	}
	hub.Publish(ws.Event{
		Type:   "stock_update",
		Action: "stock_changed",
		Data:   model.ProductResponses(products),
		User:   actor.eventUser(),
	})
}
