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
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidOrderTransition = errors.New("invalid order status transition")
)

type OrderService interface {
	AddOrder(req *CreateOrderRequest, actor Actor) (*model.Order, error)
	UpdateOrderStatus(id uuid.UUID, req *UpdateOrderStatusRequest, actor Actor) (*OrderTransition, error)
	GetOrder(id uuid.UUID) (*model.Order, error)
	ListOrders(status model.OrderStatus) ([]model.Order, error)
}

type CreateOrderRequest struct {
	Customer string      `json:"customer" validate:"required,max=255"`
	Items    []StockItem `json:"items" validate:"dive"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=Finalizado Cancelado"`
	// PaymentMethod of the sale created on fulfillment; dinheiro when empty.
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=dinheiro credito debito pix"`
}

// OrderTransition carries the sale created when an order is fulfilled
type OrderTransition struct {
	Order *model.Order `json:"order"`
	Sale  *model.Sale  `json:"sale,omitempty"`
}

type orderService struct {
	*checkout
	orderRepo repository.OrderRepository
	db        *gorm.DB
	wsHub     *ws.Hub
	log       *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	ledger StockLedger,
	orderRepo repository.OrderRepository,
	saleRepo repository.SaleRepository,
	counterRepo repository.CounterRepository,
	sessionRepo repository.CashSessionRepository,
	hub *ws.Hub,
	log *zap.Logger,
) OrderService {
	return &orderService{
		checkout: &checkout{
			ledger:      ledger,
			saleRepo:    saleRepo,
			counterRepo: counterRepo,
			sessionRepo: sessionRepo,
		},
		orderRepo: orderRepo,
		db:        db,
		wsHub:     hub,
		log:       log.Named("orders"),
	}
}

func (s *orderService) AddOrder(req *CreateOrderRequest, actor Actor) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	req.Customer = strings.TrimSpace(req.Customer)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		order    *model.Order
		products []model.Product
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderID := uuid.New()

		var err error
		products, err = s.ledger.Reserve(tx, req.Items, "order:"+orderID.String(), actor)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*model.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		displayID, err := s.counterRepo.WithTx(tx).Next(model.CounterOrders)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}

		order = &model.Order{
			BaseModel:  model.BaseModel{ID: orderID},
			DisplayID:  displayID,
			Customer:   req.Customer,
			Date:       time.Now(),
			Status:     model.OrderPendente,
			SellerName: actor.Name,
		}
		total := decimal.Zero
		for _, item := range req.Items {
			p := byID[item.ProductID]
			line := model.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.PackPrice,
				Quantity:  item.Quantity,
				Cost:      p.Cost,
				Unit:      p.UnitOfMeasure,
			}
			total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			order.Items = append(order.Items, line)
		}
		order.Total = total.Round(2)
		order.CreatedBy = actor.ID
		order.UpdatedBy = actor.ID

		return s.orderRepo.WithTx(tx).Create(order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.Int("display_id", order.DisplayID),
		zap.String("customer", order.Customer),
		zap.String("total", order.Total.StringFixed(2)),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "order",
		Action:  "order_created",
		Data:    order,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s created order #%d for %s", actor.Name, order.DisplayID, order.Customer),
	})
	publishStock(s.wsHub, products, actor)

	return order, nil
}

// UpdateOrderStatus moves a pending order to a terminal state. Fulfilling
// commits the reservation and records the sale; cancelling releases it.
func (s *orderService) UpdateOrderStatus(id uuid.UUID, req *UpdateOrderStatusRequest, actor Actor) (*OrderTransition, error) {
	if err := validator.Validate(req); err != nil {
		if req.Status == model.OrderPendente {
			return nil, ErrInvalidOrderTransition
		}
		return nil, err
	}

	var (
		result   OrderTransition
		products []model.Product
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)

		order, err := orderRepo.LockByID(id)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if order.Status.Terminal() {
			return fmt.Errorf("%w: order #%d is %s", ErrInvalidOrderTransition, order.DisplayID, order.Status)
		}

		items := make([]StockItem, len(order.Items))
		for i, item := range order.Items {
			items[i] = StockItem{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		ref := "order:" + order.ID.String()

		switch req.Status {
		case model.OrderFinalizado:
			if products, err = s.ledger.Commit(tx, items, ref, actor); err != nil {
				return err
			}
			sale, err := s.fulfil(tx, order, req.PaymentMethod, actor)
			if err != nil {
				return err
			}
			order.SaleID = &sale.ID
			result.Sale = sale
		case model.OrderCancelado:
			if products, err = s.ledger.Release(tx, items, ref, actor); err != nil {
				return err
			}
		}

		now := time.Now()
		order.Status = req.Status
		order.ClosedAt = &now
		order.UpdatedBy = actor.ID
		if err := orderRepo.Save(order); err != nil {
			return err
		}
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status updated",
		zap.Int("display_id", result.Order.DisplayID),
		zap.String("status", string(result.Order.Status)),
		zap.String("user", actor.Email),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "order",
		Action:  "order_updated",
		Data:    result,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s marked order #%d as %s", actor.Name, result.Order.DisplayID, result.Order.Status),
	})
	if result.Sale != nil {
		s.wsHub.Publish(ws.Event{
			Type:   "sale",
			Action: "sale_created",
			Data:   result.Sale,
			User:   actor.eventUser(),
		})
	}
	publishStock(s.wsHub, products, actor)

	return &result, nil
}

// fulfil records the sale for an order whose stock was already committed
func (s *orderService) fulfil(tx *gorm.DB, order *model.Order, method model.PaymentMethod, actor Actor) (*model.Sale, error) {
	if method == "" {
		method = model.PaymentDinheiro
	}
	orderID := order.ID
	sale := &model.Sale{
		Customer:      order.Customer,
		PaymentMethod: method,
		Status:        model.SaleFinalizada,
		SellerName:    order.SellerName,
		OrderID:       &orderID,
	}
	for _, item := range order.Items {
		sale.Items = append(sale.Items, model.SaleItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Cost:      item.Cost,
			Unit:      item.Unit,
		})
	}
	if err := s.record(tx, sale, actor); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *orderService) GetOrder(id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) ListOrders(status model.OrderStatus) ([]model.Order, error) {
	return s.orderRepo.FindAll(status)
}
