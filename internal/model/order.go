package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPendente   OrderStatus = "Pendente"
	OrderFinalizado OrderStatus = "Finalizado"
	OrderCancelado  OrderStatus = "Cancelado"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderFinalizado || s == OrderCancelado
}

// Order holds a stock reservation until it is fulfilled or cancelled.
type Order struct {
	BaseModel
	DisplayID  int             `gorm:"uniqueIndex;not null" json:"display_id"`
	Customer   string          `gorm:"type:varchar(255);not null;index" json:"customer"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Date       time.Time       `gorm:"not null;index" json:"date"`
	Status     OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	SellerName string          `gorm:"type:varchar(255)" json:"seller_name"`
	SaleID     *uuid.UUID      `gorm:"type:uuid" json:"sale_id,omitempty"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string          `gorm:"type:varchar(255)" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Cost      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	Unit      string          `gorm:"type:varchar(20)" json:"unit"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
