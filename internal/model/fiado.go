package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FiadoAccount is a customer's store-credit tab, keyed by name.
type FiadoAccount struct {
	BaseModel
	CustomerName string             `gorm:"type:varchar(255);uniqueIndex;not null" json:"customer_name"`
	Balance      decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Transactions []FiadoTransaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

type FiadoTxType string

const (
	FiadoTxSale    FiadoTxType = "sale"
	FiadoTxPayment FiadoTxType = "payment"
)

// FiadoTransaction amounts are signed: sales positive, payments negative.
type FiadoTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	Type          FiadoTxType     `gorm:"type:varchar(10);not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	SaleID        *uuid.UUID      `gorm:"type:uuid" json:"sale_id,omitempty"`
	CreatedBy     string          `json:"created_by"`
}

func (t *FiadoTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
