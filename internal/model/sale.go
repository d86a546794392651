package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleStatus string

const (
	SaleFinalizada SaleStatus = "Finalizada"
	SalePendente   SaleStatus = "Pendente"
	SaleCancelada  SaleStatus = "Cancelada"
	SaleFiado      SaleStatus = "Fiado"
)

type PaymentMethod string

const (
	PaymentDinheiro PaymentMethod = "dinheiro"
	PaymentCredito  PaymentMethod = "credito"
	PaymentDebito   PaymentMethod = "debito"
	PaymentPix      PaymentMethod = "pix"
	PaymentFiado    PaymentMethod = "fiado"
)

// Sale is an entry of the sales journal.
type Sale struct {
	BaseModel
	DisplayID     int             `gorm:"uniqueIndex;not null" json:"display_id"`
	Customer      string          `gorm:"type:varchar(255);index" json:"customer"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	Status        SaleStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	SellerName    string          `gorm:"type:varchar(255)" json:"seller_name"`

	// SessionID is the register session open when the sale was recorded.
	SessionID   *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`
	OrderID     *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string          `gorm:"type:varchar(255)" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Cost      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	Unit      string          `gorm:"type:varchar(20)" json:"unit"`
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *SaleItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CountsTowardsRegister reports whether the sale brought money into the drawer.
func (s *Sale) CountsTowardsRegister() bool {
	return s.Status != SaleFiado && s.Status != SaleCancelada
}
