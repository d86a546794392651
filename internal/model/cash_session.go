package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// CashRegisterSession is one Closed -> Open -> Closed cycle of the register.
type CashRegisterSession struct {
	BaseModel
	Status         SessionStatus       `gorm:"type:varchar(10);not null;index" json:"status"`
	OpeningTime    time.Time           `gorm:"not null;index" json:"opening_time"`
	ClosingTime    *time.Time          `json:"closing_time,omitempty"`
	OpeningBalance decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"opening_balance"`
	ClosingBalance decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"closing_balance"`
	TotalSales     decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"total_sales"`
	SalesCount     int                 `gorm:"not null;default:0" json:"sales_count"`
	OpenedBy       string              `gorm:"type:varchar(255)" json:"opened_by"`
	ClosedBy       string              `gorm:"type:varchar(255)" json:"closed_by,omitempty"`
	Adjustments    []CashAdjustment    `gorm:"foreignKey:SessionID" json:"adjustments"`
}

// TableName keeps the historical collection name
func (CashRegisterSession) TableName() string {
	return "cash_register_sessions"
}

type AdjustmentType string

const (
	AdjustmentSuprimento AdjustmentType = "suprimento"
	AdjustmentSangria    AdjustmentType = "sangria"
)

type CashAdjustment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"session_id"`
	Time      time.Time       `gorm:"not null" json:"time"`
	Type      AdjustmentType  `gorm:"type:varchar(20);not null" json:"type"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason    string          `json:"reason"`
	CreatedBy string          `json:"created_by"`
}

func (a *CashAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RegisterStateKey identifies the single row of RegisterState.
const RegisterStateKey = "current"

// RegisterState points at the open session, if any. Locking this row
// serialises open and close so at most one session is ever open.
type RegisterState struct {
	Key           string     `gorm:"column:state_key;type:varchar(20);primaryKey" json:"key"`
	OpenSessionID *uuid.UUID `gorm:"type:uuid" json:"open_session_id"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
