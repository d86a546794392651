package model

import "time"

// CompanyInfoID is the primary key of the only CompanyInfo row.
const CompanyInfoID = 1

type CompanyInfo struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	Name          string    `gorm:"type:varchar(255)" json:"name" validate:"required"`
	Document      string    `gorm:"type:varchar(20)" json:"document"`
	Address       string    `json:"address"`
	Phone         string    `gorm:"type:varchar(20)" json:"phone"`
	Email         string    `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	ReceiptFooter string    `json:"receipt_footer"`
	UpdatedAt     time.Time `json:"updated_at"`
	UpdatedBy     string    `json:"updated_by"`
}

// Counter backs the human-facing sequential ids of sales and orders.
type Counter struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value int    `gorm:"not null;default:0"`
}

const (
	CounterSales  = "sales"
	CounterOrders = "orders"
)
