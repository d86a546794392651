package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard audit trails
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CreatedBy string `json:"created_by,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
	DeletedBy string `json:"-"`
}

func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// Models lists every table for AutoMigrate, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&CompanyInfo{},
		&Counter{},
		&Product{},
		&StockMovement{},
		&CashRegisterSession{},
		&CashAdjustment{},
		&RegisterState{},
		&Sale{},
		&SaleItem{},
		&Order{},
		&OrderItem{},
		&FiadoAccount{},
		&FiadoTransaction{},
	}
}
