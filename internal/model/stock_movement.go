package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementSaleCancel MovementType = "sale_cancel"
	MovementReserve    MovementType = "reserve"
	MovementRelease    MovementType = "release"
	MovementCommit     MovementType = "commit"
	MovementAdjustIn   MovementType = "adjust_in"
	MovementAdjustOut  MovementType = "adjust_out"
	MovementImport     MovementType = "import"
)

// StockMovement is one line of the stock ledger. Deltas are signed.
type StockMovement struct {
	BaseModel
	ProductID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       *Product     `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Type          MovementType `gorm:"type:varchar(20);not null;index" json:"type"`
	StockDelta    int          `gorm:"not null" json:"stock_delta"`
	ReservedDelta int          `gorm:"not null" json:"reserved_delta"`
	StockAfter    int          `gorm:"not null" json:"stock_after"`
	ReservedAfter int          `gorm:"not null" json:"reserved_after"`
	Reference     string       `gorm:"type:varchar(100);index" json:"reference"`
	Note          string       `json:"note,omitempty"`
}
