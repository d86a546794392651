package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is sold by the pack (fardo). Stock and Reserved are counted in packs.
type Product struct {
	BaseModel
	Code          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required,max=50"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category      string          `gorm:"type:varchar(100);index" json:"category"`
	UnitOfMeasure string          `gorm:"type:varchar(20)" json:"unit_of_measure"`
	UnitsPerPack  int             `gorm:"not null;default:1" json:"units_per_pack" validate:"gte=1"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost" validate:"gte=0"`
	PackPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"pack_price" validate:"gte=0"`
	Stock         int             `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	// Reserved holds packs promised to pending orders; it never exceeds Stock.
	Reserved int `gorm:"not null;default:0" json:"reserved"`
}

// UnitPrice is the price of a single unit inside the pack.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.UnitsPerPack <= 0 {
		return p.PackPrice
	}
	return p.PackPrice.Div(decimal.NewFromInt(int64(p.UnitsPerPack))).Round(2)
}

// Available is what checkout may still sell.
func (p *Product) Available() int {
	return p.Stock - p.Reserved
}

type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	UnitsPerPack  int             `json:"units_per_pack"`
	Cost          decimal.Decimal `json:"cost"`
	PackPrice     decimal.Decimal `json:"pack_price"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Stock         int             `json:"stock"`
	Reserved      int             `json:"reserved"`
	Available     int             `json:"available"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) ToResponse() ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Category:      p.Category,
		UnitOfMeasure: p.UnitOfMeasure,
		UnitsPerPack:  p.UnitsPerPack,
		Cost:          p.Cost,
		PackPrice:     p.PackPrice,
		UnitPrice:     p.UnitPrice(),
		Stock:         p.Stock,
		Reserved:      p.Reserved,
		Available:     p.Available(),
		UpdatedAt:     p.UpdatedAt,
	}
}

func ProductResponses(products []Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = products[i].ToResponse()
	}
	return out
}
