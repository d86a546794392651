package repository

import (
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Status model.SaleStatus
	Limit  int
}

type SaleRepository interface {
	WithTx(tx *gorm.DB) SaleRepository
	Create(sale *model.Sale) error
	FindByID(id uuid.UUID) (*model.Sale, error)
	LockByID(id uuid.UUID) (*model.Sale, error)
	FindAll(filter SaleFilter) ([]model.Sale, error)
	FindBySession(sessionID uuid.UUID) ([]model.Sale, error)
	MarkCancelled(id uuid.UUID, at time.Time, by string) error
	DetachSession(sessionID uuid.UUID) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) WithTx(tx *gorm.DB) SaleRepository {
	return &saleRepo{tx}
}

// Create inserts the sale together with its items
func (r *saleRepo) Create(sale *model.Sale) error {
	return r.db.Create(sale).Error
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.Preload("Items").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) LockByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("sale_id = ?", id).Find(&sale.Items).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(filter SaleFilter) ([]model.Sale, error) {
	var sales []model.Sale
	query := r.db.Preload("Items").Order("display_id DESC")
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindBySession(sessionID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Where("session_id = ?", sessionID).Order("display_id ASC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) MarkCancelled(id uuid.UUID, at time.Time, by string) error {
	return r.db.Model(&model.Sale{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.SaleCancelada,
			"cancelled_at": at,
			"updated_by":   by,
		}).Error
}

// DetachSession clears the attribution of sales to a deleted session
func (r *saleRepo) DetachSession(sessionID uuid.UUID) error {
	return r.db.Model(&model.Sale{}).
		Where("session_id = ?", sessionID).
		Update("session_id", nil).Error
}
