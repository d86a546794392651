package repository

import (
	"strings"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Category string
	Search   string
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(product *model.Product) error
	FindAll(filter ProductFilter) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByCode(code string) (*model.Product, error)
	CodeTaken(code string, excludeID uuid.UUID) (bool, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID, deletedBy string) error
	// LockByIDs loads the products FOR UPDATE, ordered by id. withDeleted
	// includes soft-deleted rows, for reversing stock already sold.
	LockByIDs(ids []uuid.UUID, withDeleted bool) ([]model.Product, error)
	UpdateStock(id uuid.UUID, stock, reserved int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	query := r.db.Order("name ASC")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	err := query.Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByCode(code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CodeTaken also sees soft-deleted rows since the unique index does.
func (r *productRepo) CodeTaken(code string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.Product{}).
		Where("code = ? AND id <> ?", code, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) LockByIDs(ids []uuid.UUID, withDeleted bool) ([]model.Product, error) {
	var products []model.Product
	query := r.db
	if withDeleted {
		query = query.Unscoped()
	}
	err := query.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

// UpdateStock targets the row by id, deleted or not; callers hold its lock.
func (r *productRepo) UpdateStock(id uuid.UUID, stock, reserved int, updatedBy string) error {
	return r.db.Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      stock,
			"reserved":   reserved,
			"updated_by": updatedBy,
		}).Error
}
