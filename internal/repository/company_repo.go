package repository

import (
	"go-pos-ws/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompanyRepository interface {
	Get() (*model.CompanyInfo, error)
	Save(info *model.CompanyInfo) error
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

// Get returns the company row, creating an empty one on first access
func (r *companyRepo) Get() (*model.CompanyInfo, error) {
	info := model.CompanyInfo{ID: model.CompanyInfoID}
	if err := r.db.FirstOrCreate(&info, model.CompanyInfo{ID: model.CompanyInfoID}).Error; err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *companyRepo) Save(info *model.CompanyInfo) error {
	info.ID = model.CompanyInfoID
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(info).Error
}
