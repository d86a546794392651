package repository

import (
	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FiadoRepository interface {
	WithTx(tx *gorm.DB) FiadoRepository
	FindAll() ([]model.FiadoAccount, error)
	FindByCustomer(customerName string) (*model.FiadoAccount, error)
	// LockByCustomer returns gorm.ErrRecordNotFound when the account does not exist.
	LockByCustomer(customerName string) (*model.FiadoAccount, error)
	// EnsureAccount inserts an empty account unless one already exists for
	// the customer. Concurrent callers both succeed; lock it afterwards.
	EnsureAccount(customerName, createdBy string) error
	UpdateBalance(id uuid.UUID, balance decimal.Decimal, updatedBy string) error
	AddTransaction(t *model.FiadoTransaction) error
	FindTransactions(accountID uuid.UUID) ([]model.FiadoTransaction, error)
	TotalOutstanding() (decimal.Decimal, error)
}

type fiadoRepo struct {
	db *gorm.DB
}

func NewFiadoRepo(db *gorm.DB) FiadoRepository {
	return &fiadoRepo{db}
}

func (r *fiadoRepo) WithTx(tx *gorm.DB) FiadoRepository {
	return &fiadoRepo{tx}
}

func (r *fiadoRepo) FindAll() ([]model.FiadoAccount, error) {
	var accounts []model.FiadoAccount
	err := r.db.Order("customer_name ASC").Find(&accounts).Error
	return accounts, err
}

func (r *fiadoRepo) FindByCustomer(customerName string) (*model.FiadoAccount, error) {
	var account model.FiadoAccount
	err := r.db.Preload("Transactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC")
	}).First(&account, "customer_name = ?", customerName).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *fiadoRepo) LockByCustomer(customerName string) (*model.FiadoAccount, error) {
	var account model.FiadoAccount
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "customer_name = ?", customerName).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *fiadoRepo) EnsureAccount(customerName, createdBy string) error {
	account := &model.FiadoAccount{CustomerName: customerName, Balance: decimal.Zero}
	account.CreatedBy = createdBy
	account.UpdatedBy = createdBy
	return r.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "customer_name"}}, DoNothing: true}).
		Create(account).Error
}

func (r *fiadoRepo) UpdateBalance(id uuid.UUID, balance decimal.Decimal, updatedBy string) error {
	return r.db.Model(&model.FiadoAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_by": updatedBy,
		}).Error
}

func (r *fiadoRepo) AddTransaction(t *model.FiadoTransaction) error {
	return r.db.Create(t).Error
}

func (r *fiadoRepo) FindTransactions(accountID uuid.UUID) ([]model.FiadoTransaction, error) {
	var txs []model.FiadoTransaction
	err := r.db.Where("account_id = ?", accountID).Order("date ASC").Find(&txs).Error
	return txs, err
}

func (r *fiadoRepo) TotalOutstanding() (decimal.Decimal, error) {
	var balances []decimal.Decimal
	if err := r.db.Model(&model.FiadoAccount{}).Pluck("balance", &balances).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, balances...), nil
}
