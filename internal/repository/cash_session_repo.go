package repository

import (
	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashSessionRepository interface {
	WithTx(tx *gorm.DB) CashSessionRepository
	Create(session *model.CashRegisterSession) error
	Save(session *model.CashRegisterSession) error
	FindByID(id uuid.UUID) (*model.CashRegisterSession, error)
	FindAll(status model.SessionStatus) ([]model.CashRegisterSession, error)
	Delete(id uuid.UUID) error

	AddAdjustment(adjustment *model.CashAdjustment) error
	FindAdjustments(sessionID uuid.UUID) ([]model.CashAdjustment, error)

	// LockState loads the register state row FOR UPDATE, creating it on first use.
	LockState() (*model.RegisterState, error)
	// ShareState loads the state FOR SHARE so a concurrent close waits for the caller.
	ShareState() (*model.RegisterState, error)
	SaveState(state *model.RegisterState) error
}

type cashSessionRepo struct {
	db *gorm.DB
}

func NewCashSessionRepo(db *gorm.DB) CashSessionRepository {
	return &cashSessionRepo{db}
}

func (r *cashSessionRepo) WithTx(tx *gorm.DB) CashSessionRepository {
	return &cashSessionRepo{tx}
}

func (r *cashSessionRepo) Create(session *model.CashRegisterSession) error {
	return r.db.Omit(clause.Associations).Create(session).Error
}

func (r *cashSessionRepo) Save(session *model.CashRegisterSession) error {
	return r.db.Omit(clause.Associations).Save(session).Error
}

func (r *cashSessionRepo) FindByID(id uuid.UUID) (*model.CashRegisterSession, error) {
	var session model.CashRegisterSession
	err := r.db.Preload("Adjustments", func(db *gorm.DB) *gorm.DB {
		return db.Order("time ASC")
	}).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *cashSessionRepo) FindAll(status model.SessionStatus) ([]model.CashRegisterSession, error) {
	var sessions []model.CashRegisterSession
	query := r.db.Preload("Adjustments").Order("opening_time DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

// Delete removes the session and its adjustments permanently
func (r *cashSessionRepo) Delete(id uuid.UUID) error {
	if err := r.db.Where("session_id = ?", id).Delete(&model.CashAdjustment{}).Error; err != nil {
		return err
	}
	res := r.db.Unscoped().Delete(&model.CashRegisterSession{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cashSessionRepo) AddAdjustment(adjustment *model.CashAdjustment) error {
	return r.db.Create(adjustment).Error
}

func (r *cashSessionRepo) FindAdjustments(sessionID uuid.UUID) ([]model.CashAdjustment, error) {
	var adjustments []model.CashAdjustment
	err := r.db.Where("session_id = ?", sessionID).Order("time ASC").Find(&adjustments).Error
	return adjustments, err
}

func (r *cashSessionRepo) LockState() (*model.RegisterState, error) {
	return r.loadState("UPDATE")
}

func (r *cashSessionRepo) ShareState() (*model.RegisterState, error) {
	return r.loadState("SHARE")
}

func (r *cashSessionRepo) loadState(strength string) (*model.RegisterState, error) {
	state := model.RegisterState{Key: model.RegisterStateKey}
	err := r.db.Clauses(clause.Locking{Strength: strength}).
		Where("state_key = ?", model.RegisterStateKey).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *cashSessionRepo) SaveState(state *model.RegisterState) error {
	return r.db.Save(state).Error
}
