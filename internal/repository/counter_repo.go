package repository

import (
	"go-pos-ws/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepository hands out gap-free sequential numbers inside a transaction.
type CounterRepository interface {
	WithTx(tx *gorm.DB) CounterRepository
	Next(name string) (int, error)
	Seed(names ...string) error
}

type counterRepo struct {
	db *gorm.DB
}

func NewCounterRepo(db *gorm.DB) CounterRepository {
	return &counterRepo{db}
}

func (r *counterRepo) WithTx(tx *gorm.DB) CounterRepository {
	return &counterRepo{tx}
}

func (r *counterRepo) Next(name string) (int, error) {
	counter := model.Counter{Name: name}
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		FirstOrCreate(&counter).Error
	if err != nil {
		return 0, err
	}

	counter.Value++
	if err := r.db.Model(&model.Counter{}).Where("name = ?", name).Update("value", counter.Value).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

func (r *counterRepo) Seed(names ...string) error {
	for _, name := range names {
		c := model.Counter{Name: name}
		if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
			return err
		}
	}
	return nil
}
