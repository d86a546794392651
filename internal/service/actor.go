package service

import (
	"errors"

	"go-pos-ws/internal/ws"

	"gorm.io/gorm"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	ID    string
	Name  string
	Email string
}

func (a Actor) eventUser() *ws.EventUser {
	return &ws.EventUser{ID: a.ID, Name: a.Name, Email: a.Email}
}

// notFound maps gorm.ErrRecordNotFound to the service's own sentinel
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
