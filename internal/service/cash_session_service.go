package service

import (
	"errors"
	"fmt"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrRegisterAlreadyOpen = errors.New("cash register is already open")
	ErrRegisterClosed      = errors.New("cash register is closed")
	ErrSessionNotFound     = errors.New("cash register session not found")
	ErrSessionStillOpen    = errors.New("an open session cannot be deleted")
)

type CashSessionService interface {
	Open(req *OpenRegisterRequest, actor Actor) (*model.CashRegisterSession, error)
	AddAdjustment(req *AdjustmentRequest, actor Actor) (*model.CashAdjustment, error)
	Close(actor Actor) (*SessionSummary, error)
	Current() (*SessionSummary, error)
	History() ([]model.CashRegisterSession, error)
	GetSession(id uuid.UUID) (*SessionSummary, error)
	DeleteSession(id uuid.UUID, actor Actor) error
}

type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"gte=0"`
}

type AdjustmentRequest struct {
	Type   model.AdjustmentType `json:"type" validate:"required,oneof=suprimento sangria"`
	Amount decimal.Decimal      `json:"amount" validate:"gt=0"`
	Reason string               `json:"reason" validate:"max=255"`
}

// SessionSummary is a session with the figures derived from its sales and
// adjustments. A closed session reports the figures stored at close; Drift
// is what later cancellations moved the recomputed balance away from them.
type SessionSummary struct {
	Session         *model.CashRegisterSession              `json:"session"`
	SalesCount      int                                     `json:"sales_count"`
	TotalSales      decimal.Decimal                         `json:"total_sales"`
	TotalsByMethod  map[model.PaymentMethod]decimal.Decimal `json:"totals_by_method"`
	Suprimentos     decimal.Decimal                         `json:"suprimentos"`
	Sangrias        decimal.Decimal                         `json:"sangrias"`
	ExpectedBalance decimal.Decimal                         `json:"expected_balance"`
	Drift           decimal.Decimal                         `json:"drift"`
	PendingOrders   int64                                   `json:"pending_orders"`
}

type cashSessionService struct {
	sessionRepo repository.CashSessionRepository
	saleRepo    repository.SaleRepository
	orderRepo   repository.OrderRepository
	db          *gorm.DB
	wsHub       *ws.Hub
	log         *zap.Logger
}

func NewCashSessionService(
	db *gorm.DB,
	sessionRepo repository.CashSessionRepository,
	saleRepo repository.SaleRepository,
	orderRepo repository.OrderRepository,
	hub *ws.Hub,
	log *zap.Logger,
) CashSessionService {
	return &cashSessionService{
		sessionRepo: sessionRepo,
		saleRepo:    saleRepo,
		orderRepo:   orderRepo,
		db:          db,
		wsHub:       hub,
		log:         log.Named("register"),
	}
}

// ExpectedBalance is opening + sales + suprimentos - sangrias. Fiado and
// cancelled sales bring no money into the drawer and are skipped.
func ExpectedBalance(opening decimal.Decimal, sales []model.Sale, adjustments []model.CashAdjustment) decimal.Decimal {
	return summarize(opening, sales, adjustments).ExpectedBalance
}

func summarize(opening decimal.Decimal, sales []model.Sale, adjustments []model.CashAdjustment) SessionSummary {
	sum := SessionSummary{
		TotalSales:     decimal.Zero,
		TotalsByMethod: make(map[model.PaymentMethod]decimal.Decimal),
		Suprimentos:    decimal.Zero,
		Sangrias:       decimal.Zero,
	}
	for i := range sales {
		if !sales[i].CountsTowardsRegister() {
			continue
		}
		sum.SalesCount++
		sum.TotalSales = sum.TotalSales.Add(sales[i].Amount)
		method := sales[i].PaymentMethod
		sum.TotalsByMethod[method] = sum.TotalsByMethod[method].Add(sales[i].Amount)
	}
	for _, adj := range adjustments {
		switch adj.Type {
		case model.AdjustmentSuprimento:
			sum.Suprimentos = sum.Suprimentos.Add(adj.Amount)
		case model.AdjustmentSangria:
			sum.Sangrias = sum.Sangrias.Add(adj.Amount)
		}
	}
	sum.ExpectedBalance = opening.Add(sum.TotalSales).Add(sum.Suprimentos).Sub(sum.Sangrias).Round(2)
	return sum
}

func (s *cashSessionService) Open(req *OpenRegisterRequest, actor Actor) (*model.CashRegisterSession, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var session *model.CashRegisterSession
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sessionRepo := s.sessionRepo.WithTx(tx)

		state, err := sessionRepo.LockState()
		if err != nil {
			return err
		}
		if state.OpenSessionID != nil {
			return ErrRegisterAlreadyOpen
		}

		session = &model.CashRegisterSession{
			Status:         model.SessionOpen,
			OpeningTime:    time.Now(),
			OpeningBalance: req.OpeningBalance.Round(2),
			TotalSales:     decimal.Zero,
			OpenedBy:       actor.Name,
			Adjustments:    []model.CashAdjustment{},
		}
		session.CreatedBy = actor.ID
		session.UpdatedBy = actor.ID
		if err := sessionRepo.Create(session); err != nil {
			return err
		}

		state.OpenSessionID = &session.ID
		return sessionRepo.SaveState(state)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("register opened",
		zap.String("session_id", session.ID.String()),
		zap.String("opening_balance", session.OpeningBalance.StringFixed(2)),
		zap.String("user", actor.Email),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "register",
		Action:  "register_opened",
		Data:    session,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s opened the register with %s", actor.Name, session.OpeningBalance.StringFixed(2)),
	})
	return session, nil
}

func (s *cashSessionService) AddAdjustment(req *AdjustmentRequest, actor Actor) (*model.CashAdjustment, error) {
	// amounts are kept in cents; a sub-cent amount rounds to zero and fails gt=0
	req.Amount = req.Amount.Round(2)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var adjustment *model.CashAdjustment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sessionRepo := s.sessionRepo.WithTx(tx)

		// Shared lock: a concurrent close waits until the adjustment is in.
		state, err := sessionRepo.ShareState()
		if err != nil {
			return err
		}
		if state.OpenSessionID == nil {
			return ErrRegisterClosed
		}

		adjustment = &model.CashAdjustment{
			SessionID: *state.OpenSessionID,
			Time:      time.Now(),
			Type:      req.Type,
			Amount:    req.Amount,
			Reason:    req.Reason,
			CreatedBy: actor.ID,
		}
		return sessionRepo.AddAdjustment(adjustment)
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.Event{
		Type:    "register",
		Action:  "register_adjustment",
		Data:    adjustment,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s recorded a %s of %s", actor.Name, adjustment.Type, adjustment.Amount.StringFixed(2)),
	})
	return adjustment, nil
}

func (s *cashSessionService) Close(actor Actor) (*SessionSummary, error) {
	var summary *SessionSummary
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sessionRepo := s.sessionRepo.WithTx(tx)

		state, err := sessionRepo.LockState()
		if err != nil {
			return err
		}
		if state.OpenSessionID == nil {
			return ErrRegisterClosed
		}

		summary, err = s.summary(tx, *state.OpenSessionID)
		if err != nil {
			return err
		}

		session := summary.Session
		now := time.Now()
		session.Status = model.SessionClosed
		session.ClosingTime = &now
		session.ClosingBalance = decimal.NewNullDecimal(summary.ExpectedBalance)
		session.TotalSales = summary.TotalSales
		session.SalesCount = summary.SalesCount
		session.ClosedBy = actor.Name
		session.UpdatedBy = actor.ID
		if err := sessionRepo.Save(session); err != nil {
			return err
		}

		state.OpenSessionID = nil
		return sessionRepo.SaveState(state)
	})
	if err != nil {
		return nil, err
	}

	if summary.PendingOrders > 0 {
		s.log.Warn("register closed with pending orders", zap.Int64("pending_orders", summary.PendingOrders))
	}
	s.log.Info("register closed",
		zap.String("session_id", summary.Session.ID.String()),
		zap.String("closing_balance", summary.ExpectedBalance.StringFixed(2)),
		zap.Int("sales", summary.SalesCount),
		zap.String("user", actor.Email),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "register",
		Action:  "register_closed",
		Data:    summary,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s closed the register with %s", actor.Name, summary.ExpectedBalance.StringFixed(2)),
	})
	return summary, nil
}

func (s *cashSessionService) Current() (*SessionSummary, error) {
	var summary *SessionSummary
	err := s.db.Transaction(func(tx *gorm.DB) error {
		state, err := s.sessionRepo.WithTx(tx).ShareState()
		if err != nil {
			return err
		}
		if state.OpenSessionID == nil {
			return ErrRegisterClosed
		}
		summary, err = s.summary(tx, *state.OpenSessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *cashSessionService) History() ([]model.CashRegisterSession, error) {
	return s.sessionRepo.FindAll(model.SessionClosed)
}

func (s *cashSessionService) GetSession(id uuid.UUID) (*SessionSummary, error) {
	return s.summary(s.db, id)
}

func (s *cashSessionService) DeleteSession(id uuid.UUID, actor Actor) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sessionRepo := s.sessionRepo.WithTx(tx)

		session, err := sessionRepo.FindByID(id)
		if err != nil {
			return notFound(err, ErrSessionNotFound)
		}
		if session.Status == model.SessionOpen {
			return ErrSessionStillOpen
		}
		if err := s.saleRepo.WithTx(tx).DetachSession(id); err != nil {
			return err
		}
		return notFound(sessionRepo.Delete(id), ErrSessionNotFound)
	})
	if err != nil {
		return err
	}

	s.log.Info("register session deleted", zap.String("session_id", id.String()), zap.String("user", actor.Email))
	s.wsHub.Publish(ws.Event{
		Type:   "register",
		Action: "session_deleted",
		Data:   map[string]string{"id": id.String()},
		User:   actor.eventUser(),
	})
	return nil
}

// summary loads a session and derives its figures from the attributed sales
func (s *cashSessionService) summary(db *gorm.DB, id uuid.UUID) (*SessionSummary, error) {
	session, err := s.sessionRepo.WithTx(db).FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	sales, err := s.saleRepo.WithTx(db).FindBySession(id)
	if err != nil {
		return nil, err
	}

	sum := summarize(session.OpeningBalance, sales, session.Adjustments)
	sum.Session = session
	sum.Drift = decimal.Zero

	if session.Status == model.SessionClosed && session.ClosingBalance.Valid {
		sum.Drift = sum.ExpectedBalance.Sub(session.ClosingBalance.Decimal)
		sum.ExpectedBalance = session.ClosingBalance.Decimal
		sum.TotalSales = session.TotalSales
		sum.SalesCount = session.SalesCount
		return &sum, nil
	}

	pending, err := s.orderRepo.WithTx(db).CountByStatus(model.OrderPendente)
	if err != nil {
		return nil, err
	}
	sum.PendingOrders = pending
	return &sum, nil
}
