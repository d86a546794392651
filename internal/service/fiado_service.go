package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrFiadoAccountNotFound = errors.New("fiado account not found")
	ErrNothingToPay         = errors.New("fiado account has no outstanding balance")
)

type FiadoService interface {
	AddFiadoSale(req *CreateFiadoSaleRequest, actor Actor) (*FiadoSaleResult, error)
	AddPayment(req *FiadoPaymentRequest, actor Actor) (*FiadoPaymentResult, error)
	ListAccounts() ([]model.FiadoAccount, error)
	GetAccount(customer string) (*model.FiadoAccount, error)
	Reconcile(customer string, actor Actor) (*ReconcileResult, error)
}

type CreateFiadoSaleRequest struct {
	Customer string      `json:"customer" validate:"required,max=255"`
	Items    []StockItem `json:"items" validate:"dive"`
}

type FiadoPaymentRequest struct {
	Customer      string              `json:"customer" validate:"required"`
	Amount        decimal.Decimal     `json:"amount" validate:"gt=0"`
	PaymentMethod model.PaymentMethod `json:"payment_method" validate:"required,oneof=dinheiro credito debito pix"`
}

type FiadoSaleResult struct {
	Sale    *model.Sale         `json:"sale"`
	Account *model.FiadoAccount `json:"account"`
}

type FiadoPaymentResult struct {
	Account     *model.FiadoAccount     `json:"account"`
	Transaction *model.FiadoTransaction `json:"transaction"`
	// Applied is the part of the requested amount that reduced the balance.
	Applied decimal.Decimal `json:"applied"`
}

type ReconcileResult struct {
	Account  *model.FiadoAccount `json:"account"`
	Previous decimal.Decimal     `json:"previous_balance"`
	Drift    decimal.Decimal     `json:"drift"`
}

type fiadoService struct {
	*checkout
	fiadoRepo repository.FiadoRepository
	db        *gorm.DB
	wsHub     *ws.Hub
	log       *zap.Logger
}

func NewFiadoService(
	db *gorm.DB,
	ledger StockLedger,
	fiadoRepo repository.FiadoRepository,
	saleRepo repository.SaleRepository,
	counterRepo repository.CounterRepository,
	sessionRepo repository.CashSessionRepository,
	hub *ws.Hub,
	log *zap.Logger,
) FiadoService {
	return &fiadoService{
		checkout: &checkout{
			ledger:      ledger,
			saleRepo:    saleRepo,
			counterRepo: counterRepo,
			sessionRepo: sessionRepo,
		},
		fiadoRepo: fiadoRepo,
		db:        db,
		wsHub:     hub,
		log:       log.Named("fiado"),
	}
}

func (s *fiadoService) AddFiadoSale(req *CreateFiadoSaleRequest, actor Actor) (*FiadoSaleResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	req.Customer = strings.TrimSpace(req.Customer)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		result   FiadoSaleResult
		products []model.Product
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result.Sale, products, err = s.sell(tx, req.Customer, model.PaymentFiado, model.SaleFiado, req.Items, actor)
		if err != nil {
			return err
		}

		fiadoRepo := s.fiadoRepo.WithTx(tx)
		if err := fiadoRepo.EnsureAccount(req.Customer, actor.ID); err != nil {
			return err
		}
		account, err := fiadoRepo.LockByCustomer(req.Customer)
		if err != nil {
			return err
		}

		account.Balance = account.Balance.Add(result.Sale.Amount)
		account.UpdatedBy = actor.ID
		if err := fiadoRepo.UpdateBalance(account.ID, account.Balance, actor.ID); err != nil {
			return err
		}

		saleID := result.Sale.ID
		entry := &model.FiadoTransaction{
			AccountID: account.ID,
			Date:      result.Sale.Date,
			Type:      model.FiadoTxSale,
			Amount:    result.Sale.Amount,
			SaleID:    &saleID,
			CreatedBy: actor.ID,
		}
		if err := fiadoRepo.AddTransaction(entry); err != nil {
			return err
		}
		account.Transactions = []model.FiadoTransaction{*entry}
		result.Account = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fiado sale recorded",
		zap.String("customer", req.Customer),
		zap.Int("display_id", result.Sale.DisplayID),
		zap.String("amount", result.Sale.Amount.StringFixed(2)),
		zap.String("balance", result.Account.Balance.StringFixed(2)),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "sale",
		Action:  "sale_created",
		Data:    result.Sale,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s recorded fiado sale #%d for %s", actor.Name, result.Sale.DisplayID, req.Customer),
	})
	publishStock(s.wsHub, products, actor)

	return &result, nil
}

func (s *fiadoService) AddPayment(req *FiadoPaymentRequest, actor Actor) (*FiadoPaymentResult, error) {
	req.Customer = strings.TrimSpace(req.Customer)
	req.Amount = req.Amount.Round(2)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var result FiadoPaymentResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		fiadoRepo := s.fiadoRepo.WithTx(tx)

		account, err := fiadoRepo.LockByCustomer(req.Customer)
		if err != nil {
			return notFound(err, ErrFiadoAccountNotFound)
		}
		if !account.Balance.IsPositive() {
			return ErrNothingToPay
		}

		applied := decimal.Min(req.Amount, account.Balance)
		account.Balance = account.Balance.Sub(applied)
		account.UpdatedBy = actor.ID
		if err := fiadoRepo.UpdateBalance(account.ID, account.Balance, actor.ID); err != nil {
			return err
		}

		entry := &model.FiadoTransaction{
			AccountID:     account.ID,
			Date:          time.Now(),
			Type:          model.FiadoTxPayment,
			Amount:        applied.Neg(),
			PaymentMethod: req.PaymentMethod,
			CreatedBy:     actor.ID,
		}
		if err := fiadoRepo.AddTransaction(entry); err != nil {
			return err
		}

		result = FiadoPaymentResult{Account: account, Transaction: entry, Applied: applied}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fiado payment recorded",
		zap.String("customer", req.Customer),
		zap.String("applied", result.Applied.StringFixed(2)),
		zap.String("balance", result.Account.Balance.StringFixed(2)),
	)
	s.wsHub.Publish(ws.Event{
		Type:    "fiado",
		Action:  "fiado_payment",
		Data:    result,
		User:    actor.eventUser(),
		Message: fmt.Sprintf("%s received %s from %s", actor.Name, result.Applied.StringFixed(2), req.Customer),
	})
	return &result, nil
}

func (s *fiadoService) ListAccounts() ([]model.FiadoAccount, error) {
	return s.fiadoRepo.FindAll()
}

func (s *fiadoService) GetAccount(customer string) (*model.FiadoAccount, error) {
	account, err := s.fiadoRepo.FindByCustomer(strings.TrimSpace(customer))
	if err != nil {
		return nil, notFound(err, ErrFiadoAccountNotFound)
	}
	return account, nil
}

// Reconcile resets the balance to the sum of the account's transactions
func (s *fiadoService) Reconcile(customer string, actor Actor) (*ReconcileResult, error) {
	var result ReconcileResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		fiadoRepo := s.fiadoRepo.WithTx(tx)

		account, err := fiadoRepo.LockByCustomer(strings.TrimSpace(customer))
		if err != nil {
			return notFound(err, ErrFiadoAccountNotFound)
		}
		txs, err := fiadoRepo.FindTransactions(account.ID)
		if err != nil {
			return err
		}

		recomputed := decimal.Zero
		for _, t := range txs {
			recomputed = recomputed.Add(t.Amount)
		}

		result.Previous = account.Balance
		result.Drift = account.Balance.Sub(recomputed)
		if !result.Drift.IsZero() {
			account.Balance = recomputed
			account.UpdatedBy = actor.ID
			if err := fiadoRepo.UpdateBalance(account.ID, recomputed, actor.ID); err != nil {
				return err
			}
		}
		account.Transactions = txs
		result.Account = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Drift.IsZero() {
		s.log.Warn("fiado balance drift corrected",
			zap.String("customer", result.Account.CustomerName),
			zap.String("previous", result.Previous.StringFixed(2)),
			zap.String("drift", result.Drift.StringFixed(2)),
		)
	}
	return &result, nil
}
