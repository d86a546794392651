package service

import (
	"testing"

	"go-pos-ws/internal/model"
	"go-pos-ws/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiadoService_PaymentReducesBalance(t *testing.T) {
	tests := []struct {
		name        string
		payment     string
		wantApplied string
		wantBalance string
	}{
		{name: "partial payment", payment: "30.00", wantApplied: "30.00", wantBalance: "70.00"},
		{name: "exact payment", payment: "100.00", wantApplied: "100.00", wantBalance: "0"},
		{name: "overpayment is clamped", payment: "150.00", wantApplied: "100.00", wantBalance: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			p := e.seedProduct(t, "P100", "Cesta Completa", "100.00", 3)

			_, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Dona Lurdes", Items: items(p.ID, 1)}, testActor)
			require.NoError(t, err)

			res, err := e.fiado.AddPayment(&FiadoPaymentRequest{
				Customer:      "Dona Lurdes",
				Amount:        dec(tt.payment),
				PaymentMethod: model.PaymentPix,
			}, testActor)
			require.NoError(t, err)

			assertDecimal(t, tt.wantApplied, res.Applied)
			assertDecimal(t, tt.wantBalance, res.Account.Balance)
			assertDecimal(t, "-"+tt.wantApplied, res.Transaction.Amount)
			assert.Equal(t, model.FiadoTxPayment, res.Transaction.Type)

			stored, err := e.fiado.GetAccount("Dona Lurdes")
			require.NoError(t, err)
			assertDecimal(t, tt.wantBalance, stored.Balance)
			assert.False(t, stored.Balance.IsNegative())
		})
	}
}

func TestFiadoService_NothingToPay(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P20", "Feijão 1kg", "20.00", 3)

	_, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Seu Zé", Items: items(p.ID, 1)}, testActor)
	require.NoError(t, err)

	req := &FiadoPaymentRequest{Customer: "Seu Zé", Amount: dec("20"), PaymentMethod: model.PaymentDinheiro}
	_, err = e.fiado.AddPayment(req, testActor)
	require.NoError(t, err)

	_, err = e.fiado.AddPayment(req, testActor)
	assert.ErrorIs(t, err, ErrNothingToPay)
}

func TestFiadoService_UnknownCustomer(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.fiado.AddPayment(&FiadoPaymentRequest{Customer: "Ninguém", Amount: dec("5"), PaymentMethod: model.PaymentPix}, testActor)
	assert.ErrorIs(t, err, ErrFiadoAccountNotFound)

	_, err = e.fiado.GetAccount("Ninguém")
	assert.ErrorIs(t, err, ErrFiadoAccountNotFound)

	_, err = e.fiado.Reconcile("Ninguém", testActor)
	assert.ErrorIs(t, err, ErrFiadoAccountNotFound)
}

func TestFiadoService_Validation(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P20", "Feijão 1kg", "20.00", 3)

	_, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "   ", Items: items(p.ID, 1)}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation, "customer is required")

	_, err = e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Seu Zé"}, testActor)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = e.fiado.AddPayment(&FiadoPaymentRequest{Customer: "Seu Zé", Amount: dec("0"), PaymentMethod: model.PaymentPix}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation)

	_, err = e.fiado.AddPayment(&FiadoPaymentRequest{Customer: "Seu Zé", Amount: dec("0.004"), PaymentMethod: model.PaymentPix}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation, "sub-cent amount rounds to zero")

	_, err = e.fiado.AddPayment(&FiadoPaymentRequest{Customer: "Seu Zé", Amount: dec("5"), PaymentMethod: model.PaymentFiado}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation, "a tab cannot be paid with more credit")

	assert.Equal(t, 3, e.product(t, p.ID).Stock)
}

func TestFiadoService_SalesAccumulate(t *testing.T) {
	e := newTestEnv(t)
	arroz := e.seedProduct(t, "P25", "Arroz 5kg", "25.50", 10)
	feijao := e.seedProduct(t, "P08", "Feijão 1kg", "8.90", 10)

	first, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Dona Lurdes", Items: items(arroz.ID, 2)}, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.SaleFiado, first.Sale.Status)
	assert.Equal(t, model.PaymentFiado, first.Sale.PaymentMethod)
	assertDecimal(t, "51.00", first.Account.Balance)

	second, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: " Dona Lurdes ", Items: items(feijao.ID, 1, arroz.ID, 1)}, testActor)
	require.NoError(t, err)
	assertDecimal(t, "85.40", second.Account.Balance)
	assert.Equal(t, first.Account.ID, second.Account.ID, "same tab for the trimmed name")

	accounts, err := e.fiado.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	txs, err := e.fiadoRepo.FindTransactions(first.Account.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, model.FiadoTxSale, tx.Type)
		assert.NotNil(t, tx.SaleID)
	}

	assert.Equal(t, 7, e.product(t, arroz.ID).Stock)
	assert.Equal(t, 9, e.product(t, feijao.ID).Stock)

	outstanding, err := e.fiadoRepo.TotalOutstanding()
	require.NoError(t, err)
	assertDecimal(t, "85.40", outstanding)
}

func TestFiadoService_AccountCreatedOnce(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P20", "Feijão 1kg", "20.00", 10)

	// a second first-sale for the same customer finds the row already there
	require.NoError(t, e.fiadoRepo.EnsureAccount("Seu Zé", testActor.ID))
	require.NoError(t, e.fiadoRepo.EnsureAccount("Seu Zé", testActor.ID))

	_, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Seu Zé", Items: items(p.ID, 1)}, testActor)
	require.NoError(t, err)

	require.NoError(t, e.fiadoRepo.EnsureAccount("Seu Zé", testActor.ID))
	_, err = e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Seu Zé", Items: items(p.ID, 2)}, testActor)
	require.NoError(t, err)

	accounts, err := e.fiadoRepo.FindAll()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assertDecimal(t, "60.00", accounts[0].Balance)
}

func TestFiadoService_ReconcileCorrectsDrift(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P40", "Óleo de Soja", "40.00", 5)

	res, err := e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Padaria Central", Items: items(p.ID, 2)}, testActor)
	require.NoError(t, err)
	_, err = e.fiado.AddPayment(&FiadoPaymentRequest{Customer: "Padaria Central", Amount: dec("15"), PaymentMethod: model.PaymentDebito}, testActor)
	require.NoError(t, err)

	clean, err := e.fiado.Reconcile("Padaria Central", testActor)
	require.NoError(t, err)
	assert.True(t, clean.Drift.IsZero())
	assertDecimal(t, "65", clean.Account.Balance)

	// Corrupt the stored balance behind the ledger's back
	require.NoError(t, e.fiadoRepo.UpdateBalance(res.Account.ID, dec("999.99"), "test"))

	fixed, err := e.fiado.Reconcile("Padaria Central", testActor)
	require.NoError(t, err)
	assertDecimal(t, "999.99", fixed.Previous)
	assertDecimal(t, "934.99", fixed.Drift)
	assertDecimal(t, "65", fixed.Account.Balance)
	assert.Len(t, fixed.Account.Transactions, 2)

	stored, err := e.fiado.GetAccount("Padaria Central")
	require.NoError(t, err)
	assertDecimal(t, "65", stored.Balance)
}

func TestFiadoService_PaymentsStayOutOfTheRegister(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P40", "Óleo de Soja", "40.00", 5)

	_, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("10")}, testActor)
	require.NoError(t, err)

	_, err = e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Seu Zé", Items: items(p.ID, 1)}, testActor)
	require.NoError(t, err)
	_, err = e.fiado.AddPayment(&FiadoPaymentRequest{Customer: "Seu Zé", Amount: dec("40"), PaymentMethod: model.PaymentDinheiro}, testActor)
	require.NoError(t, err)

	summary, err := e.register.Close(testActor)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SalesCount)
	assertDecimal(t, "10", summary.ExpectedBalance)
}
