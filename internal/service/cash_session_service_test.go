package service

import (
	"testing"

	"go-pos-ws/internal/model"
	"go-pos-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedBalance(t *testing.T) {
	sale := func(amount string, status model.SaleStatus) model.Sale {
		return model.Sale{Amount: dec(amount), Status: status, PaymentMethod: model.PaymentDinheiro}
	}
	adj := func(kind model.AdjustmentType, amount string) model.CashAdjustment {
		return model.CashAdjustment{Type: kind, Amount: dec(amount)}
	}

	tests := []struct {
		name        string
		opening     string
		sales       []model.Sale
		adjustments []model.CashAdjustment
		want        string
	}{
		{
			name:    "opening only",
			opening: "100.00",
			want:    "100.00",
		},
		{
			name:        "sale and sangria",
			opening:     "100.00",
			sales:       []model.Sale{sale("50.00", model.SaleFinalizada)},
			adjustments: []model.CashAdjustment{adj(model.AdjustmentSangria, "20.00")},
			want:        "130.00",
		},
		{
			name:    "fiado and cancelled sales are excluded",
			opening: "0",
			sales: []model.Sale{
				sale("10.00", model.SaleFinalizada),
				sale("99.00", model.SaleFiado),
				sale("45.50", model.SaleCancelada),
				sale("5.25", model.SalePendente),
			},
			want: "15.25",
		},
		{
			name:    "suprimento adds, sangria subtracts",
			opening: "200.00",
			sales:   []model.Sale{sale("0.10", model.SaleFinalizada), sale("0.20", model.SaleFinalizada)},
			adjustments: []model.CashAdjustment{
				adj(model.AdjustmentSuprimento, "50.00"),
				adj(model.AdjustmentSangria, "120.00"),
				adj(model.AdjustmentSuprimento, "0.05"),
			},
			want: "130.35",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, ExpectedBalance(dec(tt.opening), tt.sales, tt.adjustments))
		})
	}
}

func TestCashSessionService_OpenSaleSangriaClose(t *testing.T) {
	e := newTestEnv(t)
	product := e.seedProduct(t, "P50", "Cesta Básica", "50.00", 5)

	_, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("100.00")}, testActor)
	require.NoError(t, err)

	_, err = e.sales.AddSale(&CreateSaleRequest{PaymentMethod: model.PaymentDinheiro, Items: items(product.ID, 1)}, testActor)
	require.NoError(t, err)

	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSangria, Amount: dec("20.00"), Reason: "depósito"}, testActor)
	require.NoError(t, err)

	summary, err := e.register.Close(testActor)
	require.NoError(t, err)

	assertDecimal(t, "130.00", summary.ExpectedBalance)
	assertDecimal(t, "50.00", summary.TotalSales)
	assertDecimal(t, "20.00", summary.Sangrias)
	assert.Equal(t, 1, summary.SalesCount)

	stored, err := e.register.GetSession(summary.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, stored.Session.Status)
	require.True(t, stored.Session.ClosingBalance.Valid)
	assertDecimal(t, "130.00", stored.Session.ClosingBalance.Decimal)
	assert.NotNil(t, stored.Session.ClosingTime)
	require.Len(t, stored.Session.Adjustments, 1)

	_, err = e.register.Current()
	assert.ErrorIs(t, err, ErrRegisterClosed)
}

func TestCashSessionService_ClosedSessionKeepsClosingFigures(t *testing.T) {
	e := newTestEnv(t)
	product := e.seedProduct(t, "P50", "Cesta Básica", "50.00", 5)

	_, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("100.00")}, testActor)
	require.NoError(t, err)
	sale, err := e.sales.AddSale(&CreateSaleRequest{PaymentMethod: model.PaymentDinheiro, Items: items(product.ID, 1)}, testActor)
	require.NoError(t, err)
	_, err = e.orders.AddOrder(&CreateOrderRequest{Customer: "Padaria Central", Items: items(product.ID, 1)}, testActor)
	require.NoError(t, err)

	closed, err := e.register.Close(testActor)
	require.NoError(t, err)
	assertDecimal(t, "150.00", closed.ExpectedBalance)
	assert.Equal(t, int64(1), closed.PendingOrders)

	_, err = e.sales.CancelSale(sale.ID, testActor)
	require.NoError(t, err)

	stored, err := e.register.GetSession(closed.Session.ID)
	require.NoError(t, err)
	assertDecimal(t, "150.00", stored.ExpectedBalance)
	assertDecimal(t, "50.00", stored.TotalSales)
	assert.Equal(t, 1, stored.SalesCount)
	assertDecimal(t, "-50.00", stored.Drift)
	assert.Zero(t, stored.PendingOrders, "pending orders are not attributed to a closed session")
}

func TestCashSessionService_StateMachine(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.register.Close(testActor)
	assert.ErrorIs(t, err, ErrRegisterClosed, "cannot close a closed register")

	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSuprimento, Amount: dec("10")}, testActor)
	assert.ErrorIs(t, err, ErrRegisterClosed, "adjustments need an open register")

	_, err = e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("50")}, testActor)
	require.NoError(t, err)

	_, err = e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("70")}, testActor)
	assert.ErrorIs(t, err, ErrRegisterAlreadyOpen)

	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSuprimento, Amount: dec("0")}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation, "amount must be positive")

	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSangria, Amount: dec("0.001")}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation, "sub-cent amount rounds to zero")

	adj, err := e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSuprimento, Amount: dec("2.005")}, testActor)
	require.NoError(t, err)
	assertDecimal(t, "2.01", adj.Amount)

	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: "troco", Amount: dec("5")}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation)

	_, err = e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("-1")}, testActor)
	assert.ErrorIs(t, err, validator.ErrValidation)

	sessions, err := e.sessionRepo.FindAll(model.SessionOpen)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "exactly one open session")
}

func TestCashSessionService_CurrentSummary(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P10", "Arroz 5kg", "10.00", 20)

	_, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("30")}, testActor)
	require.NoError(t, err)

	for _, method := range []model.PaymentMethod{model.PaymentDinheiro, model.PaymentPix, model.PaymentPix} {
		_, err := e.sales.AddSale(&CreateSaleRequest{PaymentMethod: method, Items: items(p.ID, 1)}, testActor)
		require.NoError(t, err)
	}
	_, err = e.fiado.AddFiadoSale(&CreateFiadoSaleRequest{Customer: "Seu Zé", Items: items(p.ID, 5)}, testActor)
	require.NoError(t, err)
	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSuprimento, Amount: dec("15")}, testActor)
	require.NoError(t, err)

	summary, err := e.register.Current()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.SalesCount)
	assertDecimal(t, "10", summary.TotalsByMethod[model.PaymentDinheiro])
	assertDecimal(t, "20", summary.TotalsByMethod[model.PaymentPix])
	assertDecimal(t, "75", summary.ExpectedBalance)
	_, hasFiado := summary.TotalsByMethod[model.PaymentFiado]
	assert.False(t, hasFiado)
}

func TestCashSessionService_CloseWithPendingOrders(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P10", "Arroz 5kg", "10.00", 20)

	_, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("0")}, testActor)
	require.NoError(t, err)
	_, err = e.orders.AddOrder(&CreateOrderRequest{Customer: "Padaria Central", Items: items(p.ID, 2)}, testActor)
	require.NoError(t, err)

	summary, err := e.register.Close(testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.PendingOrders)
	assertDecimal(t, "0", summary.ExpectedBalance)
}

func TestCashSessionService_SalesBelongToTheirSession(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P10", "Arroz 5kg", "10.00", 20)

	_, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("0")}, testActor)
	require.NoError(t, err)
	_, err = e.sales.AddSale(&CreateSaleRequest{PaymentMethod: model.PaymentDinheiro, Items: items(p.ID, 3)}, testActor)
	require.NoError(t, err)
	_, err = e.register.Close(testActor)
	require.NoError(t, err)

	// Sold while closed: belongs to no session
	_, err = e.sales.AddSale(&CreateSaleRequest{PaymentMethod: model.PaymentDinheiro, Items: items(p.ID, 1)}, testActor)
	require.NoError(t, err)

	_, err = e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("5")}, testActor)
	require.NoError(t, err)
	summary, err := e.register.Close(testActor)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SalesCount)
	assertDecimal(t, "5", summary.ExpectedBalance)

	history, err := e.register.History()
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCashSessionService_DeleteSession(t *testing.T) {
	e := newTestEnv(t)
	p := e.seedProduct(t, "P10", "Arroz 5kg", "10.00", 20)

	open, err := e.register.Open(&OpenRegisterRequest{OpeningBalance: dec("10")}, testActor)
	require.NoError(t, err)
	sale, err := e.sales.AddSale(&CreateSaleRequest{PaymentMethod: model.PaymentDinheiro, Items: items(p.ID, 1)}, testActor)
	require.NoError(t, err)
	_, err = e.register.AddAdjustment(&AdjustmentRequest{Type: model.AdjustmentSuprimento, Amount: dec("1")}, testActor)
	require.NoError(t, err)

	assert.ErrorIs(t, e.register.DeleteSession(open.ID, testActor), ErrSessionStillOpen)

	_, err = e.register.Close(testActor)
	require.NoError(t, err)
	require.NoError(t, e.register.DeleteSession(open.ID, testActor))

	_, err = e.register.GetSession(open.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	adjustments, err := e.sessionRepo.FindAdjustments(open.ID)
	require.NoError(t, err)
	assert.Empty(t, adjustments)

	stored, err := e.sales.GetSale(sale.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SessionID, "sale kept but detached")

	assert.ErrorIs(t, e.register.DeleteSession(uuid.New(), testActor), ErrSessionNotFound)
}
