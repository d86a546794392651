package service

import (
	"testing"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testActor = Actor{
	ID:    uuid.NewString(),
	Name:  "Maria Souza",
	Email: "maria@mercadinho.com.br",
}

type testEnv struct {
	db *gorm.DB

	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	saleRepo     repository.SaleRepository
	orderRepo    repository.OrderRepository
	sessionRepo  repository.CashSessionRepository
	fiadoRepo    repository.FiadoRepository
	counterRepo  repository.CounterRepository
	userRepo     repository.UserRepository

	ledger    StockLedger
	sales     SalesService
	register  CashSessionService
	fiado     FiadoService
	orders    OrderService
	inventory InventoryService
	dashboard DashboardService
}

// setupTestDB opens a private in-memory SQLite database. A single connection
// keeps every statement on the same memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.Models()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	hub := ws.NewHub(nil)
	log := zap.NewNop()

	e := &testEnv{
		db:           db,
		productRepo:  repository.NewProductRepo(db),
		movementRepo: repository.NewStockMovementRepo(db),
		saleRepo:     repository.NewSaleRepo(db),
		orderRepo:    repository.NewOrderRepo(db),
		sessionRepo:  repository.NewCashSessionRepo(db),
		fiadoRepo:    repository.NewFiadoRepo(db),
		counterRepo:  repository.NewCounterRepo(db),
		userRepo:     repository.NewUserRepo(db),
	}
	e.ledger = NewStockLedger(e.productRepo, e.movementRepo)
	e.sales = NewSalesService(db, e.ledger, e.saleRepo, e.counterRepo, e.sessionRepo, hub, log)
	e.register = NewCashSessionService(db, e.sessionRepo, e.saleRepo, e.orderRepo, hub, log)
	e.fiado = NewFiadoService(db, e.ledger, e.fiadoRepo, e.saleRepo, e.counterRepo, e.sessionRepo, hub, log)
	e.orders = NewOrderService(db, e.ledger, e.orderRepo, e.saleRepo, e.counterRepo, e.sessionRepo, hub, log)
	e.inventory = NewInventoryService(db, e.productRepo, e.movementRepo, e.ledger, hub, log)
	e.dashboard = NewDashboardService(e.productRepo, e.movementRepo, e.saleRepo, e.orderRepo, e.fiadoRepo, e.sessionRepo, 5)
	return e
}

// seedProduct inserts a product directly, bypassing the ledger.
func (e *testEnv) seedProduct(t *testing.T, code, name, packPrice string, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		Code:          code,
		Name:          name,
		Category:      "Bebidas",
		UnitOfMeasure: "fardo",
		UnitsPerPack:  6,
		Cost:          dec(packPrice).Mul(dec("0.6")).Round(2),
		PackPrice:     dec(packPrice),
		Stock:         stock,
	}
	require.NoError(t, e.productRepo.Create(p))
	return p
}

func (e *testEnv) product(t *testing.T, id uuid.UUID) *model.Product {
	t.Helper()
	p, err := e.productRepo.FindByID(id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) movementCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.StockMovement{}).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func items(pairs ...interface{}) []StockItem {
	out := make([]StockItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, StockItem{ProductID: pairs[i].(uuid.UUID), Quantity: pairs[i+1].(int)})
	}
	return out
}
