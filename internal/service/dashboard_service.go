package service

import (
	"sort"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardService interface {
	GetStockMovement(days int) ([]repository.StockMovementData, error)
	GetDashboardStats() (*DashboardStats, error)
	GetSalesSummary(from, to time.Time) (*SalesSummary, error)
}

type DashboardStats struct {
	ProductCount     int                     `json:"product_count"`
	LowStockCount    int                     `json:"low_stock_count"`
	LowStock         []model.ProductResponse `json:"low_stock"`
	StockValueCost   decimal.Decimal         `json:"stock_value_cost"`
	StockValuePrice  decimal.Decimal         `json:"stock_value_price"`
	SalesTodayCount  int                     `json:"sales_today_count"`
	SalesTodayAmount decimal.Decimal         `json:"sales_today_amount"`
	FiadoOutstanding decimal.Decimal         `json:"fiado_outstanding"`
	PendingOrders    int64                   `json:"pending_orders"`
	RegisterOpen     bool                    `json:"register_open"`
}

type SalesSummary struct {
	From        time.Time                               `json:"from"`
	To          time.Time                               `json:"to"`
	SalesCount  int                                     `json:"sales_count"`
	Revenue     decimal.Decimal                         `json:"revenue"`
	Cost        decimal.Decimal                         `json:"cost"`
	GrossProfit decimal.Decimal                         `json:"gross_profit"`
	ByDay       []DailySales                            `json:"by_day"`
	ByMethod    map[model.PaymentMethod]decimal.Decimal `json:"by_method"`
	TopProducts []ProductSales                          `json:"top_products"`
}

type DailySales struct {
	Date   string          `json:"date"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type ProductSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

const topProductsLimit = 10

type dashboardService struct {
	productRepo       repository.ProductRepository
	movementRepo      repository.StockMovementRepository
	saleRepo          repository.SaleRepository
	orderRepo         repository.OrderRepository
	fiadoRepo         repository.FiadoRepository
	sessionRepo       repository.CashSessionRepository
	lowStockThreshold int
}

func NewDashboardService(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	saleRepo repository.SaleRepository,
	orderRepo repository.OrderRepository,
	fiadoRepo repository.FiadoRepository,
	sessionRepo repository.CashSessionRepository,
	lowStockThreshold int,
) DashboardService {
	return &dashboardService{
		productRepo:       productRepo,
		movementRepo:      movementRepo,
		saleRepo:          saleRepo,
		orderRepo:         orderRepo,
		fiadoRepo:         fiadoRepo,
		sessionRepo:       sessionRepo,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.movementRepo.GetStockMovement(startDate, endDate)
}

func (s *dashboardService) GetDashboardStats() (*DashboardStats, error) {
	products, err := s.productRepo.FindAll(repository.ProductFilter{})
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		ProductCount:     len(products),
		LowStock:         []model.ProductResponse{},
		StockValueCost:   decimal.Zero,
		StockValuePrice:  decimal.Zero,
		SalesTodayAmount: decimal.Zero,
	}
	for i := range products {
		p := &products[i]
		packs := decimal.NewFromInt(int64(p.Stock))
		stats.StockValueCost = stats.StockValueCost.Add(p.Cost.Mul(packs))
		stats.StockValuePrice = stats.StockValuePrice.Add(p.PackPrice.Mul(packs))
		if p.Available() < s.lowStockThreshold {
			stats.LowStock = append(stats.LowStock, p.ToResponse())
		}
	}
	stats.LowStockCount = len(stats.LowStock)

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sales, err := s.saleRepo.FindAll(repository.SaleFilter{From: &startOfDay})
	if err != nil {
		return nil, err
	}
	for i := range sales {
		if sales[i].Status == model.SaleCancelada {
			continue
		}
		stats.SalesTodayCount++
		stats.SalesTodayAmount = stats.SalesTodayAmount.Add(sales[i].Amount)
	}

	if stats.FiadoOutstanding, err = s.fiadoRepo.TotalOutstanding(); err != nil {
		return nil, err
	}
	if stats.PendingOrders, err = s.orderRepo.CountByStatus(model.OrderPendente); err != nil {
		return nil, err
	}
	state, err := s.sessionRepo.ShareState()
	if err != nil {
		return nil, err
	}
	stats.RegisterOpen = state.OpenSessionID != nil

	return stats, nil
}

func (s *dashboardService) GetSalesSummary(from, to time.Time) (*SalesSummary, error) {
	sales, err := s.saleRepo.FindAll(repository.SaleFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	summary := summarizeSales(sales)
	summary.From = from
	summary.To = to
	return summary, nil
}

// summarizeSales aggregates non-cancelled sales by day, payment method and product
func summarizeSales(sales []model.Sale) *SalesSummary {
	summary := &SalesSummary{
		Revenue:     decimal.Zero,
		Cost:        decimal.Zero,
		ByDay:       []DailySales{},
		ByMethod:    make(map[model.PaymentMethod]decimal.Decimal),
		TopProducts: []ProductSales{},
	}

	days := make(map[string]*DailySales)
	products := make(map[uuid.UUID]*ProductSales)
	for i := range sales {
		sale := &sales[i]
		if sale.Status == model.SaleCancelada {
			continue
		}
		summary.SalesCount++
		summary.Revenue = summary.Revenue.Add(sale.Amount)
		summary.ByMethod[sale.PaymentMethod] = summary.ByMethod[sale.PaymentMethod].Add(sale.Amount)

		key := sale.Date.Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			day = &DailySales{Date: key, Amount: decimal.Zero}
			days[key] = day
		}
		day.Count++
		day.Amount = day.Amount.Add(sale.Amount)

		for _, item := range sale.Items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			summary.Cost = summary.Cost.Add(item.Cost.Mul(qty))

			ps, ok := products[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID, Name: item.Name, Amount: decimal.Zero}
				products[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
			ps.Amount = ps.Amount.Add(item.Subtotal())
		}
	}
	summary.GrossProfit = summary.Revenue.Sub(summary.Cost)

	for _, day := range days {
		summary.ByDay = append(summary.ByDay, *day)
	}
	sort.Slice(summary.ByDay, func(i, j int) bool {
		return summary.ByDay[i].Date < summary.ByDay[j].Date
	})

	for _, ps := range products {
		summary.TopProducts = append(summary.TopProducts, *ps)
	}
	sort.Slice(summary.TopProducts, func(i, j int) bool {
		a, b := summary.TopProducts[i], summary.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(summary.TopProducts) > topProductsLimit {
		summary.TopProducts = summary.TopProducts[:topProductsLimit]
	}
	return summary
}
