package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ChartKind string

const (
	ChartRevenue ChartKind = "revenue"
	ChartOrder   ChartKind = "order"
)

type Analytics struct {
	TotalOrders     int64   `json:"totalOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
	ActiveCustomers int64   `json:"activeCustomers"`
	ActiveSuppliers int64   `json:"activeSuppliers"`
}

type MonthPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type RegionSales struct {
	Region     string `json:"region"`
	Orders     int64  `json:"orders"`
	Percentage int    `json:"percentage"`
}

type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// revenueScope keeps orders whose money has been collected: paid online
// orders and delivered cash orders.
func revenueScope(db *gorm.DB) *gorm.DB {
	return db.Where("(payment_type = ? AND payment_status = ?) OR (payment_type = ? AND order_status = ?)",
		models.PaymentOnline, models.PaymentPaid, models.PaymentCOD, models.OrderDelivered)
}

// Analytics computes the headline figures concurrently.
func (s *DashboardService) Analytics(ctx context.Context) (*Analytics, error) {
	var out Analytics
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Order{}).Count(&out.TotalOrders).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Order{}).
			Scopes(revenueScope).
			Select("COALESCE(SUM(total_price), 0)").
			Scan(&out.TotalRevenue).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.User{}).
			Where("role = ? AND is_suspended = ?", models.RoleCustomer, false).
			Count(&out.ActiveCustomers).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.User{}).
			Where("role = ? AND is_suspended = ?", models.RoleSupplier, false).
			Count(&out.ActiveSuppliers).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard analytics: %w", err)
	}
	return &out, nil
}

// Charts returns twelve monthly points for year: collected revenue or the
// number of orders placed. A zero year means the current one.
func (s *DashboardService) Charts(ctx context.Context, kind ChartKind, year int) ([]MonthPoint, error) {
	if kind != ChartRevenue && kind != ChartOrder {
		return nil, apperror.BadRequest("Invalid chart type. Must be: revenue or order")
	}
	if year == 0 {
		year = s.now().Year()
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	q := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	if kind == ChartRevenue {
		q = q.Scopes(revenueScope)
	}
	var rows []struct {
		CreatedAt  time.Time
		TotalPrice float64
	}
	if err := q.Select("created_at", "total_price").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("chart data: %w", err)
	}

	var buckets [12]float64
	for _, r := range rows {
		m := r.CreatedAt.UTC().Month() - 1
		if kind == ChartRevenue {
			buckets[m] += r.TotalPrice
		} else {
			buckets[m]++
		}
	}
	points := make([]MonthPoint, 12)
	for i := range buckets {
		points[i] = MonthPoint{Month: time.Month(i + 1).String()[:3], Value: buckets[i]}
	}
	return points, nil
}

// RegionalSales counts orders per category region. Percentages are rounded
// up, so they may sum to slightly more than 100.
func (s *DashboardService) RegionalSales(ctx context.Context) ([]RegionSales, error) {
	var rows []RegionSales
	err := s.db.WithContext(ctx).Table("order_items").
		Select("categories.region AS region, COUNT(DISTINCT order_items.order_id) AS orders").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Group("categories.region").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("regional sales: %w", err)
	}

	var grand int64
	for _, r := range rows {
		grand += r.Orders
	}
	for i := range rows {
		if grand > 0 {
			rows[i].Percentage = int(math.Ceil(float64(rows[i].Orders) / float64(grand) * 100))
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Orders != rows[j].Orders {
			return rows[i].Orders > rows[j].Orders
		}
		return rows[i].Region < rows[j].Region
	})
	if rows == nil {
		rows = []RegionSales{}
	}
	return rows, nil
}
