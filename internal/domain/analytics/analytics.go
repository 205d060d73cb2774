// Package analytics aggregates store metrics for the admin dashboard.
// All computation is plain aggregation over fetched rows: sums, group-by
// counts, and percentage deltas against the previous period.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gkpcrackers/storefront/internal/domain/catalog"
	"github.com/gkpcrackers/storefront/internal/domain/order"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
)

// Period selects the reporting window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	return p == PeriodWeek || p == PeriodMonth || p == PeriodAll
}

// StatusCount is one group-by bucket of orders per status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TypeCount is one group-by bucket of customers per classification.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CategoryCount is one group-by bucket of products per category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayRevenue is revenue and order count for one calendar day.
type DayRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// Report is the full analytics payload for one period.
type Report struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalOrders     int             `json:"total_orders"`
	TotalCustomers  int             `json:"total_customers"`
	TotalProducts   int             `json:"total_products"`
	RevenueGrowth   decimal.Decimal `json:"revenue_growth"`
	OrderGrowth     decimal.Decimal `json:"order_growth"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	OrdersByStatus  []StatusCount   `json:"orders_by_status"`
	CustomersByType []TypeCount     `json:"customers_by_type"`
	RevenueByDay    []DayRevenue    `json:"revenue_by_day"`
	TopCategories   []CategoryCount `json:"top_categories"`
}

// Service computes reports from the order, profile, and catalog stores.
type Service struct {
	orders   order.Repository
	profiles profile.Repository
	products catalog.Repository
	now      func() time.Time
}

// NewService creates an analytics Service.
func NewService(orders order.Repository, profiles profile.Repository, products catalog.Repository) *Service {
	return &Service{
		orders:   orders,
		profiles: profiles,
		products: products,
		now:      time.Now,
	}
}

// Report builds the analytics report for the given period. Growth figures
// compare against the immediately preceding window of the same length and
// are zero when the previous window is empty.
func (s *Service) Report(ctx context.Context, period Period) (*Report, error) {
	now := s.now()
	start, prevStart, prevEnd := periodBounds(period, now)

	allOrders, err := s.orders.List(ctx, order.ListFilter{})
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, catalog.ProductFilter{})
	if err != nil {
		return nil, err
	}

	var current, previous []order.Order
	for _, o := range allOrders {
		if !o.CreatedAt.Before(start) {
			current = append(current, o)
		} else if period != PeriodAll && !o.CreatedAt.Before(prevStart) && !o.CreatedAt.After(prevEnd) {
			previous = append(previous, o)
		}
	}

	r := &Report{
		TotalOrders:    len(current),
		TotalCustomers: len(profiles),
		TotalProducts:  len(products),
		TotalRevenue:   revenue(current),
	}

	prevRevenue := revenue(previous)
	r.RevenueGrowth = growth(r.TotalRevenue, prevRevenue)
	r.OrderGrowth = growth(decimal.NewFromInt(int64(len(current))), decimal.NewFromInt(int64(len(previous))))
	if len(current) > 0 {
		r.AvgOrderValue = r.TotalRevenue.Div(decimal.NewFromInt(int64(len(current)))).Round(2)
	} else {
		r.AvgOrderValue = decimal.Zero
	}

	r.OrdersByStatus = ordersByStatus(current)
	r.CustomersByType = customersByType(profiles)
	r.RevenueByDay = revenueByDay(current, now)
	r.TopCategories = topCategories(products, 5)

	return r, nil
}

// periodBounds returns the current window start and the previous window
// bounds for growth comparison.
func periodBounds(period Period, now time.Time) (start, prevStart, prevEnd time.Time) {
	switch period {
	case PeriodWeek:
		start = startOfWeek(now)
		prevStart = start.AddDate(0, 0, -7)
		prevEnd = start.Add(-time.Nanosecond)
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prevStart = start.AddDate(0, -1, 0)
		prevEnd = start.Add(-time.Nanosecond)
	default:
		start = time.Time{}
	}
	return start, prevStart, prevEnd
}

// startOfWeek returns midnight of the most recent Sunday.
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func revenue(orders []order.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.FinalAmount)
	}
	return sum
}

// growth returns the percentage delta of current vs previous, zero when
// the previous window had nothing to compare against.
func growth(current, previous decimal.Decimal) decimal.Decimal {
	if !previous.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

func ordersByStatus(orders []order.Order) []StatusCount {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

func customersByType(profiles []profile.Profile) []TypeCount {
	counts := make(map[string]int)
	for _, p := range profiles {
		counts[string(p.Classification)]++
	}
	out := make([]TypeCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// revenueByDay buckets the trailing seven calendar days, oldest first.
// Calendar days follow now's location; order timestamps are converted
// before bucketing so UTC rows land on the right local day.
func revenueByDay(orders []order.Order, now time.Time) []DayRevenue {
	out := make([]DayRevenue, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		dayStr := day.Format("2006-01-02")
		bucket := DayRevenue{Date: dayStr, Revenue: decimal.Zero}
		for _, o := range orders {
			if o.CreatedAt.In(now.Location()).Format("2006-01-02") == dayStr {
				bucket.Revenue = bucket.Revenue.Add(o.FinalAmount)
				bucket.Orders++
			}
		}
		out = append(out, bucket)
	}
	return out
}

func topCategories(products []catalog.Product, limit int) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range products {
		if p.CategoryName != "" {
			counts[p.CategoryName]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
