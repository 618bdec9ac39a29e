package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bakery/internal/errors"
	"bakery/internal/model"
	"bakery/internal/repository"
)

const dateLayout = "2006-01-02"

// DailySales is the revenue of one calendar day.
type DailySales struct {
	Date   string          `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

// DailySalesReport covers consecutive days, oldest first.
type DailySalesReport struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Days   []DailySales    `json:"days"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

// MonthlySales is the revenue of one calendar month.
type MonthlySales struct {
	Month  int             `json:"month"`
	Name   string          `json:"name"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

// MonthlySalesReport covers January through June of Year.
type MonthlySalesReport struct {
	Year   int             `json:"year"`
	Months []MonthlySales  `json:"months"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

// Summary is the dashboard overview.
type Summary struct {
	TotalOrders  int64           `json:"total_orders"`
	MonthOrders  int             `json:"month_orders"`
	MonthRevenue decimal.Decimal `json:"month_revenue"`
}

// ReportService aggregates sales from the order ledger. Calendar boundaries
// are computed in the shop's time zone.
type ReportService interface {
	SalesLastNDays(ctx context.Context, n int) (*DailySalesReport, error)
	// SalesFirstHalfOfYear reports January through June. Year 0 means the current year.
	SalesFirstHalfOfYear(ctx context.Context, year int) (*MonthlySalesReport, error)
	GeneralSummary(ctx context.Context) (*Summary, error)
}

type reportService struct {
	orders repository.OrderRepository
	loc    *time.Location
	now    func() time.Time
}

// NewReportService creates a report service for the given shop time zone.
func NewReportService(orders repository.OrderRepository, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		orders: orders,
		loc:    loc,
		now:    time.Now,
	}
}

func (s *reportService) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *reportService) SalesLastNDays(ctx context.Context, n int) (*DailySalesReport, error) {
	if n < 1 {
		return nil, errors.Invalid("days", "must be at least 1")
	}

	today := s.today()
	from := today.AddDate(0, 0, -(n - 1))
	to := today.AddDate(0, 0, 1)

	orders, err := s.orders.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	report := &DailySalesReport{
		From:  from.Format(dateLayout),
		To:    today.Format(dateLayout),
		Days:  make([]DailySales, n),
		Total: decimal.Zero,
	}
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		day := from.AddDate(0, 0, i).Format(dateLayout)
		report.Days[i] = DailySales{Date: day, Total: decimal.Zero}
		index[day] = i
	}

	for _, o := range orders {
		i, ok := index[o.CreatedAt.In(s.loc).Format(dateLayout)]
		if !ok {
			continue
		}
		report.Days[i].Total = report.Days[i].Total.Add(o.Total)
		report.Days[i].Orders++
		report.Total = report.Total.Add(o.Total)
		report.Orders++
	}
	return report, nil
}

func (s *reportService) SalesFirstHalfOfYear(ctx context.Context, year int) (*MonthlySalesReport, error) {
	if year == 0 {
		year = s.today().Year()
	}
	if year < 1 {
		return nil, errors.Invalid("year", "must be a positive year")
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	to := time.Date(year, time.July, 1, 0, 0, 0, 0, s.loc)

	orders, err := s.orders.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	report := &MonthlySalesReport{
		Year:   year,
		Months: make([]MonthlySales, 6),
		Total:  decimal.Zero,
	}
	for i := range report.Months {
		month := time.Month(i + 1)
		report.Months[i] = MonthlySales{Month: int(month), Name: month.String(), Total: decimal.Zero}
	}

	for _, o := range orders {
		local := o.CreatedAt.In(s.loc)
		if local.Year() != year || local.Month() > time.June {
			continue
		}
		m := &report.Months[local.Month()-1]
		m.Total = m.Total.Add(o.Total)
		m.Orders++
		report.Total = report.Total.Add(o.Total)
		report.Orders++
	}
	return report, nil
}

func (s *reportService) GeneralSummary(ctx context.Context) (*Summary, error) {
	total, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.loc)
	monthOrders, err := s.orders.ListBetween(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("load month orders: %w", err)
	}

	return &Summary{
		TotalOrders:  total,
		MonthOrders:  len(monthOrders),
		MonthRevenue: sumTotals(monthOrders),
	}, nil
}

func sumTotals(orders []model.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.Total)
	}
	return sum
}
