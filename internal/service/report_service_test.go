package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/internal/model"
)

func newReportFixture(t *testing.T, now time.Time) (*fixture, *reportService, *model.User) {
	t.Helper()
	f := newFixture(t)
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	svc := NewReportService(f.repos.Orders, loc).(*reportService)
	svc.now = func() time.Time { return now }
	return f, svc, f.user(t, "client@example.com", model.RoleClient)
}

func (f *fixture) orderAt(t *testing.T, user *model.User, at time.Time, total int64) {
	t.Helper()
	order := &model.Order{
		UserID:    user.ID,
		Total:     decimal.NewFromInt(total),
		Status:    model.OrderStatusCompleted,
		CreatedAt: at.UTC(),
	}
	require.NoError(t, f.repos.Orders.Create(context.Background(), order))
}

func TestReportService_SalesLastNDaysZeroFills(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	_, svc, _ := newReportFixture(t, now)

	report, err := svc.SalesLastNDays(context.Background(), 15)
	require.NoError(t, err)
	require.Len(t, report.Days, 15)
	assert.Equal(t, "2026-10-03", report.Days[0].Date)
	assert.Equal(t, "2026-10-17", report.Days[14].Date)
	for _, d := range report.Days {
		assert.True(t, d.Total.IsZero())
		assert.Zero(t, d.Orders)
	}
	assert.True(t, report.Total.IsZero())
}

func TestReportService_SalesLastNDaysGroupsByLocalDay(t *testing.T) {
	// 12:00 UTC is 09:00 in Santiago (UTC-3 in October).
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	f, svc, user := newReportFixture(t, now)

	f.orderAt(t, user, now.Add(-time.Hour), 1000)
	// 23:00 on the 16th, local time
	f.orderAt(t, user, time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC), 500)
	f.orderAt(t, user, now.AddDate(0, 0, -3), 700)
	// outside the window
	f.orderAt(t, user, now.AddDate(0, 0, -30), 9999)

	report, err := svc.SalesLastNDays(context.Background(), 15)
	require.NoError(t, err)

	byDate := map[string]DailySales{}
	for _, d := range report.Days {
		byDate[d.Date] = d
	}
	assert.True(t, decimal.NewFromInt(1000).Equal(byDate["2026-10-17"].Total))
	assert.True(t, decimal.NewFromInt(500).Equal(byDate["2026-10-16"].Total))
	assert.True(t, decimal.NewFromInt(700).Equal(byDate["2026-10-14"].Total))
	assert.Equal(t, 3, report.Orders)
	assert.True(t, decimal.NewFromInt(2200).Equal(report.Total))
}

func TestReportService_SalesLastNDaysRejectsNonPositive(t *testing.T) {
	_, svc, _ := newReportFixture(t, time.Now())
	_, err := svc.SalesLastNDays(context.Background(), 0)
	assert.Error(t, err)
}

func TestReportService_SalesFirstHalfOfYear(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	f, svc, user := newReportFixture(t, now)

	f.orderAt(t, user, time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC), 100)
	f.orderAt(t, user, time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC), 200)
	f.orderAt(t, user, time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC), 300)
	f.orderAt(t, user, time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC), 5000)
	f.orderAt(t, user, time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC), 5000)

	report, err := svc.SalesFirstHalfOfYear(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, report.Months, 6)
	assert.Equal(t, "January", report.Months[0].Name)
	assert.True(t, decimal.NewFromInt(300).Equal(report.Months[0].Total))
	assert.Equal(t, 2, report.Months[0].Orders)
	assert.True(t, report.Months[1].Total.IsZero())
	assert.True(t, decimal.NewFromInt(300).Equal(report.Months[2].Total))
	assert.True(t, report.Months[5].Total.IsZero())
	assert.Equal(t, 3, report.Orders)
	assert.True(t, decimal.NewFromInt(600).Equal(report.Total))
}

func TestReportService_GeneralSummary(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	f, svc, user := newReportFixture(t, now)

	summary, err := svc.GeneralSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalOrders)
	assert.True(t, summary.MonthRevenue.IsZero())

	f.orderAt(t, user, time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC), 1500)
	f.orderAt(t, user, time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC), 2500)
	f.orderAt(t, user, time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC), 9000)

	summary, err = svc.GeneralSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalOrders)
	assert.Equal(t, 2, summary.MonthOrders)
	assert.True(t, decimal.NewFromInt(4000).Equal(summary.MonthRevenue))
}

func TestReportService_FirstHalfDefaultsToCurrentYear(t *testing.T) {
	// Still 2025 in Santiago.
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	_, svc, _ := newReportFixture(t, now)

	report, err := svc.SalesFirstHalfOfYear(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, report.Year)
}
