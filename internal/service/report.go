package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
)

const (
	dateLayout       = "2006-01-02"
	topProductsLimit = 10
)

var ErrInvalidDate = errors.New("dates must use YYYY-MM-DD")

// ReportStore defines the DB methods needed by the reports.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	ListPedidosForReport(ctx context.Context, arg database.ListPedidosForReportParams) ([]database.Pedido, error)
}

// ReportRequest selects the period of a sales report. Explicit dates win over Kind.
type ReportRequest struct {
	Kind      string
	StartDate string
	EndDate   string
}

// ProductAnalysis lists the best and worst sellers of a period.
type ProductAnalysis struct {
	MostSold  []domain.ProductCount `json:"productos_mas_vendidos"`
	LeastSold []domain.ProductCount `json:"productos_menos_vendidos"`
}

// ReportService aggregates sales over finished orders.
type ReportService struct {
	store ReportStore
	now   func() time.Time
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// salesStatuses are the orders that count as sold in the sales report.
var salesStatuses = []string{
	enum.OrderStatusReady,
	enum.OrderStatusDelivered,
	enum.OrderStatusPaid,
}

// analysisStatuses are the orders that count in the product analysis.
var analysisStatuses = []string{
	enum.OrderStatusDelivered,
	enum.OrderStatusPaid,
}

// Sales summarizes orders in [start, end). When both dates are omitted the
// period is derived from Kind, ending today.
func (s *ReportService) Sales(ctx context.Context, req ReportRequest) (*domain.Summary, error) {
	var start, end pgtype.Timestamptz
	if req.StartDate == "" && req.EndDate == "" {
		if req.Kind == enum.ReportCustom {
			return nil, fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidReportRange)
		}
		from, to, err := domain.ReportRange(req.Kind, s.now())
		if err != nil {
			return nil, err
		}
		start = pgtype.Timestamptz{Time: from, Valid: true}
		end = pgtype.Timestamptz{Time: to, Valid: true}
	} else {
		switch req.Kind {
		case "", enum.ReportDaily, enum.ReportWeekly, enum.ReportMonthly, enum.ReportCustom:
		default:
			return nil, domain.ErrInvalidReportRange
		}
		var err error
		if start, end, err = parseRange(req.StartDate, req.EndDate); err != nil {
			return nil, err
		}
	}

	orders, err := s.list(ctx, salesStatuses, start, end)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(orders, topProductsLimit)
	return &summary, nil
}

// Products ranks products sold in the optional [start, end) range.
func (s *ReportService) Products(ctx context.Context, startDate, endDate string) (*ProductAnalysis, error) {
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	orders, err := s.list(ctx, analysisStatuses, start, end)
	if err != nil {
		return nil, err
	}
	return &ProductAnalysis{
		MostSold:  domain.Summarize(orders, topProductsLimit).TopProducts,
		LeastSold: domain.LeastSold(orders, topProductsLimit),
	}, nil
}

func (s *ReportService) list(ctx context.Context, estados []string, start, end pgtype.Timestamptz) ([]domain.Order, error) {
	rows, err := s.store.ListPedidosForReport(ctx, database.ListPedidosForReportParams{
		Estados:   estados,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders for report: %w", err)
	}
	return OrdersFromRows(rows)
}

// parseRange parses optional YYYY-MM-DD bounds; an empty bound is open.
func parseRange(startDate, endDate string) (pgtype.Timestamptz, pgtype.Timestamptz, error) {
	var start, end pgtype.Timestamptz
	if startDate != "" {
		t, err := time.ParseInLocation(dateLayout, startDate, time.Local)
		if err != nil {
			return start, end, ErrInvalidDate
		}
		start = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if endDate != "" {
		t, err := time.ParseInLocation(dateLayout, endDate, time.Local)
		if err != nil {
			return start, end, ErrInvalidDate
		}
		end = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if start.Valid && end.Valid && !end.Time.After(start.Time) {
		return start, end, fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidReportRange)
	}
	return start, end, nil
}
