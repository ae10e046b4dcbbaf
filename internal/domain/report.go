package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/restaurantia/api/internal/enum"
	"github.com/shopspring/decimal"
)

var ErrInvalidReportRange = errors.New("invalid report range")

// ProductCount is how many units of a product were sold.
type ProductCount struct {
	Name  string `json:"nombre"`
	Count int    `json:"cantidad"`
}

// Summary aggregates a set of orders.
type Summary struct {
	TotalSales  decimal.Decimal `json:"ventas_totales"`
	OrderCount  int             `json:"pedidos_totales"`
	ItemCount   int             `json:"productos_vendidos"`
	TopProducts []ProductCount  `json:"productos_mas_vendidos"`
}

// Summarize totals sales, orders and items and keeps the topN best sellers.
func Summarize(orders []Order, topN int) Summary {
	s := Summary{TotalSales: decimal.Zero, OrderCount: len(orders)}
	for _, o := range orders {
		for _, it := range o.Items {
			s.TotalSales = s.TotalSales.Add(it.Subtotal())
			s.ItemCount += it.Units()
		}
	}
	s.TopProducts = truncate(RankProducts(orders), topN)
	return s
}

// RankProducts counts units per product name, most sold first. Ties are
// broken by name so the ranking is deterministic.
func RankProducts(orders []Order) []ProductCount {
	counts := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			counts[it.Name] += it.Units()
		}
	}
	ranked := make([]ProductCount, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, ProductCount{Name: name, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// LeastSold returns the n products with the fewest units sold, fewest first.
func LeastSold(orders []Order, n int) []ProductCount {
	ranked := RankProducts(orders)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count < ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	return truncate(ranked, n)
}

func truncate(pc []ProductCount, n int) []ProductCount {
	if n > 0 && len(pc) > n {
		return pc[:n]
	}
	return pc
}

// ReportRange resolves a report period to a half-open [start, end) interval
// of whole days ending on the day of now.
func ReportRange(kind string, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, 1)
	switch kind {
	case enum.ReportDaily, "":
		return today, end, nil
	case enum.ReportWeekly:
		return today.AddDate(0, 0, -6), end, nil
	case enum.ReportMonthly:
		return today.AddDate(0, 0, -29), end, nil
	}
	return time.Time{}, time.Time{}, ErrInvalidReportRange
}
