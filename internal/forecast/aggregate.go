/**
 * @description
 * Monthly aggregation of transaction-level sales history.
 * Collapses raw rows into one (quantity, revenue) tuple per canonical month and
 * derives the average unit price used later for revenue estimates.
 *
 * @dependencies
 * - backend/internal/calendar
 * - backend/internal/models
 */

package forecast

import (
	"sort"
	"strings"

	"github.com/salesight/backend/internal/calendar"
	"github.com/salesight/backend/internal/models"
)

// MonthAggregate is the total activity observed in one calendar month.
type MonthAggregate struct {
	Quantity float64
	Revenue  float64
}

// Aggregation is the result of collapsing a history set by month.
// Months holds the aggregate keys sorted ascending; it defines the historical
// timeline the forecast request is built from.
type Aggregation struct {
	ByMonth       map[string]MonthAggregate
	Months        []string
	TotalQuantity float64
	TotalRevenue  float64
	AveragePrice  float64
}

// Aggregate reduces history rows into per-month totals. Quantities and revenues
// for rows falling in the same month are summed. Rows whose date cannot be
// resolved to a month are skipped rather than failing the run.
func Aggregate(history []models.SalesHistory) Aggregation {
	byMonth := make(map[string]MonthAggregate)
	for _, h := range history {
		month, ok := calendar.MonthKey(h.Date.Format("2006-01-02"))
		if !ok {
			continue
		}
		agg := byMonth[month]
		agg.Quantity += float64(h.Quantity)
		agg.Revenue += h.Amount
		byMonth[month] = agg
	}

	months := make([]string, 0, len(byMonth))
	var totalQty, totalRevenue float64
	for m, v := range byMonth {
		months = append(months, m)
		totalQty += v.Quantity
		totalRevenue += v.Revenue
	}
	sort.Strings(months)

	// Average revenue per unit across the whole history; used to estimate
	// predicted revenue. Degrades to zero when no units were sold.
	avgPrice := 0.0
	if totalQty > 0 {
		avgPrice = totalRevenue / totalQty
	}

	return Aggregation{
		ByMonth:       byMonth,
		Months:        months,
		TotalQuantity: totalQty,
		TotalRevenue:  totalRevenue,
		AveragePrice:  avgPrice,
	}
}

// FilterByProduct returns the rows whose product matches token, compared
// case-insensitively. An empty token matches everything.
func FilterByProduct(history []models.SalesHistory, token string) []models.SalesHistory {
	if token == "" {
		return history
	}
	out := make([]models.SalesHistory, 0, len(history))
	for _, h := range history {
		if strings.ToUpper(strings.TrimSpace(h.Product)) == token {
			out = append(out, h)
		}
	}
	return out
}

// SampleProducts returns up to limit distinct product names observed in the
// history set, in first-seen order. Used to build helpful not-found errors.
func SampleProducts(history []models.SalesHistory, limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, h := range history {
		if h.Product == "" || seen[h.Product] {
			continue
		}
		seen[h.Product] = true
		out = append(out, h.Product)
		if len(out) >= limit {
			break
		}
	}
	return out
}
