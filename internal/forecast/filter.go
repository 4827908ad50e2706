/**
 * @description
 * Filtering of normalized provider candidates down to the requested horizon.
 * Keeps only candidates landing in a requested future month, derives integer
 * quantities and estimated revenue, and shapes the rows for persistence.
 *
 * @dependencies
 * - backend/internal/models
 * - standard "math"
 */

package forecast

import (
	"math"
	"strings"

	"github.com/salesight/backend/internal/models"
)

// Candidate is one loosely-typed prediction extracted from the provider
// response. The quantity may arrive under any of three field names; the first
// present wins (PredictedSales, then Prediction, then SalesQty). Nil pointers
// mean the field was absent from the source document.
type Candidate struct {
	Date           string
	Product        string
	Region         string
	PredictedSales *float64
	Prediction     *float64
	SalesQty       *float64
	Confidence     *float64
}

// quantity picks the candidate's quantity by field priority.
func (c Candidate) quantity() (float64, bool) {
	for _, v := range []*float64{c.PredictedSales, c.Prediction, c.SalesQty} {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// Filter retains candidates whose month falls within futureMonths, discards
// numerically invalid rows, and attaches revenue derived from avgPrice.
// Comparison happens at year-month granularity to avoid timezone or
// day-boundary drift. Candidates without a product fall back to
// fallbackProduct, then to "UNKNOWN". The returned records carry no ID,
// model, or timestamp; the persistence gate assigns those.
func Filter(candidates []Candidate, futureMonths []string, avgPrice float64, fallbackProduct string) []models.SalesForecast {
	futureSet := make(map[string]bool, len(futureMonths))
	for _, m := range futureMonths {
		if len(m) >= 7 {
			futureSet[m[:7]] = true
		}
	}

	out := make([]models.SalesForecast, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Date) < 7 || !futureSet[c.Date[:7]] {
			continue
		}

		raw, ok := c.quantity()
		if !ok || math.IsNaN(raw) || math.IsInf(raw, 0) {
			continue
		}
		qty := int(math.Round(raw))

		conf := 0.0
		if c.Confidence != nil {
			conf = *c.Confidence
		}

		product := c.Product
		if product == "" {
			product = fallbackProduct
		}
		if product == "" {
			product = "UNKNOWN"
		}

		out = append(out, models.SalesForecast{
			Period:            c.Date[:7],
			Product:           strings.ToUpper(product),
			Region:            strings.ToUpper(c.Region),
			PredictedQuantity: qty,
			PredictedRevenue:  math.Round(float64(qty)*avgPrice*100) / 100,
			Confidence:        conf,
		})
	}
	return out
}
