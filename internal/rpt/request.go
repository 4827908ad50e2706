/**
 * @description
 * Forecast request construction.
 * Turns a monthly aggregation plus a future horizon into the flat row list the
 * RPT-1 provider expects, under a stable collision-free key scheme.
 *
 * @dependencies
 * - backend/internal/forecast
 * - standard "math"
 */

package rpt

import (
	"fmt"
	"math"

	"github.com/salesight/backend/internal/forecast"
)

// BuildRequest emits one row per historical month (rounded known quantity)
// followed by one row per future month (PredictSentinel quantity). Keys follow
// the `{productToken}_{monthKey}` scheme; an empty token becomes the literal
// "ALL" so key-based reconstruction stays consistent with the request.
// displayProduct is the original, non-uppercased label carried in each row.
func BuildRequest(displayProduct, productToken string, agg forecast.Aggregation, futureMonths []string) (Payload, KeyMeta) {
	token := productToken
	if token == "" {
		token = "ALL"
	}

	rows := make([]RequestRow, 0, len(agg.Months)+len(futureMonths))
	for _, m := range agg.Months {
		rows = append(rows, RequestRow{
			Key:      fmt.Sprintf("%s_%s", token, m),
			Product:  displayProduct,
			Date:     m,
			SalesQty: int(math.Round(agg.ByMonth[m].Quantity)),
		})
	}
	for _, m := range futureMonths {
		rows = append(rows, RequestRow{
			Key:      fmt.Sprintf("%s_%s", token, m),
			Product:  displayProduct,
			Date:     m,
			SalesQty: PredictSentinel,
		})
	}

	meta := make(KeyMeta, len(rows))
	for _, r := range rows {
		meta[r.Key] = RowMeta{Product: r.Product}
	}

	return Payload{Rows: rows, IndexColumn: IndexColumn}, meta
}
