/**
 * @description
 * Wire types for the RPT-1 forecasting provider.
 *
 * @dependencies
 * - (none beyond encoding/json tags)
 */

package rpt

// PredictSentinel marks a request row whose quantity the provider must fill
// in. A string literal can never collide with a legitimate integer quantity.
const PredictSentinel = "[PREDICT]"

// IndexColumn is the field name declared to the provider as the unique row
// identifier within a request payload.
const IndexColumn = "key"

// RequestRow is one labeled month in the outbound payload. SalesQty holds an
// int for historical rows and PredictSentinel for future rows.
type RequestRow struct {
	Key      string      `json:"key"`
	Product  string      `json:"product"`
	Date     string      `json:"date"`
	SalesQty interface{} `json:"sales_qty"`
}

// Payload is the request body POSTed to the provider.
type Payload struct {
	Rows        []RequestRow `json:"rows"`
	IndexColumn string       `json:"index_column"`
}

// RowMeta is the per-key metadata remembered at request-build time so the
// original product label can be reconstructed when the provider echoes only
// composite keys back.
type RowMeta struct {
	Product string
}

// KeyMeta is the side index from request key to its originating metadata.
type KeyMeta map[string]RowMeta
