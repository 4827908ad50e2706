/**
 * @description
 * Response normalization for the RPT-1 provider.
 * The provider is not contract-stable: predictions may arrive in any of five
 * payload shapes. Each shape is a distinct matcher tried in a fixed priority
 * order; the first structural match wins and shapes are never merged.
 *
 * Priority:
 *   1. top-level "value" list          (OData-like)
 *   2. top-level "rows" list
 *   3. top-level "predictions" list    (nested prediction lifted one level)
 *   4. nested "prediction.rows" list
 *   5. nested "prediction.predictions" (composite keys + sales_qty variants)
 *
 * @dependencies
 * - encoding/json
 * - backend/internal/forecast
 */

package rpt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/salesight/backend/internal/forecast"
)

// dumpLimit caps the serialized response attached to parse errors.
const dumpLimit = 8000

// ErrUnparsable marks a response matching none of the known payload shapes.
var ErrUnparsable = errors.New("could not parse rpt-1 response")

// Normalize extracts a uniform candidate list from an arbitrary provider
// document. meta is the request's key side-index and productToken the
// uppercased request filter; both feed product reconstruction when the
// provider echoes only composite keys.
func Normalize(raw json.RawMessage, meta KeyMeta, productToken string) ([]forecast.Candidate, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, parseFailure(raw)
	}

	matchers := []func(map[string]json.RawMessage) ([]forecast.Candidate, bool){
		matchValueList,
		matchRowsList,
		matchPredictionsList,
		matchNestedRows,
		func(d map[string]json.RawMessage) ([]forecast.Candidate, bool) {
			return matchKeyedPredictions(d, meta, productToken)
		},
	}
	for _, match := range matchers {
		if out, ok := match(doc); ok {
			return out, nil
		}
	}
	return nil, parseFailure(raw)
}

// Shape 1: {"value": [...]} used as-is.
func matchValueList(doc map[string]json.RawMessage) ([]forecast.Candidate, bool) {
	return plainList(doc, "value")
}

// Shape 2: {"rows": [...]} used as-is.
func matchRowsList(doc map[string]json.RawMessage) ([]forecast.Candidate, bool) {
	return plainList(doc, "rows")
}

// Shape 3: {"predictions": [...]} where each element may carry its prediction
// nested one level down, either as a single-element list or as an object with
// prediction/confidence sub-fields. The nested value is lifted to the top of
// the element, overriding any top-level reading.
func matchPredictionsList(doc map[string]json.RawMessage) ([]forecast.Candidate, bool) {
	items, ok := listAt(doc, "predictions")
	if !ok {
		return nil, false
	}
	out := make([]forecast.Candidate, 0, len(items))
	for _, item := range items {
		m, isObj := item.(map[string]interface{})
		if !isObj {
			continue
		}
		c := candidateFromMap(m)
		switch nested := m["prediction"].(type) {
		case []interface{}:
			if len(nested) == 0 {
				break
			}
			if inner, isObj := nested[0].(map[string]interface{}); isObj {
				if v, ok := toNumber(inner["prediction"]); ok {
					c.Prediction = &v
				}
				if v, ok := toNumber(inner["confidence"]); ok {
					c.Confidence = &v
				}
			} else if v, ok := toNumber(nested[0]); ok {
				c.Prediction = &v
			}
		case map[string]interface{}:
			if v, ok := toNumber(nested["prediction"]); ok {
				c.Prediction = &v
			}
			if v, ok := toNumber(nested["confidence"]); ok {
				c.Confidence = &v
			}
		}
		out = append(out, c)
	}
	return out, true
}

// Shape 4: {"prediction": {"rows": [...]}} used as-is.
func matchNestedRows(doc map[string]json.RawMessage) ([]forecast.Candidate, bool) {
	nested, ok := objectAt(doc, "prediction")
	if !ok {
		return nil, false
	}
	return plainList(nested, "rows")
}

// Shape 5: {"prediction": {"predictions": [...]}} where each element carries a
// composite key (product[_region..]_monthKey) and a sales_qty that is either a
// scalar or a one-element list of {prediction, confidence}. The trailing key
// segment recovers the month; the side index recovers the product, falling
// back to the leading key segment, the request filter, then "UNKNOWN".
func matchKeyedPredictions(doc map[string]json.RawMessage, meta KeyMeta, productToken string) ([]forecast.Candidate, bool) {
	nested, ok := objectAt(doc, "prediction")
	if !ok {
		return nil, false
	}
	items, ok := listAt(nested, "predictions")
	if !ok {
		return nil, false
	}

	out := make([]forecast.Candidate, 0, len(items))
	for _, item := range items {
		m, isObj := item.(map[string]interface{})
		if !isObj {
			continue
		}
		key := stringOf(m["key"])
		parts := strings.Split(key, "_")

		datePart := ""
		if len(parts) >= 3 {
			datePart = parts[len(parts)-1]
		} else if len(parts) >= 2 && parts[1] != "" {
			datePart = parts[1]
		} else {
			datePart = stringOf(m["date"])
		}

		var sales, conf *float64
		switch sq := m["sales_qty"].(type) {
		case []interface{}:
			if len(sq) > 0 {
				if inner, isObj := sq[0].(map[string]interface{}); isObj {
					if v, ok := toNumber(inner["prediction"]); ok {
						sales = &v
					}
					if v, ok := toNumber(inner["confidence"]); ok {
						conf = &v
					}
				} else if v, ok := toNumber(sq[0]); ok {
					sales = &v
				}
			}
		case nil:
		default:
			if v, ok := toNumber(sq); ok {
				sales = &v
			}
			if v, ok := toNumber(m["confidence"]); ok {
				conf = &v
			}
		}

		product := ""
		if rm, found := meta[key]; found {
			product = rm.Product
		}
		if product == "" && parts[0] != "" {
			product = parts[0]
		}
		if product == "" {
			product = productToken
		}
		if product == "" {
			product = "UNKNOWN"
		}

		out = append(out, forecast.Candidate{
			Date:           datePart,
			Product:        product,
			PredictedSales: sales,
			Confidence:     conf,
		})
	}
	return out, true
}

// plainList matches a field holding a list of candidate records and converts
// each object element tolerantly. Non-object elements carry no date and could
// never survive filtering, so they are dropped here.
func plainList(doc map[string]json.RawMessage, field string) ([]forecast.Candidate, bool) {
	items, ok := listAt(doc, field)
	if !ok {
		return nil, false
	}
	out := make([]forecast.Candidate, 0, len(items))
	for _, item := range items {
		if m, isObj := item.(map[string]interface{}); isObj {
			out = append(out, candidateFromMap(m))
		}
	}
	return out, true
}

// listAt decodes doc[field] if it is structurally a JSON array.
func listAt(doc map[string]json.RawMessage, field string) ([]interface{}, bool) {
	raw, present := doc[field]
	if !present {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []interface{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

// objectAt decodes doc[field] if it is structurally a JSON object.
func objectAt(doc map[string]json.RawMessage, field string) (map[string]json.RawMessage, bool) {
	raw, present := doc[field]
	if !present {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func candidateFromMap(m map[string]interface{}) forecast.Candidate {
	c := forecast.Candidate{
		Date:    stringOf(m["date"]),
		Product: stringOf(m["product"]),
		Region:  stringOf(m["region"]),
	}
	if v, ok := toNumber(m["predicted_sales"]); ok {
		c.PredictedSales = &v
	}
	if v, ok := toNumber(m["prediction"]); ok {
		c.Prediction = &v
	}
	if v, ok := toNumber(m["sales_qty"]); ok {
		c.SalesQty = &v
	}
	if v, ok := toNumber(m["confidence"]); ok {
		c.Confidence = &v
	}
	return c
}

// toNumber coerces JSON numbers and numeric strings.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringOf(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func parseFailure(raw json.RawMessage) error {
	dump := string(raw)
	if len(dump) > dumpLimit {
		dump = dump[:dumpLimit] + "...<truncated>"
	}
	return fmt.Errorf("%w: missing expected array (value|rows|predictions): %s", ErrUnparsable, dump)
}
