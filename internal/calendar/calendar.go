/**
 * @description
 * Month-key arithmetic for the forecast pipeline.
 * A canonical month key is a "YYYY-MM-01" string; all aggregation, request
 * building and filtering is keyed on it.
 *
 * @dependencies
 * - standard "time"
 */

package calendar

import "time"

const (
	keyLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// MonthKey normalizes a date-like string to its canonical month key.
// Any value whose first 7 characters form YYYY-MM resolves to "YYYY-MM-01";
// anything else reports false and the caller should skip the source row.
func MonthKey(dateLike string) (string, bool) {
	if len(dateLike) < 7 {
		return "", false
	}
	if _, err := time.Parse(monthLayout, dateLike[:7]); err != nil {
		return "", false
	}
	return dateLike[:7] + "-01", true
}

// NextMonths returns the n months strictly after start, ascending, each
// normalized to the first of its month. Day-of-month components in start are
// ignored, and year rollovers (December -> January) are handled by time.Date.
func NextMonths(start string, n int) []string {
	base, err := time.Parse(monthLayout, safeMonthPrefix(start))
	if err != nil || n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		m := time.Date(base.Year(), base.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		out = append(out, m.Format(keyLayout))
	}
	return out
}

// StartMonth picks the month forecasting continues from: the latest known
// historical month, or the current calendar month when there is no history.
// The months slice must be sorted ascending.
func StartMonth(sortedMonths []string, now time.Time) string {
	if len(sortedMonths) > 0 {
		return sortedMonths[len(sortedMonths)-1]
	}
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format(keyLayout)
}

func safeMonthPrefix(s string) string {
	if len(s) < 7 {
		return s
	}
	return s[:7]
}
