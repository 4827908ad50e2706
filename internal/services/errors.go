/**
 * @description
 * Error taxonomy for the prediction pipeline.
 * Every failure is terminal for the current run; none are retried. The API
 * layer maps these sentinels (plus rpt.ErrUpstream and rpt.ErrUnparsable) to
 * HTTP statuses.
 */

package services

import "errors"

var (
	// ErrInvalidInput marks missing or out-of-range request parameters (400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoHistory marks an empty filtered history set (400).
	ErrNoHistory = errors.New("no history found in sales_history")
	// ErrNotConfigured marks a missing provider endpoint (500).
	ErrNotConfigured = errors.New("provider not configured")
	// ErrEmptyResult marks a run whose filtered forecast set is empty (500).
	ErrEmptyResult = errors.New("rpt-1 returned no usable forecast rows for future months")
)
