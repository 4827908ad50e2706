/**
 * @description
 * Sales history database model.
 * Maps to the 'sales_history' table in PostgreSQL.
 * Rows are transaction-level: one row per sale event, day-level dates.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
)

// SalesHistory represents a single historical sale transaction.
// The pipeline only reads this table; ingestion happens elsewhere (see cmd/seed).
type SalesHistory struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Date     time.Time `gorm:"column:date;type:date;not null;index" json:"date"`
	Product  string    `gorm:"column:product;index" json:"product"`
	Amount   float64   `gorm:"column:amount;type:numeric(15,2)" json:"amount"`
	Quantity int       `gorm:"column:quantity" json:"quantity"`
	Currency string    `gorm:"column:currency;default:USD" json:"currency"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by SalesHistory to `sales_history`
func (SalesHistory) TableName() string {
	return "sales_history"
}
