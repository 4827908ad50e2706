/**
 * @description
 * Sales forecast database model.
 * Maps to the 'sales_forecasts' table in PostgreSQL.
 * Records are created in bulk by a prediction run and superseded in bulk by the
 * next successful run for the same model tag; they are never mutated field-by-field.
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

// SalesForecast represents one predicted month for one product.
type SalesForecast struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Period            string    `gorm:"column:period;not null;index" json:"period"` // YYYY-MM
	Product           string    `gorm:"column:product;not null" json:"product"`
	Region            string    `gorm:"column:region" json:"region"`
	PredictedQuantity int       `gorm:"column:predicted_quantity" json:"predicted_quantity"`
	PredictedRevenue  float64   `gorm:"column:predicted_revenue;type:numeric(15,2)" json:"predicted_revenue"`
	Confidence        float64   `gorm:"column:confidence;type:numeric(5,4)" json:"confidence"`
	Model             string    `gorm:"column:model;not null;index" json:"model"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name used by SalesForecast to `sales_forecasts`
func (SalesForecast) TableName() string {
	return "sales_forecasts"
}
