/**
 * @description
 * Test-data generator for the Salesight Backend.
 * Writes five years (60 months) of synthetic monthly sales for a small product
 * catalog into the 'sales_history' table, with mild seasonality, a yearly
 * growth trend, and noise so forecasts have something real to chew on.
 *
 * @dependencies
 * - github.com/salesight/backend/internal/config
 * - github.com/salesight/backend/internal/db
 * - github.com/salesight/backend/internal/models
 *
 * @notes
 * - Run with -reset to truncate existing history first.
 */

package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/salesight/backend/internal/config"
	"github.com/salesight/backend/internal/db"
	"github.com/salesight/backend/internal/models"
)

const totalMonths = 60

type productSpec struct {
	Name       string
	BaseAmount float64
	BaseQty    float64
}

var products = []productSpec{
	{Name: "iPhone", BaseAmount: 120000, BaseQty: 900},
	{Name: "MacBook", BaseAmount: 85000, BaseQty: 220},
	{Name: "iPad", BaseAmount: 65000, BaseQty: 350},
	{Name: "AirPods", BaseAmount: 30000, BaseQty: 700},
	{Name: "Apple Watch", BaseAmount: 25000, BaseQty: 420},
}

// seasonal factors per calendar month (January..December); Q4 lifts sales.
var seasonal = []float64{0.98, 0.97, 1.00, 1.02, 1.03, 1.01, 1.00, 1.02, 1.04, 1.08, 1.18, 1.10}

func main() {
	reset := flag.Bool("reset", false, "truncate sales_history before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	if err := pgDB.AutoMigrate(&models.SalesHistory{}, &models.SalesForecast{}); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	if *reset {
		if err := pgDB.Where("1 = 1").Delete(&models.SalesHistory{}).Error; err != nil {
			log.Fatalf("Failed to reset sales_history: %v", err)
		}
	}

	now := time.Now().UTC()
	// Start exactly 60 months back, the current month included as the last one.
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(totalMonths - 1), 0)

	rows := make([]models.SalesHistory, 0, totalMonths*len(products))
	for i := 0; i < totalMonths; i++ {
		yearIndex := i / 12
		for _, p := range products {
			f := factorForMonth(int(cursor.Month())-1) * trendForYearIndex(yearIndex)

			amount := p.BaseAmount * f
			qty := math.Max(1, math.Round(p.BaseQty*f*(1+(rand.Float64()*0.04-0.02))))

			rows = append(rows, models.SalesHistory{
				ID:       uuid.New(),
				Date:     cursor,
				Product:  p.Name,
				Amount:   math.Round(amount*100) / 100,
				Quantity: int(qty),
				Currency: "USD",
			})
		}
		cursor = cursor.AddDate(0, 1, 0)
	}

	if err := pgDB.CreateInBatches(&rows, 500).Error; err != nil {
		log.Fatalf("Failed to insert sales history: %v", err)
	}

	log.Printf("✅ Seeded %d sales_history rows across %d months", len(rows), totalMonths)
}

// factorForMonth applies seasonality plus -3%..+3% noise. m is 0..11.
func factorForMonth(m int) float64 {
	noise := 1 + (rand.Float64()*0.06 - 0.03)
	return seasonal[m] * noise
}

// trendForYearIndex grows roughly 6% per elapsed year with slight variation.
func trendForYearIndex(y int) float64 {
	return 1 + (0.055+rand.Float64()*0.01)*float64(y)
}
