// Command seed fills a tenant with fake suppliers, products and sales orders
// for local development and demos.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/infrastructure/config"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		tenant    string
		suppliers int
		products  int
		orders    int
		seed      uint64
	)
	flag.StringVar(&tenant, "tenant", "", "Tenant (company) ID to seed (required)")
	flag.IntVar(&suppliers, "suppliers", 8, "Number of suppliers")
	flag.IntVar(&products, "products", 50, "Number of products; each gets two variants")
	flag.IntVar(&orders, "orders", 300, "Number of sales orders spread over the last 60 days")
	flag.Uint64Var(&seed, "seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed: -tenant must be a UUID")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := persistence.NewDatabase(&cfg.Database, nil)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	seeder := NewSeeder(
		persistence.NewGormSupplierRepository(db.DB),
		persistence.NewGormProductRepository(db.DB),
		persistence.NewGormSalesOrderRepository(db.DB),
		seed,
		log,
	)
	if _, err := seeder.Run(context.Background(), Options{
		TenantID:  tenantID,
		Suppliers: suppliers,
		Products:  products,
		Orders:    orders,
	}); err != nil {
		log.Fatal("Seed failed", zap.Error(err))
	}
}
