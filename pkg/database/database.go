package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opdemr/orderflow/internal/config"
	"github.com/opdemr/orderflow/internal/domain"
	"github.com/opdemr/orderflow/internal/domain/billing"
	"github.com/opdemr/orderflow/internal/domain/catalog"
	"github.com/opdemr/orderflow/internal/domain/laborder"
	"github.com/opdemr/orderflow/internal/domain/pharmacyorder"
	"github.com/opdemr/orderflow/internal/domain/prescription"
	"github.com/opdemr/orderflow/internal/domain/sample"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "catalog", "billing", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.AuditLog{},
		&catalog.LabTest{},
		&catalog.PharmacyItem{},
		&prescription.Prescription{},
		&laborder.LabOrder{},
		&laborder.Item{},
		&sample.Collection{},
		&pharmacyorder.PharmacyOrder{},
		&pharmacyorder.Item{},
		&billing.Bill{},
		&billing.BillItem{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// The fan-out worklists: open lab orders per prescription and the
		// duplicate check on (prescription, test).
		{
			name:  "idx_lab_orders_prescription_open",
			query: `CREATE INDEX IF NOT EXISTS idx_lab_orders_prescription_open ON clinical.lab_orders (prescription_id, test_id) WHERE status <> 'cancelled'`,
		},
		{
			name:  "idx_lab_orders_worklist",
			query: `CREATE INDEX IF NOT EXISTS idx_lab_orders_worklist ON clinical.lab_orders (status, priority, created_at) WHERE status NOT IN ('completed', 'cancelled')`,
		},
		{
			name:  "idx_sample_collections_pending",
			query: `CREATE INDEX IF NOT EXISTS idx_sample_collections_pending ON clinical.sample_collections (status, created_at) WHERE status <> 'completed'`,
		},
		{
			name:  "idx_bills_unpaid",
			query: `CREATE INDEX IF NOT EXISTS idx_bills_unpaid ON billing.bills (patient_id, bill_date) WHERE payment_status <> 'paid'`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
