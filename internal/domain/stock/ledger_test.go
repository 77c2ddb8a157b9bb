// internal/domain/stock/ledger_test.go
package stock

import (
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run database tests")
	}

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=erp_user password=erp_password dbname=erp_test sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&catalog.Product{}, &Movement{}))
	require.NoError(t, db.Exec("TRUNCATE stock_movements, products RESTART IDENTITY CASCADE").Error)

	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, sku string, quantity int) *catalog.Product {
	t.Helper()
	product := catalog.Product{
		SKU:           sku,
		Name:          "Test " + sku,
		Unit:          "pcs",
		CostPrice:     decimal.RequireFromString("5.00"),
		SalePrice:     decimal.RequireFromString("9.00"),
		StockQuantity: quantity,
		ReorderLevel:  2,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func TestLedgerRecordInAndOut(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	product := createTestProduct(t, db, "LEDGER-1", 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Record(tx, MovementRequest{
			ProductID: product.ID,
			Direction: DirectionIn,
			Quantity:  10,
			Reason:    "Purchase",
		})
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Record(tx, MovementRequest{
			ProductID: product.ID,
			Direction: DirectionOut,
			Quantity:  4,
			Reason:    "POS Sale",
		})
		return err
	})
	require.NoError(t, err)

	quantity, err := ledger.CurrentQuantity(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, quantity)

	replayed, err := ledger.Replay(product.ID)
	require.NoError(t, err)
	assert.Equal(t, quantity, replayed)
}

func TestLedgerRejectsOverdraw(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	product := createTestProduct(t, db, "LEDGER-2", 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Record(tx, MovementRequest{
			ProductID: product.ID,
			Direction: DirectionOut,
			Quantity:  5,
			Reason:    "POS Sale",
		})
		return err
	})

	var insufficientErr *InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, 3, insufficientErr.Available)
	assert.Equal(t, 5, insufficientErr.Requested)

	// The failed movement must leave no trace.
	quantity, err := ledger.CurrentQuantity(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, quantity)

	var count int64
	require.NoError(t, db.Model(&Movement{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLedgerRejectsNonPositiveQuantity(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	product := createTestProduct(t, db, "LEDGER-3", 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Record(tx, MovementRequest{
			ProductID: product.ID,
			Direction: DirectionIn,
			Quantity:  0,
			Reason:    "Purchase",
		})
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ledger.Record(tx, MovementRequest{
			ProductID: product.ID,
			Direction: DirectionOut,
			Quantity:  -2,
			Reason:    "POS Sale",
		})
		return err
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLedgerAdjustStandalone(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)
	product := createTestProduct(t, db, "LEDGER-4", 8)

	movement, err := ledger.Adjust(MovementRequest{
		ProductID: product.ID,
		Direction: DirectionOut,
		Quantity:  3,
		Note:      "cycle count correction",
	})
	require.NoError(t, err)
	assert.Equal(t, ReferenceTypeAdjustment, movement.ReferenceType)
	assert.Equal(t, "Manual Adjustment", movement.Reason)

	quantity, err := ledger.CurrentQuantity(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, quantity)
}
