// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/cart"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"github.com/your-org/erp-backend/internal/domain/sales"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupCheckout(t *testing.T) (*Service, *cart.Service, *gorm.DB) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run database tests")
	}

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=erp_user password=erp_password dbname=erp_test sslmode=disable"
	}
	redisAddr := os.Getenv("TEST_REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Category{}, &catalog.Supplier{}, &catalog.Product{},
		&stock.Movement{},
		&sales.Customer{}, &sales.SalesOrder{}, &sales.SalesOrderLine{}, &sales.SalesInvoice{},
	))
	require.NoError(t, db.Exec(
		"TRUNCATE sales_invoices, sales_order_lines, sales_orders, customers, stock_movements, products, suppliers, categories RESTART IDENTITY CASCADE",
	).Error)

	redisClient := goredis.NewClient(&goredis.Options{Addr: redisAddr, DB: 9})
	require.NoError(t, redisClient.Ping(context.Background()).Err())
	require.NoError(t, redisClient.FlushDB(context.Background()).Err())

	cfg := &config.Config{}
	cfg.Sales.TaxRatePercent = decimal.RequireFromString("15.00")
	cfg.Sales.WalkInName = "Walk-in Customer"
	cfg.Sales.WalkInEmail = "walkin@temp.com"

	ledger := stock.NewLedger(db)
	carts := cart.NewService(db, redisClient, cfg)
	return NewService(db, cfg, carts, ledger), carts, db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, quantity int, price string) *catalog.Product {
	t.Helper()
	product := catalog.Product{
		SKU:           sku,
		Name:          "Test " + sku,
		Unit:          "pcs",
		CostPrice:     decimal.RequireFromString("5.00"),
		SalePrice:     decimal.RequireFromString(price),
		StockQuantity: quantity,
		ReorderLevel:  1,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func TestCheckoutHappyPath(t *testing.T) {
	svc, carts, db := setupCheckout(t)
	ctx := context.Background()
	product := seedProduct(t, db, "POS-1", 10, "50.00")

	sessionID := cart.NewSessionID()
	_, err := carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	result, err := svc.Checkout(ctx, &Request{
		SessionID:       sessionID,
		PaymentMethod:   "card",
		DiscountPercent: decimal.RequireFromString("20"),
	}, nil)
	require.NoError(t, err)

	// Subtotal 100.00, 20% discount = 20.00, 15% tax on 80.00 = 12.00.
	assert.Contains(t, result.OrderNumber, "SO-")
	assert.True(t, decimal.RequireFromString("92.00").Equal(result.TotalAmount), "got %s", result.TotalAmount)
	assert.Equal(t, "Walk-in Customer", result.Customer.Name)

	var order sales.SalesOrder
	require.NoError(t, db.Preload("Lines").Preload("Invoices").First(&order, result.OrderID).Error)
	assert.Equal(t, sales.StatusCompleted, order.Status)
	assert.Equal(t, "card", order.PaymentMethod)
	assert.True(t, decimal.RequireFromString("20.00").Equal(order.DiscountAmount), "got %s", order.DiscountAmount)
	require.Len(t, order.Invoices, 1)
	assert.True(t, order.Invoices[0].IsPaid)

	// Stock was debited through the ledger.
	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 8, reloaded.StockQuantity)

	var movements []stock.Movement
	require.NoError(t, db.Where("reference_id = ?", order.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, "POS Sale", movements[0].Reason)
	assert.Equal(t, stock.DirectionOut, movements[0].Direction)

	// The cart is gone after a successful sale.
	reloadedCart, err := carts.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, reloadedCart.IsEmpty())
}

func TestCheckoutCustomerResolution(t *testing.T) {
	svc, carts, db := setupCheckout(t)
	ctx := context.Background()
	product := seedProduct(t, db, "POS-2", 20, "10.00")

	known := sales.Customer{Name: "Jamie Rivera", Phone: "555-0101", IsActive: true}
	require.NoError(t, db.Create(&known).Error)

	// Phone match reuses the existing customer.
	sessionID := cart.NewSessionID()
	_, err := carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	result, err := svc.Checkout(ctx, &Request{SessionID: sessionID, CustomerPhone: "555-0101"}, nil)
	require.NoError(t, err)
	assert.Equal(t, known.ID, result.Customer.ID)

	// A new name creates a customer carrying the supplied address.
	sessionID = cart.NewSessionID()
	_, err = carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	result, err = svc.Checkout(ctx, &Request{
		SessionID:       sessionID,
		CustomerName:    "Sam Okafor",
		CustomerAddress: "12 Harbor Road",
	}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, known.ID, result.Customer.ID)
	assert.Equal(t, "Sam Okafor", result.Customer.Name)

	var created sales.Customer
	require.NoError(t, db.First(&created, result.Customer.ID).Error)
	assert.Equal(t, "12 Harbor Road", created.Address)

	// Cash is the default payment method.
	var order sales.SalesOrder
	require.NoError(t, db.First(&order, result.OrderID).Error)
	assert.Equal(t, "cash", order.PaymentMethod)

	// The walk-in name maps to the shared walk-in customer, created once.
	var walkInID uint
	for i := 0; i < 2; i++ {
		sessionID = cart.NewSessionID()
		_, err = carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: product.ID, Quantity: 1})
		require.NoError(t, err)
		result, err = svc.Checkout(ctx, &Request{SessionID: sessionID, CustomerName: "walk-in customer"}, nil)
		require.NoError(t, err)
		if walkInID == 0 {
			walkInID = result.Customer.ID
		}
		assert.Equal(t, walkInID, result.Customer.ID)
	}
}

func TestCheckoutRollsBackOnInsufficientStock(t *testing.T) {
	svc, carts, db := setupCheckout(t)
	ctx := context.Background()
	plentiful := seedProduct(t, db, "POS-3A", 100, "5.00")
	scarce := seedProduct(t, db, "POS-3B", 1, "5.00")

	sessionID := cart.NewSessionID()
	_, err := carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: plentiful.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: scarce.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, &Request{SessionID: sessionID}, nil)

	var insufficientErr *stock.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, scarce.ID, insufficientErr.ProductID)

	// Nothing committed: no orders, no movements, stock untouched.
	var orderCount, movementCount int64
	require.NoError(t, db.Model(&sales.SalesOrder{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&stock.Movement{}).Count(&movementCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, movementCount)

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, plentiful.ID).Error)
	assert.Equal(t, 100, reloaded.StockQuantity)

	// The cart survives a failed checkout.
	sessionCart, err := carts.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, len(sessionCart.Items))
}

func TestConcurrentCheckoutLastUnit(t *testing.T) {
	svc, carts, db := setupCheckout(t)
	ctx := context.Background()
	product := seedProduct(t, db, "POS-4", 1, "30.00")

	sessions := make([]string, 2)
	for i := range sessions {
		sessions[i] = cart.NewSessionID()
		_, err := carts.AddItem(ctx, sessions[i], &cart.AddItemRequest{ProductID: product.ID, Quantity: 1})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Checkout(ctx, &Request{SessionID: sessions[i]}, nil)
		}(i)
	}
	wg.Wait()

	// Exactly one checkout wins the last unit.
	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			var insufficientErr *stock.InsufficientStockError
			assert.True(t, errors.As(err, &insufficientErr))
		}
	}
	assert.Equal(t, 1, succeeded)

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Zero(t, reloaded.StockQuantity)
}

// brokenClearStore delegates reads to the real cart service but fails
// to delete the cart, as a dropped Redis connection would.
type brokenClearStore struct {
	*cart.Service
}

func (s *brokenClearStore) Clear(ctx context.Context, sessionID string) error {
	return errors.New("connection refused")
}

func TestCheckoutSucceedsWhenCartClearFails(t *testing.T) {
	svc, carts, db := setupCheckout(t)
	ctx := context.Background()
	product := seedProduct(t, db, "POS-5", 10, "25.00")

	sessionID := cart.NewSessionID()
	_, err := carts.AddItem(ctx, sessionID, &cart.AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	flaky := NewService(svc.db, svc.config, &brokenClearStore{Service: carts}, svc.ledger)
	result, err := flaky.Checkout(ctx, &Request{SessionID: sessionID}, nil)

	// The sale committed, so the caller gets the result even though the
	// cart could not be cleared.
	require.NoError(t, err)
	require.NotNil(t, result)

	var order sales.SalesOrder
	require.NoError(t, db.First(&order, result.OrderID).Error)
	assert.Equal(t, sales.StatusCompleted, order.Status)

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 9, reloaded.StockQuantity)

	// The stale cart is still there for a later cleanup.
	leftover, err := carts.GetCart(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, leftover.IsEmpty())
}
