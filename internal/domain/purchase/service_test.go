// internal/domain/purchase/service_test.go
package purchase

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
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

	require.NoError(t, db.AutoMigrate(
		&catalog.Category{}, &catalog.Supplier{}, &catalog.Product{},
		&stock.Movement{},
		&PurchaseOrder{}, &PurchaseOrderLine{}, &PurchaseInvoice{}, &SupplierPerformance{},
	))
	require.NoError(t, db.Exec(
		"TRUNCATE supplier_performance, purchase_invoices, purchase_order_lines, purchase_orders, stock_movements, products, suppliers, categories RESTART IDENTITY CASCADE",
	).Error)

	cfg := &config.Config{}
	cfg.Sales.TaxRatePercent = decimal.RequireFromString("15.00")

	return NewService(db, cfg, stock.NewLedger(db)), db
}

func seedSupplierAndProduct(t *testing.T, db *gorm.DB) (*catalog.Supplier, *catalog.Product) {
	t.Helper()
	supplier := catalog.Supplier{Name: "Acme Trading", PaymentTerms: "Net 30", IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)

	product := catalog.Product{
		SKU:          "PO-TEST-1",
		Name:         "Test Widget",
		Unit:         "pcs",
		CostPrice:    decimal.RequireFromString("10.00"),
		SalePrice:    decimal.RequireFromString("18.00"),
		ReorderLevel: 5,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &supplier, &product
}

func confirmOrder(t *testing.T, svc *Service, orderID uint) {
	t.Helper()
	userID := uint(1)
	for _, status := range []string{StatusPendingApproval, StatusApproved, StatusConfirmed} {
		_, err := svc.UpdateStatus(orderID, status, &userID)
		require.NoError(t, err)
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("10.00"), DiscountPercent: decimal.RequireFromString("10")},
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, order.Status)
	assert.Contains(t, order.OrderNumber, "PO-")
	assert.True(t, decimal.RequireFromString("45.00").Equal(order.Subtotal), "subtotal: got %s", order.Subtotal)
	assert.True(t, decimal.RequireFromString("6.75").Equal(order.TaxAmount), "tax: got %s", order.TaxAmount)
	assert.True(t, decimal.RequireFromString("51.75").Equal(order.TotalAmount), "total: got %s", order.TotalAmount)

	// Payment fields default from the supplier and the order date.
	assert.Equal(t, PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, PriorityMedium, order.Priority)
	assert.Equal(t, "Net 30", order.PaymentTerms)
	require.NotNil(t, order.PaymentDueDate)
	assert.WithinDuration(t, order.OrderDate.AddDate(0, 0, 30), *order.PaymentDueDate, time.Second)
}

func TestCreateOrderMalformedTermsLeaveDueDateUnset(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID:   supplier.ID,
		PaymentTerms: "Cash on delivery",
		Priority:     PriorityHigh,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Cash on delivery", order.PaymentTerms)
	assert.Nil(t, order.PaymentDueDate)
	assert.Equal(t, PriorityHigh, order.Priority)
}

func TestReceiveLineFlow(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 10, UnitPrice: decimal.RequireFromString("12.50")},
		},
	}, nil)
	require.NoError(t, err)

	// Receiving against a draft order is rejected.
	_, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{LineID: order.Lines[0].ID, Quantity: 4}, nil)
	assert.ErrorIs(t, err, ErrNotReceivable)

	confirmOrder(t, svc, order.ID)

	totalBefore := order.TotalAmount

	order, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{LineID: order.Lines[0].ID, Quantity: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyReceived, order.Status)
	assert.Equal(t, 4, order.Lines[0].ReceivedQuantity)
	assert.NotNil(t, order.Lines[0].ReceivedDate, "first receipt stamps the received date")
	assert.Nil(t, order.ActualDeliveryDate)

	// Receiving recalculates totals; quantities received do not change them.
	assert.True(t, totalBefore.Equal(order.TotalAmount), "got %s", order.TotalAmount)

	// Stock went up and the cost price followed the purchase price.
	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 4, reloaded.StockQuantity)
	assert.True(t, decimal.RequireFromString("12.50").Equal(reloaded.CostPrice))

	order, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{LineID: order.Lines[0].ID, Quantity: 6}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, order.Status)
	assert.NotNil(t, order.ActualDeliveryDate)

	var movements []stock.Movement
	require.NoError(t, db.Where("reference_type = ? AND reference_id = ?", stock.ReferenceTypePurchaseOrder, order.ID).Find(&movements).Error)
	assert.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, stock.DirectionIn, m.Direction)
		assert.Equal(t, "Purchase", m.Reason)
	}
}

func TestReceiveLineRejectsOverReceipt(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)
	require.NoError(t, err)
	confirmOrder(t, svc, order.ID)

	_, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{LineID: order.Lines[0].ID, Quantity: 6}, nil)

	var overErr *OverReceiptError
	require.True(t, errors.As(err, &overErr))
	assert.Equal(t, 5, overErr.Pending)
	assert.Equal(t, 6, overErr.Requested)

	// Nothing was written.
	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Zero(t, reloaded.StockQuantity)
}

func TestReceiveLineRecordsRejectionAndDate(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 10, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)
	require.NoError(t, err)
	confirmOrder(t, svc, order.ID)

	receivedAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	order, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{
		LineID:           order.Lines[0].ID,
		Quantity:         6,
		RejectedQuantity: 2,
		ReceivedDate:     &receivedAt,
	}, nil)
	require.NoError(t, err)

	line := order.Lines[0]
	assert.Equal(t, 6, line.ReceivedQuantity)
	assert.Equal(t, 2, line.RejectedQuantity)
	require.NotNil(t, line.ReceivedDate)
	assert.WithinDuration(t, receivedAt, *line.ReceivedDate, time.Second)

	// Rejected units never enter stock.
	quantity, err := stock.NewLedger(db).CurrentQuantity(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, quantity)

	// A negative rejected count is refused outright.
	_, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{LineID: line.ID, Quantity: 1, RejectedQuantity: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCompleteOrderForceReceivesPending(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 8, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)
	require.NoError(t, err)
	confirmOrder(t, svc, order.ID)

	_, err = svc.ReceiveLine(order.ID, &ReceiveLineRequest{LineID: order.Lines[0].ID, Quantity: 3}, nil)
	require.NoError(t, err)

	order, err = svc.CompleteOrder(order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, order.Status)
	assert.Equal(t, 8, order.Lines[0].ReceivedQuantity)

	quantity, err := stock.NewLedger(db).CurrentQuantity(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, quantity)
}

func TestCompleteOrderReceivesInProductIDOrder(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, first := seedSupplierAndProduct(t, db)
	second := catalog.Product{
		SKU:       "PO-TEST-2",
		Name:      "Second Widget",
		Unit:      "pcs",
		CostPrice: decimal.RequireFromString("4.00"),
		SalePrice: decimal.RequireFromString("9.00"),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&second).Error)

	// Lines are created highest product ID first.
	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: second.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("4.00")},
			{ProductID: first.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)
	require.NoError(t, err)
	confirmOrder(t, svc, order.ID)

	_, err = svc.CompleteOrder(order.ID, nil)
	require.NoError(t, err)

	// Movements are written in ascending product ID order, matching the
	// lock order used at checkout.
	var movements []stock.Movement
	require.NoError(t, db.
		Where("reference_type = ? AND reference_id = ?", stock.ReferenceTypePurchaseOrder, order.ID).
		Order("id ASC").
		Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, first.ID, movements[0].ProductID)
	assert.Equal(t, second.ID, movements[1].ProductID)
}

func TestCreateInvoiceDueDateFromTerms(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, product := seedSupplierAndProduct(t, db)

	order, err := svc.CreateOrder(&OrderCreateRequest{
		SupplierID: supplier.ID,
		Lines: []OrderLineRequest{
			{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)
	require.NoError(t, err)

	invoice, err := svc.CreateInvoice(order.ID, &InvoiceCreateRequest{})
	require.NoError(t, err)
	require.NotNil(t, invoice.DueDate)
	expected := invoice.InvoiceDate.AddDate(0, 0, 30)
	assert.WithinDuration(t, expected, *invoice.DueDate, time.Second)
	assert.True(t, order.TotalAmount.Equal(invoice.Amount), "invoice defaults to order total")

	// Malformed terms on the order leave the due date unset.
	require.NoError(t, db.Model(&PurchaseOrder{}).Where("id = ?", order.ID).Update("payment_terms", "Cash on delivery").Error)
	invoice2, err := svc.CreateInvoice(order.ID, &InvoiceCreateRequest{Amount: decimal.RequireFromString("5.00")})
	require.NoError(t, err)
	assert.Nil(t, invoice2.DueDate)
}

func TestUpdateSupplierMetrics(t *testing.T) {
	svc, db := setupTestService(t)
	supplier, _ := seedSupplierAndProduct(t, db)

	orderDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expected := orderDate.AddDate(0, 0, 7)

	early := orderDate.AddDate(0, 0, 5)  // 2 days before expected
	late := orderDate.AddDate(0, 0, 16)  // 9 days after expected

	orders := []PurchaseOrder{
		{OrderNumber: "PO-M1", SupplierID: supplier.ID, Status: StatusReceived, OrderDate: orderDate, ExpectedDeliveryDate: &expected, ActualDeliveryDate: &early, TotalAmount: decimal.RequireFromString("100.00")},
		{OrderNumber: "PO-M2", SupplierID: supplier.ID, Status: StatusClosed, OrderDate: orderDate, ExpectedDeliveryDate: &expected, ActualDeliveryDate: &late, TotalAmount: decimal.RequireFromString("50.00")},
		{OrderNumber: "PO-M3", SupplierID: supplier.ID, Status: StatusDraft, OrderDate: orderDate, TotalAmount: decimal.RequireFromString("999.00")},
		{OrderNumber: "PO-M4", SupplierID: supplier.ID, Status: StatusClosed, OrderDate: orderDate, TotalAmount: decimal.RequireFromString("30.00")},
	}
	for i := range orders {
		require.NoError(t, db.Create(&orders[i]).Error)
	}

	perf, err := svc.UpdateSupplierMetrics(supplier.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, perf.TotalOrders, "draft orders do not count")
	assert.Equal(t, 1, perf.OnTimeDeliveries)
	assert.Equal(t, 1, perf.LateDeliveries)

	// The delivery metric averages actual-vs-expected deltas over every
	// terminal order, dateless ones included: (-2 + 9) / 3 truncates to 2.
	assert.Equal(t, 2, perf.AvgDeliveryDays)

	assert.True(t, decimal.RequireFromString("180.00").Equal(perf.TotalSpend))
	assert.True(t, decimal.RequireFromString("60.00").Equal(perf.AvgOrderValue), "got %s", perf.AvgOrderValue)

	// Recompute is idempotent.
	perf, err = svc.UpdateSupplierMetrics(supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, perf.TotalOrders)
	assert.Equal(t, 2, perf.AvgDeliveryDays)
}
