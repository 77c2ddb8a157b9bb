// internal/domain/purchase/service.go
package purchase

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"github.com/your-org/erp-backend/internal/pkg/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles purchase order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	ledger *stock.Ledger
}

// NewService creates a new purchase service
func NewService(db *gorm.DB, cfg *config.Config, ledger *stock.Ledger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		ledger: ledger,
	}
}

// validTransitions defines the allowed purchase order status changes.
// Receipt-driven statuses (partially_received, received) are derived
// from line quantities and never set directly through UpdateStatus.
var validTransitions = map[string][]string{
	StatusDraft:             {StatusPendingApproval, StatusCancelled},
	StatusPendingApproval:   {StatusApproved, StatusDraft, StatusCancelled},
	StatusApproved:          {StatusConfirmed, StatusCancelled},
	StatusConfirmed:         {StatusProcessing, StatusCancelled},
	StatusProcessing:        {StatusCancelled},
	StatusPartiallyReceived: {},
	StatusReceived:          {StatusClosed},
	StatusClosed:            {},
	StatusCancelled:         {},
}

func isValidTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderLineRequest represents one line of an order creation request
type OrderLineRequest struct {
	ProductID       uint            `json:"product_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,min=1"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// OrderCreateRequest represents purchase order creation data
type OrderCreateRequest struct {
	SupplierID           uint               `json:"supplier_id" binding:"required"`
	ExpectedDeliveryDate *time.Time         `json:"expected_delivery_date"`
	ShippingCost         decimal.Decimal    `json:"shipping_cost"`
	DiscountAmount       decimal.Decimal    `json:"discount_amount"`
	PaymentTerms         string             `json:"payment_terms"`
	Priority             string             `json:"priority"`
	Notes                string             `json:"notes"`
	Lines                []OrderLineRequest `json:"lines" binding:"required,dive"`
}

// CreateOrder creates a purchase order with its lines and computed totals
func (s *Service) CreateOrder(req *OrderCreateRequest, createdByID *uint) (*PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoLines
	}

	var supplier catalog.Supplier
	if err := s.db.First(&supplier, req.SupplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("supplier %d: %w", req.SupplierID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Orders inherit the supplier's payment terms unless overridden.
	paymentTerms := req.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = supplier.PaymentTerms
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	order := PurchaseOrder{
		SupplierID:           req.SupplierID,
		Status:               StatusDraft,
		PaymentStatus:        PaymentStatusUnpaid,
		Priority:             priority,
		OrderDate:            time.Now().UTC(),
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		ShippingCost:         req.ShippingCost,
		DiscountAmount:       req.DiscountAmount,
		PaymentTerms:         paymentTerms,
		Notes:                req.Notes,
		IsActive:             true,
		CreatedByID:          createdByID,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create purchase order: %w", err)
	}

	order.OrderNumber = generateDocumentNumber("PO", order.ID)
	if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order number: %w", err)
	}

	for _, lineReq := range req.Lines {
		var product catalog.Product
		if err := tx.First(&product, lineReq.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product %d: %w", lineReq.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}

		unitPrice := lineReq.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = product.CostPrice
		}

		line := PurchaseOrderLine{
			PurchaseOrderID: order.ID,
			ProductID:       lineReq.ProductID,
			Quantity:        lineReq.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: lineReq.DiscountPercent,
			LineTotal:       pricing.LineTotal(unitPrice, lineReq.Quantity, lineReq.DiscountPercent),
		}
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}

	if err := s.calculateTotals(tx, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit purchase order: %w", err)
	}

	return s.GetOrder(order.ID)
}

// calculateTotals recomputes and persists the order's monetary totals
// and its payment due date. Purchase tax applies to the full subtotal
// before the order discount. The due date comes from the order's
// "Net N" payment terms; malformed terms leave it unset.
func (s *Service) calculateTotals(tx *gorm.DB, order *PurchaseOrder) error {
	lines := make([]pricing.Line, 0, len(order.Lines))
	for i := range order.Lines {
		lines = append(lines, pricing.Line{
			UnitPrice:       order.Lines[i].UnitPrice,
			Quantity:        order.Lines[i].Quantity,
			DiscountPercent: order.Lines[i].DiscountPercent,
		})
	}

	totals := pricing.PurchaseTotals(lines, s.config.Sales.TaxRatePercent, order.ShippingCost, order.DiscountAmount)
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.Tax
	order.TotalAmount = totals.Total

	order.PaymentDueDate = nil
	if days, ok := ParseNetTermsDays(order.PaymentTerms); ok {
		due := order.OrderDate.AddDate(0, 0, days)
		order.PaymentDueDate = &due
	}

	err := tx.Model(&PurchaseOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"subtotal":         totals.Subtotal,
		"tax_amount":       totals.Tax,
		"total_amount":     totals.Total,
		"payment_due_date": order.PaymentDueDate,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// RecalculateTotals recomputes totals for an order after line edits.
func (s *Service) RecalculateTotals(orderID uint) (*PurchaseOrder, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.calculateTotals(s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder retrieves a purchase order with lines and supplier
func (s *Service) GetOrder(id uint) (*PurchaseOrder, error) {
	var order PurchaseOrder
	result := s.db.
		Preload("Supplier").
		Preload("Lines").
		Preload("Lines.Product").
		Where("id = ?", id).
		First(&order)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve purchase order: %w", result.Error)
	}
	return &order, nil
}

// OrderListRequest represents purchase order list query parameters
type OrderListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	SupplierID uint   `form:"supplier_id"`
	Status     string `form:"status"`
}

// GetOrders retrieves purchase orders with filtering and pagination
func (s *Service) GetOrders(req *OrderListRequest) ([]PurchaseOrder, int64, error) {
	var orders []PurchaseOrder
	var total int64

	query := s.db.Model(&PurchaseOrder{}).Preload("Supplier")
	if req.SupplierID > 0 {
		query = query.Where("supplier_id = ?", req.SupplierID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase orders: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve purchase orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus moves an order through the approval workflow. Receipt
// statuses are derived from line quantities, not set here.
func (s *Service) UpdateStatus(orderID uint, newStatus string, userID *uint) (*PurchaseOrder, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if !isValidTransition(order.Status, newStatus) {
		return nil, &InvalidTransitionError{From: order.Status, To: newStatus}
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == StatusApproved {
		now := time.Now().UTC()
		updates["approved_by_id"] = userID
		updates["approved_at"] = &now
	}

	if err := s.db.Model(&PurchaseOrder{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return s.GetOrder(orderID)
}

// ReceiveLineRequest represents a single line receipt
type ReceiveLineRequest struct {
	LineID           uint       `json:"line_id" binding:"required"`
	Quantity         int        `json:"quantity" binding:"required"`
	RejectedQuantity int        `json:"rejected_quantity"`
	ReceivedDate     *time.Time `json:"received_date"`
}

// ReceiveLine receives quantity against one order line. The stock
// ledger entry, the line update, the cost price refresh, the total
// recalculation and the derived order status all commit together or
// not at all.
func (s *Service) ReceiveLine(orderID uint, req *ReceiveLineRequest, userID *uint) (*PurchaseOrder, error) {
	if req.Quantity <= 0 || req.RejectedQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsReceivable() {
			return ErrNotReceivable
		}

		var line *PurchaseOrderLine
		for i := range order.Lines {
			if order.Lines[i].ID == req.LineID {
				line = &order.Lines[i]
				break
			}
		}
		if line == nil {
			return fmt.Errorf("line %d: %w", req.LineID, ErrNotFound)
		}

		line.RejectedQuantity = req.RejectedQuantity
		if err := s.receiveLineTx(tx, order, line, req.Quantity, req.ReceivedDate, userID); err != nil {
			return err
		}
		if err := s.calculateTotals(tx, order); err != nil {
			return err
		}
		return s.deriveAndSaveStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// receiveLineTx applies one line receipt inside the caller's transaction.
func (s *Service) receiveLineTx(tx *gorm.DB, order *PurchaseOrder, line *PurchaseOrderLine, quantity int, receivedDate *time.Time, userID *uint) error {
	pending := line.PendingQuantity()
	if quantity > pending {
		return &OverReceiptError{LineID: line.ID, Pending: pending, Requested: quantity}
	}

	_, err := s.ledger.Record(tx, stock.MovementRequest{
		ProductID:     line.ProductID,
		Direction:     stock.DirectionIn,
		Quantity:      quantity,
		Reason:        "Purchase",
		ReferenceType: stock.ReferenceTypePurchaseOrder,
		ReferenceID:   order.ID,
		Note:          order.OrderNumber,
		CreatedByID:   userID,
	})
	if err != nil {
		return err
	}

	line.ReceivedQuantity += quantity
	if receivedDate != nil {
		line.ReceivedDate = receivedDate
	} else if line.ReceivedDate == nil {
		now := time.Now().UTC()
		line.ReceivedDate = &now
	}

	err = tx.Model(&PurchaseOrderLine{}).Where("id = ?", line.ID).Updates(map[string]interface{}{
		"received_quantity": line.ReceivedQuantity,
		"rejected_quantity": line.RejectedQuantity,
		"received_date":     line.ReceivedDate,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update received quantity: %w", err)
	}

	// The latest purchase price becomes the product's cost price.
	if line.UnitPrice.IsPositive() {
		err = tx.Model(&catalog.Product{}).Where("id = ?", line.ProductID).
			Update("cost_price", line.UnitPrice).Error
		if err != nil {
			return fmt.Errorf("failed to update product cost price: %w", err)
		}
	}
	return nil
}

// ReceiveOrder re-derives the order's receipt status from its lines.
// Calling it repeatedly is harmless.
func (s *Service) ReceiveOrder(orderID uint) (*PurchaseOrder, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsReceivable() && order.Status != StatusReceived {
			return ErrNotReceivable
		}
		return s.deriveAndSaveStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// CompleteOrder force-receives every pending line quantity and marks
// the order received, all in one transaction.
func (s *Service) CompleteOrder(orderID uint, userID *uint) (*PurchaseOrder, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !order.IsReceivable() {
			return ErrNotReceivable
		}

		// Product rows are locked in ascending product ID order, the
		// same order checkout uses.
		sort.Slice(order.Lines, func(i, j int) bool {
			return order.Lines[i].ProductID < order.Lines[j].ProductID
		})

		for i := range order.Lines {
			pending := order.Lines[i].PendingQuantity()
			if pending == 0 {
				continue
			}
			if err := s.receiveLineTx(tx, order, &order.Lines[i], pending, nil, userID); err != nil {
				return err
			}
		}
		if err := s.calculateTotals(tx, order); err != nil {
			return err
		}
		return s.deriveAndSaveStatus(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// deriveStatus computes the receipt status implied by line quantities.
// It returns the current status unchanged when nothing is received yet.
func deriveStatus(current string, lines []PurchaseOrderLine) string {
	anyReceived := false
	allReceived := len(lines) > 0
	for i := range lines {
		if lines[i].ReceivedQuantity > 0 {
			anyReceived = true
		}
		if !lines[i].IsFullyReceived() {
			allReceived = false
		}
	}

	switch {
	case allReceived:
		return StatusReceived
	case anyReceived:
		return StatusPartiallyReceived
	default:
		return current
	}
}

// deriveAndSaveStatus persists the derived status and stamps the
// actual delivery date the first time the order becomes fully received.
func (s *Service) deriveAndSaveStatus(tx *gorm.DB, order *PurchaseOrder) error {
	newStatus := deriveStatus(order.Status, order.Lines)
	if newStatus == order.Status {
		return nil
	}

	updates := map[string]interface{}{"status": newStatus}
	if newStatus == StatusReceived && order.ActualDeliveryDate == nil {
		now := time.Now().UTC()
		updates["actual_delivery_date"] = &now
	}

	err := tx.Model(&PurchaseOrder{}).Where("id = ?", order.ID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = newStatus
	return nil
}

// lockOrder loads an order with lines under FOR UPDATE.
func lockOrder(tx *gorm.DB, orderID uint) (*PurchaseOrder, error) {
	var order PurchaseOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock purchase order: %w", err)
	}

	if err := tx.Where("purchase_order_id = ?", orderID).Order("id ASC").Find(&order.Lines).Error; err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	return &order, nil
}

// InvoiceCreateRequest represents purchase invoice creation data
type InvoiceCreateRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// CreateInvoice records a supplier invoice for an order. The due date
// comes from the order's "Net N" payment terms when they parse;
// otherwise it stays unset.
func (s *Service) CreateInvoice(orderID uint, req *InvoiceCreateRequest) (*PurchaseInvoice, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = order.TotalAmount
	}

	invoiceDate := time.Now().UTC()
	invoice := PurchaseInvoice{
		PurchaseOrderID: order.ID,
		InvoiceDate:     invoiceDate,
		Amount:          amount,
		Notes:           req.Notes,
	}

	if days, ok := ParseNetTermsDays(order.PaymentTerms); ok {
		due := invoiceDate.AddDate(0, 0, days)
		invoice.DueDate = &due
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return fmt.Errorf("failed to create purchase invoice: %w", err)
		}
		invoice.InvoiceNumber = generateDocumentNumber("PINV", invoice.ID)
		return tx.Model(&invoice).Update("invoice_number", invoice.InvoiceNumber).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkInvoicePaid marks a purchase invoice as paid
func (s *Service) MarkInvoicePaid(invoiceID uint) (*PurchaseInvoice, error) {
	var invoice PurchaseInvoice
	if err := s.db.First(&invoice, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve invoice: %w", err)
	}

	if !invoice.IsPaid {
		now := time.Now().UTC()
		invoice.IsPaid = true
		invoice.PaidAt = &now
		if err := s.db.Save(&invoice).Error; err != nil {
			return nil, fmt.Errorf("failed to update invoice: %w", err)
		}
	}
	return &invoice, nil
}

// generateDocumentNumber builds a number like PO-20250115-00042.
func generateDocumentNumber(prefix string, id uint) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, time.Now().UTC().Format("20060102"), id)
}
