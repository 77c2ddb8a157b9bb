// internal/domain/sales/service.go
package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"github.com/your-org/erp-backend/internal/pkg/pricing"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a sales record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNoLines is returned when an order is created without any lines.
var ErrNoLines = errors.New("sales order must have at least one line")

// ErrNotDraft is returned when a non-draft order is confirmed or edited.
var ErrNotDraft = errors.New("sales order is not in draft status")

// Service handles sales order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	ledger *stock.Ledger
}

// NewService creates a new sales service
func NewService(db *gorm.DB, cfg *config.Config, ledger *stock.Ledger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		ledger: ledger,
	}
}

// CustomerRequest represents customer create/update data
type CustomerRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	TaxNumber string `json:"tax_number"`
}

// CreateCustomer creates a new customer
func (s *Service) CreateCustomer(req *CustomerRequest) (*Customer, error) {
	customer := Customer{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		TaxNumber: req.TaxNumber,
		IsActive:  true,
	}
	if err := s.db.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *Service) GetCustomer(id uint) (*Customer, error) {
	var customer Customer
	if err := s.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}
	return &customer, nil
}

// CustomerListRequest represents customer list query parameters
type CustomerListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Search string `form:"search"`
}

// GetCustomers retrieves customers with filtering
func (s *Service) GetCustomers(req *CustomerListRequest) ([]Customer, int64, error) {
	var customers []Customer
	var total int64

	query := s.db.Model(&Customer{})
	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", search, search, search)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("name ASC").Offset(offset).Limit(req.Limit).Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve customers: %w", err)
	}
	return customers, total, nil
}

// OrderLineRequest represents one line of an order creation request
type OrderLineRequest struct {
	ProductID       uint            `json:"product_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,min=1"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// OrderCreateRequest represents sales order creation data
type OrderCreateRequest struct {
	CustomerID     uint               `json:"customer_id" binding:"required"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Notes          string             `json:"notes"`
	Lines          []OrderLineRequest `json:"lines" binding:"required,dive"`
}

// CreateOrder creates a draft sales order. Stock is not touched until
// the order is confirmed. Lines without a unit price take the
// product's current sale price.
func (s *Service) CreateOrder(req *OrderCreateRequest, createdByID *uint) (*SalesOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoLines
	}

	if _, err := s.GetCustomer(req.CustomerID); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	order := SalesOrder{
		CustomerID:     req.CustomerID,
		Status:         StatusDraft,
		OrderDate:      time.Now().UTC(),
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
		CreatedByID:    createdByID,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create sales order: %w", err)
	}

	order.OrderNumber = GenerateDocumentNumber("SO", order.ID)
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
			unitPrice = product.SalePrice
		}

		line := SalesOrderLine{
			SalesOrderID:    order.ID,
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
		return nil, fmt.Errorf("failed to commit sales order: %w", err)
	}

	return s.GetOrder(order.ID)
}

// calculateTotals recomputes and persists sales totals. The order
// discount comes off the subtotal first and tax applies to the
// discounted amount.
func (s *Service) calculateTotals(tx *gorm.DB, order *SalesOrder) error {
	lines := make([]pricing.Line, 0, len(order.Lines))
	for i := range order.Lines {
		lines = append(lines, pricing.Line{
			UnitPrice:       order.Lines[i].UnitPrice,
			Quantity:        order.Lines[i].Quantity,
			DiscountPercent: order.Lines[i].DiscountPercent,
		})
	}

	totals := pricing.POSTotals(lines, s.config.Sales.TaxRatePercent, order.DiscountAmount)
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.Tax
	order.TotalAmount = totals.Total

	err := tx.Model(&SalesOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"subtotal":     totals.Subtotal,
		"tax_amount":   totals.Tax,
		"total_amount": totals.Total,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// GetOrder retrieves a sales order with lines and customer
func (s *Service) GetOrder(id uint) (*SalesOrder, error) {
	var order SalesOrder
	result := s.db.
		Preload("Customer").
		Preload("Lines").
		Preload("Lines.Product").
		Preload("Invoices").
		Where("id = ?", id).
		First(&order)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve sales order: %w", result.Error)
	}
	return &order, nil
}

// OrderListRequest represents sales order list query parameters
type OrderListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CustomerID uint   `form:"customer_id"`
	Status     string `form:"status"`
}

// GetOrders retrieves sales orders with filtering and pagination
func (s *Service) GetOrders(req *OrderListRequest) ([]SalesOrder, int64, error) {
	var orders []SalesOrder
	var total int64

	query := s.db.Model(&SalesOrder{}).Preload("Customer")
	if req.CustomerID > 0 {
		query = query.Where("customer_id = ?", req.CustomerID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sales orders: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve sales orders: %w", err)
	}
	return orders, total, nil
}

// ConfirmOrder confirms a draft order and debits stock for every line
// through the ledger, all in one transaction.
func (s *Service) ConfirmOrder(orderID uint, userID *uint) (*SalesOrder, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order SalesOrder
		err := tx.Preload("Lines").Where("id = ?", orderID).First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load sales order: %w", err)
		}
		if order.Status != StatusDraft {
			return ErrNotDraft
		}

		for i := range order.Lines {
			_, err := s.ledger.Record(tx, stock.MovementRequest{
				ProductID:     order.Lines[i].ProductID,
				Direction:     stock.DirectionOut,
				Quantity:      order.Lines[i].Quantity,
				Reason:        "Sale",
				ReferenceType: stock.ReferenceTypeSalesOrder,
				ReferenceID:   order.ID,
				Note:          order.OrderNumber,
				CreatedByID:   userID,
			})
			if err != nil {
				return err
			}
		}

		return tx.Model(&SalesOrder{}).Where("id = ?", orderID).
			Update("status", StatusConfirmed).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// CreateInvoice issues an invoice for a sales order
func (s *Service) CreateInvoice(orderID uint, markPaid bool) (*SalesInvoice, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return s.createInvoiceTx(s.db, order, markPaid)
}

// createInvoiceTx writes the invoice inside the caller's transaction.
func (s *Service) createInvoiceTx(tx *gorm.DB, order *SalesOrder, markPaid bool) (*SalesInvoice, error) {
	invoice := SalesInvoice{
		SalesOrderID: order.ID,
		InvoiceDate:  time.Now().UTC(),
		Amount:       order.TotalAmount,
	}
	if markPaid {
		now := time.Now().UTC()
		invoice.IsPaid = true
		invoice.PaidAt = &now
	}

	if err := tx.Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to create sales invoice: %w", err)
	}

	invoice.InvoiceNumber = GenerateDocumentNumber("INV", invoice.ID)
	if err := tx.Model(&invoice).Update("invoice_number", invoice.InvoiceNumber).Error; err != nil {
		return nil, fmt.Errorf("failed to update invoice number: %w", err)
	}
	return &invoice, nil
}

// GenerateDocumentNumber builds a number like SO-20250115-00042.
func GenerateDocumentNumber(prefix string, id uint) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, time.Now().UTC().Format("20060102"), id)
}
