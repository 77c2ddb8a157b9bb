// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/domain/cart"
	"github.com/your-org/erp-backend/internal/domain/sales"
	"github.com/your-org/erp-backend/internal/domain/stock"
	"github.com/your-org/erp-backend/internal/pkg/logger"
	"github.com/your-org/erp-backend/internal/pkg/pricing"
	"gorm.io/gorm"
)

// ErrEmptyCart is returned when checkout runs on an empty session cart.
var ErrEmptyCart = errors.New("cart is empty")

// ErrCustomerNotFound is returned when an explicit customer ID does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// CartStore is the session cart dependency of checkout.
type CartStore interface {
	GetCart(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// Service turns a session cart into a completed, paid sales order.
type Service struct {
	db     *gorm.DB
	config *config.Config
	carts  CartStore
	ledger *stock.Ledger
	log    *logrus.Logger
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, carts CartStore, ledger *stock.Ledger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		carts:  carts,
		ledger: ledger,
		log:    logger.New(cfg),
	}
}

// Request represents a point-of-sale checkout request
type Request struct {
	SessionID       string          `json:"session_id" binding:"required"`
	CustomerID      uint            `json:"customer_id"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerName    string          `json:"customer_name"`
	CustomerAddress string          `json:"customer_address"`
	PaymentMethod   string          `json:"payment_method"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Notes           string          `json:"notes"`
}

// CustomerSnapshot is the customer summary returned with a sale.
type CustomerSnapshot struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Result is the outcome of a completed checkout.
type Result struct {
	OrderID     uint             `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	InvoiceID   uint             `json:"invoice_id"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Customer    CustomerSnapshot `json:"customer"`
}

// Checkout converts the session cart into a completed sales order with
// a paid invoice. Stock checks, movements, the order, its lines and
// the invoice commit in one transaction; products are locked in
// ascending ID order so concurrent checkouts cannot deadlock. The cart
// is cleared only after the transaction commits.
func (s *Service) Checkout(ctx context.Context, req *Request, userID *uint) (*Result, error) {
	sessionCart, err := s.carts.GetCart(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sessionCart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := make([]cart.Item, len(sessionCart.Items))
	copy(items, sessionCart.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})

	var result *Result
	err = s.db.Transaction(func(tx *gorm.DB) error {
		customer, err := s.resolveCustomer(tx, req)
		if err != nil {
			return err
		}

		lines := make([]pricing.Line, 0, len(items))
		for i := range items {
			lines = append(lines, pricing.Line{
				UnitPrice:       items[i].UnitPrice,
				Quantity:        items[i].Quantity,
				DiscountPercent: items[i].DiscountPercent,
			})
		}

		// The order-level discount is a percentage of the subtotal.
		discountAmount := pricing.Subtotal(lines).
			Mul(req.DiscountPercent).
			Div(decimal.NewFromInt(100)).
			Round(2)
		totals := pricing.POSTotals(lines, s.config.Sales.TaxRatePercent, discountAmount)

		paymentMethod := req.PaymentMethod
		if paymentMethod == "" {
			paymentMethod = "cash"
		}

		order := sales.SalesOrder{
			CustomerID:     customer.ID,
			Status:         sales.StatusCompleted,
			OrderDate:      time.Now().UTC(),
			Subtotal:       totals.Subtotal,
			TaxAmount:      totals.Tax,
			DiscountAmount: discountAmount,
			TotalAmount:    totals.Total,
			PaymentMethod:  paymentMethod,
			Notes:          req.Notes,
			CreatedByID:    userID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create sales order: %w", err)
		}

		order.OrderNumber = sales.GenerateDocumentNumber("SO", order.ID)
		if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to update order number: %w", err)
		}

		for i := range items {
			item := &items[i]

			// The ledger locks the product row and rejects overdraw,
			// so a concurrent sale of the last unit fails here and
			// rolls the whole checkout back.
			_, err := s.ledger.Record(tx, stock.MovementRequest{
				ProductID:     item.ProductID,
				Direction:     stock.DirectionOut,
				Quantity:      item.Quantity,
				Reason:        "POS Sale",
				ReferenceType: stock.ReferenceTypeSalesOrder,
				ReferenceID:   order.ID,
				Note:          order.OrderNumber,
				CreatedByID:   userID,
			})
			if err != nil {
				return err
			}

			line := sales.SalesOrderLine{
				SalesOrderID:    order.ID,
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				UnitPrice:       item.UnitPrice,
				DiscountPercent: item.DiscountPercent,
				LineTotal:       pricing.LineTotal(item.UnitPrice, item.Quantity, item.DiscountPercent),
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
		}

		now := time.Now().UTC()
		invoice := sales.SalesInvoice{
			SalesOrderID: order.ID,
			InvoiceDate:  now,
			Amount:       order.TotalAmount,
			IsPaid:       true,
			PaidAt:       &now,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return fmt.Errorf("failed to create sales invoice: %w", err)
		}
		invoice.InvoiceNumber = sales.GenerateDocumentNumber("INV", invoice.ID)
		if err := tx.Model(&invoice).Update("invoice_number", invoice.InvoiceNumber).Error; err != nil {
			return fmt.Errorf("failed to update invoice number: %w", err)
		}

		result = &Result{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			InvoiceID:   invoice.ID,
			TotalAmount: order.TotalAmount,
			Customer: CustomerSnapshot{
				ID:    customer.ID,
				Name:  customer.Name,
				Phone: customer.Phone,
				Email: customer.Email,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The sale is committed at this point. A stale cart is an
	// inconvenience, not a failed checkout.
	if err := s.carts.Clear(ctx, req.SessionID); err != nil {
		s.log.WithError(err).WithField("session_id", req.SessionID).
			Warn("failed to clear cart after checkout")
	}
	return result, nil
}

// resolveCustomer picks the sale's customer: explicit ID first, then
// phone lookup, then a named customer created on the fly, and finally
// the shared walk-in customer.
func (s *Service) resolveCustomer(tx *gorm.DB, req *Request) (*sales.Customer, error) {
	if req.CustomerID > 0 {
		var customer sales.Customer
		if err := tx.First(&customer, req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		return &customer, nil
	}

	if req.CustomerPhone != "" {
		var customer sales.Customer
		err := tx.Where("phone = ?", req.CustomerPhone).First(&customer).Error
		if err == nil {
			return &customer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up customer by phone: %w", err)
		}
		// An unknown phone with a name creates a new customer.
		if req.CustomerName != "" && !s.isWalkInName(req.CustomerName) {
			customer = sales.Customer{
				Name:     req.CustomerName,
				Phone:    req.CustomerPhone,
				Address:  req.CustomerAddress,
				IsActive: true,
			}
			if err := tx.Create(&customer).Error; err != nil {
				return nil, fmt.Errorf("failed to create customer: %w", err)
			}
			return &customer, nil
		}
	}

	if req.CustomerName != "" && !s.isWalkInName(req.CustomerName) {
		customer := sales.Customer{
			Name:     req.CustomerName,
			Address:  req.CustomerAddress,
			IsActive: true,
		}
		if err := tx.Create(&customer).Error; err != nil {
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
		return &customer, nil
	}

	return s.walkInCustomer(tx)
}

func (s *Service) isWalkInName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), s.config.Sales.WalkInName)
}

// walkInCustomer fetches or creates the shared walk-in customer row.
func (s *Service) walkInCustomer(tx *gorm.DB) (*sales.Customer, error) {
	var customer sales.Customer
	err := tx.Where("email = ?", s.config.Sales.WalkInEmail).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up walk-in customer: %w", err)
	}

	customer = sales.Customer{
		Name:     s.config.Sales.WalkInName,
		Email:    s.config.Sales.WalkInEmail,
		IsActive: true,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create walk-in customer: %w", err)
	}
	return &customer, nil
}
