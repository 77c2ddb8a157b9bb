// internal/domain/purchase/entity.go
package purchase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Purchase order status constants
const (
	StatusDraft             = "draft"
	StatusPendingApproval   = "pending_approval"
	StatusApproved          = "approved"
	StatusConfirmed         = "confirmed"
	StatusProcessing        = "processing"
	StatusPartiallyReceived = "partially_received"
	StatusReceived          = "received"
	StatusClosed            = "closed"
	StatusCancelled         = "cancelled"
)

// Payment status constants
const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
	PaymentStatusOverdue       = "overdue"
)

// Priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// PurchaseOrder represents an order placed with a supplier
type PurchaseOrder struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	OrderNumber          string          `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	SupplierID           uint            `gorm:"not null;index" json:"supplier_id"`
	Status               string          `gorm:"not null;size:30;default:'draft'" json:"status"`
	PaymentStatus        string          `gorm:"not null;size:20;default:'unpaid'" json:"payment_status"`
	Priority             string          `gorm:"not null;size:20;default:'medium'" json:"priority"`
	OrderDate            time.Time       `json:"order_date"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time      `json:"actual_delivery_date"`
	PaymentTerms         string          `gorm:"size:100" json:"payment_terms"`
	PaymentDueDate       *time.Time      `json:"payment_due_date"`
	Subtotal             decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"subtotal"`
	TaxAmount            decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"tax_amount"`
	ShippingCost         decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"shipping_cost"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_amount"`
	Notes                string          `gorm:"type:text" json:"notes"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
	CreatedByID          *uint           `gorm:"index" json:"created_by_id"`
	ApprovedByID         *uint           `gorm:"index" json:"approved_by_id"`
	ApprovedAt           *time.Time      `json:"approved_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Supplier catalog.Supplier    `gorm:"foreignKey:SupplierID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"supplier"`
	Lines    []PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines,omitempty"`
}

// PurchaseOrderLine represents one product line on a purchase order
type PurchaseOrderLine struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PurchaseOrderID  uint            `gorm:"not null;index" json:"purchase_order_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	ReceivedQuantity int             `gorm:"default:0" json:"received_quantity"`
	RejectedQuantity int             `gorm:"default:0" json:"rejected_quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	LineTotal        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"line_total"`
	ReceivedDate     *time.Time      `json:"received_date"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relationships
	Product catalog.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"product"`
}

// PurchaseInvoice represents a supplier invoice against a purchase order
type PurchaseInvoice struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber   string          `gorm:"uniqueIndex;not null;size:50" json:"invoice_number"`
	PurchaseOrderID uint            `gorm:"not null;index" json:"purchase_order_id"`
	InvoiceDate     time.Time       `json:"invoice_date"`
	DueDate         *time.Time      `json:"due_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsPaid          bool            `gorm:"default:false" json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	PurchaseOrder PurchaseOrder `gorm:"foreignKey:PurchaseOrderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"purchase_order"`
}

// SupplierPerformance holds recomputed delivery metrics per supplier.
// One row per supplier, fully rebuilt on each update.
type SupplierPerformance struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	SupplierID       uint            `gorm:"uniqueIndex;not null" json:"supplier_id"`
	TotalOrders      int             `gorm:"default:0" json:"total_orders"`
	OnTimeDeliveries int             `gorm:"default:0" json:"on_time_deliveries"`
	LateDeliveries   int             `gorm:"default:0" json:"late_deliveries"`
	// AvgDeliveryDays is the mean actual-vs-expected delivery delta in
	// days over all terminal orders, truncated toward zero.
	AvgDeliveryDays  int             `gorm:"default:0" json:"avg_delivery_days"`
	TotalSpend       decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"total_spend"`
	AvgOrderValue    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"avg_order_value"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relationships
	Supplier catalog.Supplier `gorm:"foreignKey:SupplierID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"supplier"`
}

// TableName overrides
func (PurchaseOrder) TableName() string       { return "purchase_orders" }
func (PurchaseOrderLine) TableName() string   { return "purchase_order_lines" }
func (PurchaseInvoice) TableName() string     { return "purchase_invoices" }
func (SupplierPerformance) TableName() string { return "supplier_performance" }

// Business methods for PurchaseOrder

// IsReceivable reports whether goods may be received against the order.
func (o *PurchaseOrder) IsReceivable() bool {
	switch o.Status {
	case StatusConfirmed, StatusProcessing, StatusPartiallyReceived:
		return true
	}
	return false
}

// IsEditable reports whether lines may still be added or changed.
func (o *PurchaseOrder) IsEditable() bool {
	return o.Status == StatusDraft || o.Status == StatusPendingApproval
}

// Business methods for PurchaseOrderLine

// PendingQuantity returns how many units remain to be received.
func (l *PurchaseOrderLine) PendingQuantity() int {
	pending := l.Quantity - l.ReceivedQuantity
	if pending < 0 {
		return 0
	}
	return pending
}

// IsFullyReceived reports whether the line has no pending quantity.
func (l *PurchaseOrderLine) IsFullyReceived() bool {
	return l.ReceivedQuantity >= l.Quantity
}

// OnTimeRate returns the percentage of deliveries that arrived on time.
func (p *SupplierPerformance) OnTimeRate() decimal.Decimal {
	delivered := p.OnTimeDeliveries + p.LateDeliveries
	if delivered == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(p.OnTimeDeliveries)).
		Div(decimal.NewFromInt(int64(delivered))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
