// internal/domain/sales/entity.go
package sales

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/erp-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Sales order status constants
const (
	StatusDraft     = "draft"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Customer represents a buyer, registered or walk-in
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Email     string         `gorm:"size:254" json:"email"`
	Phone     string         `gorm:"size:20;index" json:"phone"`
	Address   string         `gorm:"type:text" json:"address"`
	TaxNumber string         `gorm:"size:50" json:"tax_number"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Orders []SalesOrder `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}

// SalesOrder represents a customer order
type SalesOrder struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	Status         string          `gorm:"not null;size:20;default:'draft'" json:"status"`
	OrderDate      time.Time       `json:"order_date"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_amount"`
	PaymentMethod  string          `gorm:"size:30" json:"payment_method"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedByID    *uint           `gorm:"index" json:"created_by_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Customer Customer         `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"customer"`
	Lines    []SalesOrderLine `gorm:"foreignKey:SalesOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines,omitempty"`
	Invoices []SalesInvoice   `gorm:"foreignKey:SalesOrderID" json:"invoices,omitempty"`
}

// SalesOrderLine represents one product line on a sales order
type SalesOrderLine struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SalesOrderID    uint            `gorm:"not null;index" json:"sales_order_id"`
	ProductID       uint            `gorm:"not null;index" json:"product_id"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"line_total"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	Product catalog.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"product"`
}

// SalesInvoice represents an invoice issued for a sales order
type SalesInvoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex;not null;size:50" json:"invoice_number"`
	SalesOrderID  uint            `gorm:"not null;index" json:"sales_order_id"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       *time.Time      `json:"due_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsPaid        bool            `gorm:"default:false" json:"is_paid"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName overrides
func (Customer) TableName() string       { return "customers" }
func (SalesOrder) TableName() string     { return "sales_orders" }
func (SalesOrderLine) TableName() string { return "sales_order_lines" }
func (SalesInvoice) TableName() string   { return "sales_invoices" }

// IsEditable reports whether lines may still be changed.
func (o *SalesOrder) IsEditable() bool {
	return o.Status == StatusDraft
}
