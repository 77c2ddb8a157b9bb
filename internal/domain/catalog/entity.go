// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Supplier represents a vendor the business purchases from
type Supplier struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"uniqueIndex;not null;size:200" json:"name"`
	ContactPerson string         `gorm:"size:100" json:"contact_person"`
	Email         string         `gorm:"size:254" json:"email"`
	Phone         string         `gorm:"size:20" json:"phone"`
	Address       string         `gorm:"type:text" json:"address"`
	TaxNumber     string         `gorm:"size:50" json:"tax_number"`
	PaymentTerms  string         `gorm:"size:100" json:"payment_terms"` // e.g. "Net 30"
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:SupplierID" json:"products,omitempty"`
}

// Product represents a stocked catalog item. StockQuantity is the
// denormalized on-hand counter maintained by the stock ledger; it must
// only be changed through ledger movements.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SKU           string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name          string          `gorm:"not null;size:255" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	CategoryID    *uint           `gorm:"index" json:"category_id"`
	SupplierID    *uint           `gorm:"index" json:"supplier_id"`
	Unit          string          `gorm:"size:20;default:'pcs'" json:"unit"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	StockQuantity int             `gorm:"default:0" json:"stock_quantity"`
	ReorderLevel  int             `gorm:"default:10" json:"reorder_level"`
	Barcode       string          `gorm:"size:100" json:"barcode"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"supplier,omitempty"`
}

// TableName overrides
func (Category) TableName() string { return "categories" }
func (Supplier) TableName() string { return "suppliers" }
func (Product) TableName() string  { return "products" }

// Business methods for Product
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.ReorderLevel
}

// ProfitMargin returns the absolute margin between sale and cost price.
func (p *Product) ProfitMargin() decimal.Decimal {
	return p.SalePrice.Sub(p.CostPrice)
}
