// internal/domain/stock/entity.go
package stock

import (
	"time"
)

// Movement direction constants
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Reference type constants identify the document that caused a movement.
const (
	ReferenceTypePurchaseOrder = "purchase_order"
	ReferenceTypeSalesOrder    = "sales_order"
	ReferenceTypeAdjustment    = "adjustment"
)

// Movement is one append-only stock ledger entry. Rows are never
// updated or deleted; the signed sum of a product's movements equals
// its denormalized stock_quantity.
type Movement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"not null;index" json:"product_id"`
	Direction     string    `gorm:"not null;size:10" json:"direction"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	Reason        string    `gorm:"not null;size:100" json:"reason"`
	ReferenceType string    `gorm:"size:50;index:idx_stock_movements_reference" json:"reference_type"`
	ReferenceID   uint      `gorm:"index:idx_stock_movements_reference" json:"reference_id"`
	Note          string    `gorm:"type:text" json:"note"`
	CreatedByID   *uint     `gorm:"index" json:"created_by_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName overrides
func (Movement) TableName() string { return "stock_movements" }

// SignedQuantity returns the movement quantity with its ledger sign.
func (m *Movement) SignedQuantity() int {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}
