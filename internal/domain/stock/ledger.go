// internal/domain/stock/ledger.go
package stock

import (
	"errors"
	"fmt"

	"github.com/your-org/erp-backend/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger records stock movements and keeps the denormalized
// products.stock_quantity counter in sync with the movement history.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a new stock ledger
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// MovementRequest describes a single ledger entry to record.
type MovementRequest struct {
	ProductID     uint
	Direction     string
	Quantity      int
	Reason        string
	ReferenceType string
	ReferenceID   uint
	Note          string
	CreatedByID   *uint
}

// Record writes one movement inside the given transaction. The product
// row is locked FOR UPDATE before the counter check so concurrent
// writers serialize on it; an outbound movement that would take stock
// negative fails with InsufficientStockError and nothing is written.
func (l *Ledger) Record(tx *gorm.DB, req MovementRequest) (*Movement, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Direction != DirectionIn && req.Direction != DirectionOut {
		return nil, ErrInvalidDirection
	}

	var product catalog.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", req.ProductID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	newQuantity := product.StockQuantity
	if req.Direction == DirectionIn {
		newQuantity += req.Quantity
	} else {
		newQuantity -= req.Quantity
		if newQuantity < 0 {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.StockQuantity,
				Requested:   req.Quantity,
			}
		}
	}

	movement := Movement{
		ProductID:     req.ProductID,
		Direction:     req.Direction,
		Quantity:      req.Quantity,
		Reason:        req.Reason,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Note:          req.Note,
		CreatedByID:   req.CreatedByID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock movement: %w", err)
	}

	err = tx.Model(&catalog.Product{}).
		Where("id = ?", req.ProductID).
		Update("stock_quantity", newQuantity).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update stock quantity: %w", err)
	}

	return &movement, nil
}

// Adjust records a manual stock correction in its own transaction.
func (l *Ledger) Adjust(req MovementRequest) (*Movement, error) {
	req.ReferenceType = ReferenceTypeAdjustment
	if req.Reason == "" {
		req.Reason = "Manual Adjustment"
	}

	var movement *Movement
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = l.Record(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// CurrentQuantity returns a product's denormalized on-hand counter.
func (l *Ledger) CurrentQuantity(productID uint) (int, error) {
	var product catalog.Product
	err := l.db.Select("stock_quantity").Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return product.StockQuantity, nil
}

// MovementListRequest represents movement history query parameters
type MovementListRequest struct {
	Page          int    `form:"page,default=1"`
	Limit         int    `form:"limit,default=50"`
	ProductID     uint   `form:"product_id"`
	Direction     string `form:"direction"`
	ReferenceType string `form:"reference_type"`
	ReferenceID   uint   `form:"reference_id"`
}

// Movements returns movement history, newest first.
func (l *Ledger) Movements(req *MovementListRequest) ([]Movement, int64, error) {
	var movements []Movement
	var total int64

	query := l.db.Model(&Movement{})
	if req.ProductID > 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.Direction != "" {
		query = query.Where("direction = ?", req.Direction)
	}
	if req.ReferenceType != "" {
		query = query.Where("reference_type = ?", req.ReferenceType)
	}
	if req.ReferenceID > 0 {
		query = query.Where("reference_id = ?", req.ReferenceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 50
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.Limit).Find(&movements).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve movements: %w", err)
	}

	return movements, total, nil
}

// Replay recomputes a product's stock from its full movement history.
// The result should always match the denormalized counter; a mismatch
// means the counter was changed outside the ledger.
func (l *Ledger) Replay(productID uint) (int, error) {
	var movements []Movement
	err := l.db.Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&movements).Error
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve movements: %w", err)
	}

	quantity := 0
	for i := range movements {
		quantity += movements[i].SignedQuantity()
	}
	return quantity, nil
}
