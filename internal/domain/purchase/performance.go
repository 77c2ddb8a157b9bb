// internal/domain/purchase/performance.go
package purchase

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateSupplierMetrics rebuilds a supplier's performance row from
// scratch over all received and closed orders. A full recompute keeps
// the row correct even after orders are edited or cancelled late.
func (s *Service) UpdateSupplierMetrics(supplierID uint) (*SupplierPerformance, error) {
	var orders []PurchaseOrder
	err := s.db.
		Where("supplier_id = ? AND status IN ?", supplierID, []string{StatusReceived, StatusClosed}).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier orders: %w", err)
	}

	perf := SupplierPerformance{
		SupplierID: supplierID,
		TotalSpend: decimal.Zero,
	}

	totalDeltaDays := 0

	for i := range orders {
		order := &orders[i]
		perf.TotalOrders++
		perf.TotalSpend = perf.TotalSpend.Add(order.TotalAmount)

		if order.ExpectedDeliveryDate == nil || order.ActualDeliveryDate == nil {
			continue
		}

		// Delta between actual and expected delivery; negative means early.
		deltaDays := int(order.ActualDeliveryDate.Sub(*order.ExpectedDeliveryDate).Hours() / 24)
		totalDeltaDays += deltaDays

		if deltaDays <= 0 {
			perf.OnTimeDeliveries++
		} else {
			perf.LateDeliveries++
		}
	}

	if perf.TotalOrders > 0 {
		perf.AvgDeliveryDays = totalDeltaDays / perf.TotalOrders
		perf.AvgOrderValue = perf.TotalSpend.
			Div(decimal.NewFromInt(int64(perf.TotalOrders))).
			Round(2)
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "supplier_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_orders", "on_time_deliveries", "late_deliveries",
			"avg_delivery_days", "total_spend", "avg_order_value", "updated_at",
		}),
	}).Create(&perf).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save supplier performance: %w", err)
	}

	return s.GetSupplierPerformance(supplierID)
}

// GetSupplierPerformance retrieves a supplier's performance row
func (s *Service) GetSupplierPerformance(supplierID uint) (*SupplierPerformance, error) {
	var perf SupplierPerformance
	err := s.db.Preload("Supplier").Where("supplier_id = ?", supplierID).First(&perf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve supplier performance: %w", err)
	}
	return &perf, nil
}
