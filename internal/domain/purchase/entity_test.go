// internal/domain/purchase/entity_test.go
package purchase

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderLinePendingQuantity(t *testing.T) {
	line := PurchaseOrderLine{Quantity: 10, ReceivedQuantity: 3}
	assert.Equal(t, 7, line.PendingQuantity())
	assert.False(t, line.IsFullyReceived())

	line.ReceivedQuantity = 10
	assert.Equal(t, 0, line.PendingQuantity())
	assert.True(t, line.IsFullyReceived())

	line.ReceivedQuantity = 12
	assert.Equal(t, 0, line.PendingQuantity(), "over-received lines never report negative pending")
}

func TestOrderReceivable(t *testing.T) {
	receivable := []string{StatusConfirmed, StatusProcessing, StatusPartiallyReceived}
	for _, status := range receivable {
		order := PurchaseOrder{Status: status}
		assert.True(t, order.IsReceivable(), status)
	}

	notReceivable := []string{StatusDraft, StatusPendingApproval, StatusApproved, StatusReceived, StatusClosed, StatusCancelled}
	for _, status := range notReceivable {
		order := PurchaseOrder{Status: status}
		assert.False(t, order.IsReceivable(), status)
	}
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, isValidTransition(StatusDraft, StatusPendingApproval))
	assert.True(t, isValidTransition(StatusPendingApproval, StatusApproved))
	assert.True(t, isValidTransition(StatusApproved, StatusConfirmed))
	assert.True(t, isValidTransition(StatusConfirmed, StatusProcessing))
	assert.True(t, isValidTransition(StatusReceived, StatusClosed))
	assert.True(t, isValidTransition(StatusDraft, StatusCancelled))

	assert.False(t, isValidTransition(StatusDraft, StatusConfirmed), "cannot skip approval")
	assert.False(t, isValidTransition(StatusConfirmed, StatusReceived), "receipt status is derived, not set")
	assert.False(t, isValidTransition(StatusClosed, StatusDraft))
	assert.False(t, isValidTransition(StatusCancelled, StatusPendingApproval))
}

func TestDeriveStatus(t *testing.T) {
	lines := []PurchaseOrderLine{
		{Quantity: 10, ReceivedQuantity: 0},
		{Quantity: 5, ReceivedQuantity: 0},
	}
	assert.Equal(t, StatusProcessing, deriveStatus(StatusProcessing, lines), "nothing received keeps the current status")

	lines[0].ReceivedQuantity = 4
	assert.Equal(t, StatusPartiallyReceived, deriveStatus(StatusProcessing, lines))

	lines[0].ReceivedQuantity = 10
	lines[1].ReceivedQuantity = 5
	assert.Equal(t, StatusReceived, deriveStatus(StatusPartiallyReceived, lines))

	// Re-deriving on an already received order is a no-op.
	assert.Equal(t, StatusReceived, deriveStatus(StatusReceived, lines))
}

func TestSupplierPerformanceOnTimeRate(t *testing.T) {
	perf := SupplierPerformance{}
	assert.True(t, perf.OnTimeRate().IsZero(), "no deliveries means zero rate")

	perf.OnTimeDeliveries = 3
	perf.LateDeliveries = 1
	assert.True(t, decimal.RequireFromString("75.00").Equal(perf.OnTimeRate()), "got %s", perf.OnTimeRate())
}
