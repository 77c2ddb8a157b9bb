// internal/domain/sales/entity_test.go
package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSalesOrderEditable(t *testing.T) {
	order := SalesOrder{Status: StatusDraft}
	assert.True(t, order.IsEditable())

	for _, status := range []string{StatusConfirmed, StatusCompleted, StatusCancelled} {
		order.Status = status
		assert.False(t, order.IsEditable(), status)
	}
}

func TestGenerateDocumentNumber(t *testing.T) {
	number := GenerateDocumentNumber("SO", 42)
	expected := "SO-" + time.Now().UTC().Format("20060102") + "-00042"
	assert.Equal(t, expected, number)
}
