// internal/domain/purchase/terms_test.go
package purchase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNetTermsDays(t *testing.T) {
	tests := []struct {
		name  string
		terms string
		days  int
		ok    bool
	}{
		{"standard", "Net 30", 30, true},
		{"lowercase no space", "net45", 45, true},
		{"uppercase", "NET 15", 15, true},
		{"extra words", "Net 60 days from invoice", 60, true},
		{"first number wins", "Net 30/60", 30, true},
		{"empty", "", 0, false},
		{"no number", "Net", 0, false},
		{"no net keyword", "30 days", 0, false},
		{"cash terms", "Cash on delivery", 0, false},
		{"due on receipt", "Due on receipt", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, ok := ParseNetTermsDays(tt.terms)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.days, days)
		})
	}
}
