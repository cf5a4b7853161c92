package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		qty   int
		want  int
	}{
		{"plenty left", 10, 3, 7},
		{"exactly drained", 5, 5, 0},
		{"oversell clamps to zero", 2, 5, 0},
		{"zero stock stays zero", 0, 1, 0},
		{"zero quantity", 4, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(tt.stock, tt.qty))
		})
	}
}
