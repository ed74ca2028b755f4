package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 52.5200, 13.4050, 52.5200, 13.4050, 0, 0.001},
		{"berlin to paris", 52.5200, 13.4050, 48.8566, 2.3522, 878000, 2000},
		{"one degree latitude", 0, 0, 1, 0, 111195, 100},
		{"short hop", 52.52000, 13.40500, 52.52018, 13.40500, 20, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceMetersSymmetric(t *testing.T) {
	a := DistanceMeters(52.5200, 13.4050, 48.8566, 2.3522)
	b := DistanceMeters(48.8566, 2.3522, 52.5200, 13.4050)
	assert.Equal(t, a, b)
}
