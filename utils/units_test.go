package utils

import "testing"

func TestPointsToTokenUnits(t *testing.T) {
	tests := []struct {
		name     string
		points   int64
		decimals int
		want     string
	}{
		{"zero points", 0, 18, "0"},
		{"one point at 18 decimals", 1, 18, "1000000000000000000"},
		{"six hundred at 18 decimals", 600, 18, "600000000000000000000"},
		{"no decimals", 42, 0, "42"},
		{"two decimals", 600, 2, "60000"},
		{"negative clamps to zero", -5, 18, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointsToTokenUnits(tt.points, tt.decimals).String()
			if got != tt.want {
				t.Errorf("PointsToTokenUnits(%d, %d) = %s, want %s", tt.points, tt.decimals, got, tt.want)
			}
		})
	}
}
