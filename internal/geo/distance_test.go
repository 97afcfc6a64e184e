package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_SamePoint(t *testing.T) {
	d := DistanceKm(12.9716, 77.5946, 12.9716, 77.5946)
	if d != 0 {
		t.Errorf("Expected 0 km for identical points, got %f", d)
	}
}

func TestDistanceKm_BangaloreChennai(t *testing.T) {
	// Bangalore to Chennai is roughly 290 km as the crow flies.
	d := DistanceKm(12.9716, 77.5946, 13.0827, 80.2707)
	if d < 280 || d > 300 {
		t.Errorf("Bangalore-Chennai distance = %f km, want ~290", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(12.9716, 77.5946, 28.6139, 77.2090)
	b := DistanceKm(28.6139, 77.2090, 12.9716, 77.5946)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("Distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistanceKm_SmallMove(t *testing.T) {
	// ~1.1 km per 0.01 degree of latitude.
	d := DistanceKm(12.97, 77.59, 12.98, 77.59)
	if d < 1.0 || d > 1.2 {
		t.Errorf("Small move distance = %f km, want ~1.1", d)
	}
}
