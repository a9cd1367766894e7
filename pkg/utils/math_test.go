package utils

import (
	"math"
	"testing"
	"time"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v", x)
	}
	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestPercentile(t *testing.T) {
	d := SortedDurations([]time.Duration{5, 1, 4, 2, 3, 10, 9, 8, 7, 6})
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1},
		{50, 5},
		{95, 10},
		{100, 10},
		{10, 1},
		{11, 2},
	}
	for _, tt := range tests {
		if got := Percentile(d, tt.p); got != tt.want {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if Percentile(nil, 50) != 0 {
		t.Error("empty percentile should be 0")
	}
}

func TestMeanDuration(t *testing.T) {
	if got := MeanDuration([]time.Duration{1, 2, 3, 6}); got != 3 {
		t.Errorf("mean = %v", got)
	}
	if MeanDuration(nil) != 0 {
		t.Error("empty mean should be 0")
	}
}

func TestSortedDurations_DoesNotMutate(t *testing.T) {
	in := []time.Duration{3, 1, 2}
	out := SortedDurations(in)
	if in[0] != 3 || out[0] != 1 {
		t.Errorf("in=%v out=%v", in, out)
	}
}
