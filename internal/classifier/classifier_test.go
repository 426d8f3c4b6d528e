package classifier

import (
	"math"
	"testing"
)

var testLabels = []string{"Sisy", "Widia", "Yoga"}

func TestArgMax(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float64
		wantIndex int
		wantScore float64
	}{
		{"single max", []float64{0.1, 0.7, 0.2}, 1, 0.7},
		{"tie picks first", []float64{0.4, 0.4, 0.2}, 0, 0.4},
		{"last wins", []float64{0.1, 0.2, 0.7}, 2, 0.7},
		{"empty", nil, -1, 0},
		{"leading NaN", []float64{math.NaN(), 0.3, 0.1}, 1, 0.3},
		{"all NaN", []float64{math.NaN()}, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, score := ArgMax(tt.scores)
			if idx != tt.wantIndex || score != tt.wantScore {
				t.Errorf("ArgMax(%v) = (%d, %f), want (%d, %f)", tt.scores, idx, score, tt.wantIndex, tt.wantScore)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name           string
		scores         []float64
		wantLabel      string
		wantRecognized bool
	}{
		{"above threshold", []float64{0.1, 0.85, 0.05}, "Widia", true},
		{"exactly threshold", []float64{0.8, 0.15, 0.05}, "Sisy", true},
		{"below threshold", []float64{0.79, 0.2, 0.01}, "Sisy", false},
		{"flat", []float64{0.34, 0.33, 0.33}, "Sisy", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decide(tt.scores, testLabels, 0.8)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if p.Label != tt.wantLabel {
				t.Errorf("expected label %s, got %s", tt.wantLabel, p.Label)
			}
			if p.Recognized != tt.wantRecognized {
				t.Errorf("expected recognized=%v, got %v", tt.wantRecognized, p.Recognized)
			}
			if p.Threshold != 0.8 {
				t.Errorf("expected threshold 0.8, got %f", p.Threshold)
			}
		})
	}
}

func TestDecide_LengthMismatch(t *testing.T) {
	if _, err := Decide([]float64{0.9, 0.1}, testLabels, 0.8); err == nil {
		t.Error("expected error for score/label mismatch")
	}
	if _, err := Decide(nil, nil, 0.8); err == nil {
		t.Error("expected error for empty scores")
	}
}
