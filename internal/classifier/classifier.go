// Package classifier loads the identity model bundle and scores webcam
// frames against its labels.
package classifier

import (
	"context"
	"fmt"
	"math"
)

// Classifier produces a confidence vector aligned with the manifest labels.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, frame []byte, m *Manifest) ([]float64, error)
}

// Prediction is the thresholded result of a confidence vector.
type Prediction struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Threshold  float64 `json:"threshold"`
	Recognized bool    `json:"recognized"`
}

// ArgMax returns the index and value of the highest score. Ties resolve to
// the first maximum. NaN scores are ignored; an empty vector returns -1.
func ArgMax(scores []float64) (int, float64) {
	best, bestScore := -1, 0.0
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if best == -1 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

// Decide maps a confidence vector onto the labels. A prediction is
// recognized only when its confidence is at or above threshold.
func Decide(scores []float64, labels []string, threshold float64) (Prediction, error) {
	if len(scores) != len(labels) {
		return Prediction{}, fmt.Errorf("classifier returned %d scores for %d labels", len(scores), len(labels))
	}

	idx, confidence := ArgMax(scores)
	if idx < 0 {
		return Prediction{}, fmt.Errorf("classifier returned no usable scores")
	}

	return Prediction{
		Index:      idx,
		Label:      labels[idx],
		Confidence: confidence,
		Threshold:  threshold,
		Recognized: confidence >= threshold,
	}, nil
}
