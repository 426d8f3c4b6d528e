package classifier

import (
	"context"
	"log"

	"github.com/kozaktomas/attendance-kiosk/internal/ai"
)

// ProviderClassifier scores frames with an LLM vision provider.
type ProviderClassifier struct {
	provider ai.Provider
}

// NewProviderClassifier wraps an ai.Provider.
func NewProviderClassifier(p ai.Provider) *ProviderClassifier {
	return &ProviderClassifier{provider: p}
}

func (c *ProviderClassifier) Name() string {
	return c.provider.Name()
}

// Provider returns the wrapped provider (for usage reporting).
func (c *ProviderClassifier) Provider() ai.Provider {
	return c.provider
}

// Classify returns the provider scores in manifest label order.
func (c *ProviderClassifier) Classify(ctx context.Context, frame []byte, m *Manifest) ([]float64, error) {
	data, err := FrameBytes(frame)
	if err != nil {
		return nil, err
	}

	scores, err := c.provider.ScoreIdentities(ctx, data, m.Labels)
	if err != nil {
		return nil, err
	}
	if len(scores.Unknown) > 0 {
		log.Printf("classifier: %s returned unknown names %v", c.provider.Name(), scores.Unknown)
	}
	return scores.Scores, nil
}
