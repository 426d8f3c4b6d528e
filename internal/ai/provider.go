package ai

import (
	"context"
	"sync"
)

// Provider defines the interface for LLM vision backends that score a frame
// against a fixed list of identity labels.
type Provider interface {
	Name() string
	ScoreIdentities(ctx context.Context, imageData []byte, labels []string) (*IdentityScores, error)

	// Usage tracking.
	GetUsage() Usage
	ResetUsage()
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// IdentityScores contains the provider's per-label confidences.
type IdentityScores struct {
	// Scores is aligned with the labels passed to ScoreIdentities.
	Scores []float64
	// Unknown lists names the provider returned that match no label.
	Unknown []string
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// usageTracker is embedded by providers; the classify command calls a single
// provider from several workers.
type usageTracker struct {
	mu          sync.Mutex
	usage       Usage
	inputPrice  float64 // per 1M tokens
	outputPrice float64 // per 1M tokens
}

func (u *usageTracker) GetUsage() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage
}

func (u *usageTracker) ResetUsage() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage = Usage{}
}

func (u *usageTracker) trackUsage(inputTokens, outputTokens int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage.InputTokens += int(inputTokens)
	u.usage.OutputTokens += int(outputTokens)
	u.usage.TotalCost += float64(inputTokens) / 1_000_000 * u.inputPrice
	u.usage.TotalCost += float64(outputTokens) / 1_000_000 * u.outputPrice
}
