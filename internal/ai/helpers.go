package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/identity"
)

//go:embed prompts/identity_scores.txt
var identityScoresPrompt string

const userMessage = "Who is in this webcam frame?"

// identityResponse is the JSON shape every provider is asked to return.
type identityResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// buildIdentityPrompt returns the system prompt listing the known labels.
// This is shared across all AI providers.
func buildIdentityPrompt(labels []string) string {
	labelsJSON, _ := json.Marshal(labels)
	return fmt.Sprintf(identityScoresPrompt, string(labelsJSON))
}

// parseIdentityScores decodes a provider response and aligns it with labels.
// Missing labels score 0 and values are clamped to [0, 1].
func parseIdentityScores(content string, labels []string) (*IdentityScores, error) {
	var resp identityResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, err
	}
	if resp.Scores == nil {
		return nil, fmt.Errorf("response has no %q object", "scores")
	}

	result := &IdentityScores{Scores: make([]float64, len(labels))}
	for name, score := range resp.Scores {
		idx, ok := identity.Match(labels, name)
		if !ok {
			result.Unknown = append(result.Unknown, name)
			continue
		}
		result.Scores[idx] = clamp01(score)
	}
	return result, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// parseRetryMessage is sent back to the model when its JSON could not be parsed.
func parseRetryMessage(err error) string {
	return fmt.Sprintf("JSON parse error: %v. Please fix the JSON and try again. Output ONLY valid JSON, no other text.", err)
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(content string) string {
	// Try to find JSON object boundaries
	start := strings.Index(content, "{")
	if start == -1 {
		return content
	}

	// Find matching closing brace
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	// If no matching brace found, return from start
	return content[start:]
}
