package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/ai"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
)

// Backend names accepted by CLASSIFIER_BACKEND.
const (
	BackendTFServing = "tfserving"
	BackendOpenAI    = "openai"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
	BackendLlamaCpp  = "llamacpp"
)

// New creates the classifier selected by cfg.Classifier.Backend.
func New(ctx context.Context, cfg *config.Config) (Classifier, error) {
	switch cfg.Classifier.Backend {
	case "", BackendTFServing:
		return NewTFServingClassifier(cfg.Classifier.TFServingURL)
	case BackendOpenAI:
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		pricing := cfg.GetModelPricing("gpt-4.1-mini")
		return NewProviderClassifier(ai.NewOpenAIProvider(cfg.OpenAI.Token, ai.RequestPricing{
			Input:  pricing.Standard.Input,
			Output: pricing.Standard.Output,
		})), nil
	case BackendGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		pricing := cfg.GetModelPricing("gemini-2.5-flash")
		p, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, ai.RequestPricing{
			Input:  pricing.Standard.Input,
			Output: pricing.Standard.Output,
		})
		if err != nil {
			return nil, err
		}
		return NewProviderClassifier(p), nil
	case BackendOllama:
		return NewProviderClassifier(ai.NewOllamaProvider(cfg.Ollama.URL, cfg.Ollama.Model)), nil
	case BackendLlamaCpp:
		p, err := ai.NewLlamaCppProvider(cfg.LlamaCpp.URL, cfg.LlamaCpp.Model)
		if err != nil {
			return nil, err
		}
		return NewProviderClassifier(p), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q (use tfserving, openai, gemini, ollama or llamacpp)", cfg.Classifier.Backend)
	}
}
