package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

type GeminiProvider struct {
	usageTracker
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string, pricing RequestPricing) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		usageTracker: usageTracker{
			inputPrice:  pricing.Input,
			outputPrice: pricing.Output,
		},
	}, nil
}

func (p *GeminiProvider) Name() string {
	return geminiModel
}

func (p *GeminiProvider) ScoreIdentities(ctx context.Context, imageData []byte, labels []string) (*IdentityScores, error) {
	resizedData, err := ResizeImage(imageData, constants.ProviderImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildIdentityPrompt(labels) + "\n\n" + userMessage},
				{InlineData: &genai.Blob{Data: resizedData, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastError error
	var lastResponse string

	for range constants.ProviderMaxRetries {
		result, err := p.client.Models.GenerateContent(ctx, geminiModel, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		if result.UsageMetadata != nil {
			p.trackUsage(int64(result.UsageMetadata.PromptTokenCount), int64(result.UsageMetadata.CandidatesTokenCount))
		}

		content := result.Text()
		if content == "" {
			return nil, errors.New("no response from Gemini")
		}
		lastResponse = content

		scores, err := parseIdentityScores(content, labels)
		if err != nil {
			lastError = err

			contents = append(contents,
				&genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: content}},
				},
				&genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: parseRetryMessage(err)}},
				},
			)
			continue
		}

		return scores, nil
	}

	return nil, fmt.Errorf("failed to parse identity scores after %d attempts: %w (last response: %s)", constants.ProviderMaxRetries, lastError, lastResponse)
}
