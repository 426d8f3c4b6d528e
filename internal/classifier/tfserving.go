package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const defaultTFServingURL = "http://localhost:8501"

// TFServingClassifier runs the model behind a TensorFlow Serving REST endpoint.
type TFServingClassifier struct {
	baseURL *url.URL
	client  *http.Client
}

// NewTFServingClassifier creates a classifier for the given TF Serving base URL.
func NewTFServingClassifier(baseURL string) (*TFServingClassifier, error) {
	if baseURL == "" {
		baseURL = defaultTFServingURL
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid TF Serving URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid TF Serving URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid TF Serving URL: missing host")
	}
	return &TFServingClassifier{
		baseURL: parsed,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *TFServingClassifier) Name() string {
	return "tfserving"
}

type predictRequest struct {
	Instances [][][][]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

// Classify preprocesses the frame and asks the model server for predictions.
func (c *TFServingClassifier) Classify(ctx context.Context, frame []byte, m *Manifest) ([]float64, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("%w: name is required for TF Serving", ErrInvalidManifest)
	}

	tensor, err := Preprocess(frame, m.Input)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(predictRequest{Instances: tensor.Instances()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL.JoinPath("v1", "models", m.Name+":predict")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TF Serving error (status %d): %s", resp.StatusCode, pr.Error)
	}
	if len(pr.Predictions) == 0 {
		return nil, errors.New("no predictions in response")
	}
	return pr.Predictions[0], nil
}
