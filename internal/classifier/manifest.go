package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/identity"
)

// ErrInvalidManifest is returned when model.json is missing required fields.
var ErrInvalidManifest = errors.New("invalid model manifest")

// InputSpec describes the tensor the model expects.
type InputSpec struct {
	Height   int     `json:"height"`
	Width    int     `json:"width"`
	Channels int     `json:"channels"`
	Scale    float64 `json:"scale"`
}

// Manifest is the model.json description of a model bundle.
type Manifest struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Format    string    `json:"format"`
	Input     InputSpec `json:"input"`
	Labels    []string  `json:"labels"`
	Threshold float64   `json:"threshold,omitempty"`
	Weights   []string  `json:"weights"`

	// WeightsManifest is the TF.js layout; its paths are folded into Weights.
	WeightsManifest []struct {
		Paths []string `json:"paths"`
	} `json:"weightsManifest,omitempty"`

	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// applyDefaults fills fields the bundle left empty from defaults.yaml.
func (m *Manifest) applyDefaults(d config.ModelDefaults) {
	if m.Input.Height == 0 {
		m.Input.Height = orInt(d.Input.Height, constants.DefaultInputSize)
	}
	if m.Input.Width == 0 {
		m.Input.Width = orInt(d.Input.Width, constants.DefaultInputSize)
	}
	if m.Input.Channels == 0 {
		m.Input.Channels = orInt(d.Input.Channels, constants.DefaultInputChannels)
	}
	if m.Input.Scale == 0 {
		m.Input.Scale = d.Input.Scale
		if m.Input.Scale == 0 {
			m.Input.Scale = constants.DefaultPixelScale
		}
	}
	if len(m.Labels) == 0 {
		m.Labels = append([]string(nil), d.Labels...)
	}
	if m.Threshold == 0 {
		m.Threshold = d.Threshold
		if m.Threshold == 0 {
			m.Threshold = constants.DefaultConfidenceThreshold
		}
	}
	for _, group := range m.WeightsManifest {
		m.Weights = append(m.Weights, group.Paths...)
	}
	m.WeightsManifest = nil
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Validate checks the manifest after defaults have been applied.
func (m *Manifest) Validate() error {
	if len(m.Labels) == 0 {
		return fmt.Errorf("%w: no labels", ErrInvalidManifest)
	}
	for _, label := range m.Labels {
		if identity.Normalize(label) == "" {
			return fmt.Errorf("%w: empty label", ErrInvalidManifest)
		}
	}
	if identity.HasDuplicates(m.Labels) {
		return fmt.Errorf("%w: duplicate labels %v", ErrInvalidManifest, m.Labels)
	}
	if m.Input.Height <= 0 || m.Input.Width <= 0 {
		return fmt.Errorf("%w: input size %dx%d", ErrInvalidManifest, m.Input.Width, m.Input.Height)
	}
	if m.Input.Channels != 1 && m.Input.Channels != 3 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidManifest, m.Input.Channels)
	}
	if m.Input.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive", ErrInvalidManifest)
	}
	if m.Threshold <= 0 || m.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside (0, 1]", ErrInvalidManifest, m.Threshold)
	}
	if len(m.Weights) == 0 {
		return fmt.Errorf("%w: no weights shards", ErrInvalidManifest)
	}
	return nil
}

// EffectiveThreshold returns the environment override when set, otherwise the
// manifest threshold.
func EffectiveThreshold(override float64, m *Manifest) float64 {
	if override > 0 {
		return override
	}
	if m != nil && m.Threshold > 0 {
		return m.Threshold
	}
	return constants.DefaultConfidenceThreshold
}

// Loader fetches model.json from a URL or a local path and caches the last
// successful load.
type Loader struct {
	location string
	defaults config.ModelDefaults
	client   *http.Client

	mu     sync.Mutex
	cached *Manifest
}

// NewLoader creates a loader for the manifest at location.
func NewLoader(location string, defaults config.ModelDefaults) *Loader {
	return &Loader{
		location: location,
		defaults: defaults,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Location returns the configured manifest location.
func (l *Loader) Location() string {
	return l.location
}

// Load returns the cached manifest or fetches and validates it.
// Failed loads are not cached.
func (l *Loader) Load(ctx context.Context) (*Manifest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	m, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	l.cached = m
	return m, nil
}

// Reload drops the cached manifest so the next Load fetches it again.
func (l *Loader) Reload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// Cached returns the cached manifest, or nil if none is loaded.
func (l *Loader) Cached() *Manifest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cached
}

func (l *Loader) fetch(ctx context.Context) (*Manifest, error) {
	if l.location == "" {
		return nil, errors.New("model location is not configured")
	}

	data, err := l.read(ctx, l.location)
	if err != nil {
		return nil, fmt.Errorf("failed to read model manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	m.applyDefaults(l.defaults)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	for _, shard := range m.Weights {
		if err := l.checkShard(ctx, shard); err != nil {
			return nil, fmt.Errorf("weights shard %s: %w", shard, err)
		}
	}

	m.Source = l.location
	m.LoadedAt = time.Now().UTC()
	return &m, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		return os.ReadFile(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// resolveShard resolves a shard path relative to the manifest location.
func (l *Loader) resolveShard(shard string) (string, error) {
	if isRemote(shard) {
		return shard, nil
	}
	if !isRemote(l.location) {
		if filepath.IsAbs(shard) {
			return shard, nil
		}
		return filepath.Join(filepath.Dir(l.location), shard), nil
	}
	base, err := url.Parse(l.location)
	if err != nil {
		return "", fmt.Errorf("invalid model URL: %w", err)
	}
	ref, err := url.Parse(shard)
	if err != nil {
		return "", fmt.Errorf("invalid shard path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (l *Loader) checkShard(ctx context.Context, shard string) error {
	location, err := l.resolveShard(shard)
	if err != nil {
		return err
	}
	if !isRemote(location) {
		info, err := os.Stat(location)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", location)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
