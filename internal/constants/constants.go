// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Recognition constants
const (
	// DefaultConfidenceThreshold is the minimum top-class confidence required
	// to record attendance. Used when neither the manifest nor the
	// environment sets one.
	DefaultConfidenceThreshold = 0.8

	// DefaultInputSize is the square input edge the classifier expects
	DefaultInputSize = 224

	// DefaultInputChannels is the number of color channels (RGB)
	DefaultInputChannels = 3

	// DefaultPixelScale normalizes 8-bit channel values into [0, 1]
	DefaultPixelScale = 255.0
)

// Provider constants
const (
	// ProviderImageSize is the maximum dimension of frames sent to LLM providers
	ProviderImageSize = 512

	// ProviderMaxRetries is the number of attempts to get parseable JSON from a provider
	ProviderMaxRetries = 3
)

// Processing constants
const (
	// DefaultConcurrency is the default number of parallel workers for batch classification
	DefaultConcurrency = 4

	// MaxFrameSize is the maximum accepted frame size in bytes (10MB)
	MaxFrameSize = 10 << 20
)
