package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Classifier ClassifierConfig
	Model      ModelConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Ollama     OllamaConfig
	LlamaCpp   LlamaCppConfig
	Store      StoreConfig
	Database   DatabaseConfig
	MariaDB    MariaDBConfig
	SQLite     SQLiteConfig
	Kafka      KafkaConfig
	Defaults   DefaultsConfig
}

type ClassifierConfig struct {
	Backend      string  // tfserving (default), openai, gemini, ollama, llamacpp
	TFServingURL string  // defaults to http://localhost:8501
	Threshold    float64 // overrides the manifest threshold when > 0
}

type ModelConfig struct {
	URL string // model.json location, http(s) URL or local path
	Dir string // directory served under /model/ (empty disables hosting)
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	URL   string // defaults to http://localhost:11434
	Model string // defaults to llama3.2-vision:11b
}

type LlamaCppConfig struct {
	URL   string // defaults to http://localhost:8080
	Model string // defaults to llava
}

type StoreConfig struct {
	Backend string // postgres (default), mariadb, sqlite
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MariaDBConfig struct {
	DSN string // e.g. kiosk:kiosk@tcp(mariadb:3306)/attendance?parseTime=true
}

type SQLiteConfig struct {
	Path string // defaults to attendance.db
}

type KafkaConfig struct {
	Brokers []string // empty disables event publishing
	Topic   string   // defaults to attendance
}

// DefaultsConfig is the embedded defaults.yaml.
type DefaultsConfig struct {
	Model  ModelDefaults `yaml:"model"`
	Prices PricesConfig  `yaml:"prices"`
}

type ModelDefaults struct {
	Labels    []string      `yaml:"labels"`
	Threshold float64       `yaml:"threshold"`
	Input     InputDefaults `yaml:"input"`
}

type InputDefaults struct {
	Height   int     `yaml:"height"`
	Width    int     `yaml:"width"`
	Channels int     `yaml:"channels"`
	Scale    float64 `yaml:"scale"`
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float in (0, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadDefaults parses the embedded defaults.yaml.
func LoadDefaults() DefaultsConfig {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return defaults
}

func Load() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Backend:      strings.ToLower(envString("CLASSIFIER_BACKEND", "tfserving")),
			TFServingURL: os.Getenv("TFSERVING_URL"),
			Threshold:    envFloat("CONFIDENCE_THRESHOLD", 0),
		},
		Model: ModelConfig{
			URL: envString("MODEL_URL", "model/model.json"),
			Dir: envString("MODEL_DIR", "model"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Ollama: OllamaConfig{
			URL:   os.Getenv("OLLAMA_URL"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
		LlamaCpp: LlamaCppConfig{
			URL:   os.Getenv("LLAMACPP_URL"),
			Model: os.Getenv("LLAMACPP_MODEL"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(envString("STORE_BACKEND", "postgres")),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		SQLite: SQLiteConfig{
			Path: envString("SQLITE_PATH", "attendance.db"),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_TOPIC", "attendance"),
		},
		Defaults: LoadDefaults(),
	}
}

// GetModelPricing returns pricing for a specific model, with fallback defaults
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Defaults.Prices.Models[modelName]; ok {
		return pricing
	}
	// Return zero pricing if model not found
	return ModelPricing{}
}
