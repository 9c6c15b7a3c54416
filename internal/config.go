package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/agencyhub/internal/ai"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Embedding providers.
const (
	EmbeddingNone   = ""
	EmbeddingOpenAI = "openai"
	EmbeddingGemini = "gemini"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Storage    StorageConfig     `yaml:"storage"`
	Auth       AuthConfig        `yaml:"auth"`
	AI         AIConfig          `yaml:"ai"`
	RAG        RAGConfig         `yaml:"rag"`
	Frameworks FrameworksConfig  `yaml:"frameworks"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	return c.RAG.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StorageConfig holds the upload directory and URL signing settings.
type StorageConfig struct {
	Path           string        `yaml:"path"`
	SigningSecret  string        `yaml:"signing_secret"`
	URLTTL         time.Duration `yaml:"url_ttl"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.SigningSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.URLTTL, validation.Min(time.Minute)),
		validation.Field(&c.MaxUploadBytes, validation.Min(int64(1))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ProviderConfig is one AI provider's credentials. An empty APIKey leaves the
// provider unregistered.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Enabled reports whether the provider has credentials.
func (c ProviderConfig) Enabled() bool { return c.APIKey != "" }

// EmbeddingConfig selects the provider that embeds framework chunks and
// retrieval queries.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Validate validates the embedding configuration.
func (c *EmbeddingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(EmbeddingOpenAI, EmbeddingGemini)),
		validation.Field(&c.Model, validation.When(c.Provider != EmbeddingNone, validation.Required)),
		validation.Field(&c.Dimensions, validation.When(c.Provider != EmbeddingNone, validation.Required, validation.Min(1))),
	)
}

// AIConfig holds provider credentials, the model catalogue and generation
// defaults.
type AIConfig struct {
	OpenAI             ProviderConfig     `yaml:"openai"`
	Gemini             ProviderConfig     `yaml:"gemini"`
	Embedding          EmbeddingConfig    `yaml:"embedding"`
	Models             []ai.ModelSpec     `yaml:"models"`
	Tiers              map[ai.Tier]string `yaml:"tiers"`
	DefaultMaxTokens   int                `yaml:"default_max_tokens"`
	DefaultTemperature float32            `yaml:"default_temperature"`
	RetryAttempts      uint               `yaml:"retry_attempts"`
}

// Validate validates the AI configuration. Tier and catalogue consistency is
// checked again when the registry is built.
func (c *AIConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Models, validation.Required),
		validation.Field(&c.DefaultMaxTokens, validation.Min(1)),
		validation.Field(&c.DefaultTemperature, validation.Min(float32(0)), validation.Max(float32(2))),
		validation.Field(&c.RetryAttempts, validation.Max(uint(10))),
	); err != nil {
		return err
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if c.Embedding.Provider == EmbeddingOpenAI && !c.OpenAI.Enabled() {
		return errors.New("embedding: provider openai needs ai.openai.api_key")
	}
	if c.Embedding.Provider == EmbeddingGemini && !c.Gemini.Enabled() {
		return errors.New("embedding: provider gemini needs ai.gemini.api_key")
	}
	_, err := ai.NewRegistry(c.Models, c.Tiers)
	return err
}

// RAGConfig tunes framework chunking and retrieval.
type RAGConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
}

// Validate validates the RAG configuration.
func (c *RAGConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TopK, validation.Required, validation.Min(1), validation.Max(20)),
		validation.Field(&c.SimilarityThreshold, validation.Min(-1.0), validation.Max(1.0)),
		validation.Field(&c.ChunkSize, validation.Required, validation.Min(100)),
		validation.Field(&c.ChunkOverlap, validation.Min(0), validation.Max(c.ChunkSize/2)),
	)
}

// FrameworksConfig points at a directory of Markdown frameworks that is
// imported on start and watched. Empty disables the watcher.
type FrameworksConfig struct {
	WatchDir string `yaml:"watch_dir"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./agencyhub.db",
		},
		Storage: StorageConfig{
			Path:           "./uploads",
			URLTTL:         15 * time.Minute,
			MaxUploadBytes: 25 << 20,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		AI: AIConfig{
			Models: []ai.ModelSpec{
				{ID: "gpt-4o-mini", Label: "GPT-4o mini", Provider: "openai", Tier: ai.TierSimple, InputPM: 0.15, OutputPM: 0.60},
				{ID: "gpt-4o", Label: "GPT-4o", Provider: "openai", Tier: ai.TierMedium, InputPM: 2.50, OutputPM: 10.00},
				{ID: "gemini-2.5-flash", Label: "Gemini 2.5 Flash", Provider: "gemini", Tier: ai.TierSimple, InputPM: 0.30, OutputPM: 2.50},
				{ID: "gemini-2.5-pro", Label: "Gemini 2.5 Pro", Provider: "gemini", Tier: ai.TierComplex, InputPM: 1.25, OutputPM: 10.00},
			},
			Tiers: map[ai.Tier]string{
				ai.TierSimple:  "gpt-4o-mini",
				ai.TierMedium:  "gpt-4o",
				ai.TierComplex: "gemini-2.5-pro",
			},
			DefaultMaxTokens:   2048,
			DefaultTemperature: 0.7,
		},
		RAG: RAGConfig{
			TopK:                5,
			SimilarityThreshold: 0.3,
			ChunkSize:           1200,
			ChunkOverlap:        200,
		},
	}
}
