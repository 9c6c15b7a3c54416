package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/agencyhub/internal/ai"
	pkgconfig "github.com/starford/agencyhub/pkg/config"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Storage.SigningSecret = "0123456789abcdef0123"
	return cfg
}

func TestDefaultConfig_ValidWithSecret(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config with secret should pass: %v", err)
	}
	if err := NewDefaultConfig().Validate(); err == nil {
		t.Fatal("default config without signing secret should fail")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestStorageConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StorageConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*StorageConfig) {}},
		{name: "short secret", mutate: func(c *StorageConfig) { c.SigningSecret = "short" }, wantErr: true},
		{name: "ttl below a minute", mutate: func(c *StorageConfig) { c.URLTTL = 10 * time.Second }, wantErr: true},
		{name: "negative upload limit", mutate: func(c *StorageConfig) { c.MaxUploadBytes = -1 }, wantErr: true},
		{name: "no path", mutate: func(c *StorageConfig) { c.Path = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig().Storage
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAIConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AIConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*AIConfig) {}},
		{name: "openai embedding without key", mutate: func(c *AIConfig) {
			c.Embedding = EmbeddingConfig{Provider: EmbeddingOpenAI, Model: "text-embedding-3-small", Dimensions: 1536}
		}, wantErr: "api_key"},
		{name: "gemini embedding with key", mutate: func(c *AIConfig) {
			c.Gemini.APIKey = "g-key"
			c.Embedding = EmbeddingConfig{Provider: EmbeddingGemini, Model: "gemini-embedding-001", Dimensions: 768}
		}},
		{name: "embedding without model", mutate: func(c *AIConfig) {
			c.OpenAI.APIKey = "sk"
			c.Embedding = EmbeddingConfig{Provider: EmbeddingOpenAI, Dimensions: 10}
		}, wantErr: "Model"},
		{name: "unknown embedding provider", mutate: func(c *AIConfig) {
			c.Embedding = EmbeddingConfig{Provider: "cohere", Model: "x", Dimensions: 1}
		}, wantErr: "Provider"},
		{name: "tier names unknown model", mutate: func(c *AIConfig) {
			c.Tiers = map[ai.Tier]string{ai.TierSimple: "gpt-9"}
		}, wantErr: "gpt-9"},
		{name: "no models", mutate: func(c *AIConfig) { c.Models = nil }, wantErr: "Models"},
		{name: "temperature too high", mutate: func(c *AIConfig) { c.DefaultTemperature = 3 }, wantErr: "DefaultTemperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig().AI
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRAGConfig_OverlapBoundedByChunkSize(t *testing.T) {
	cfg := RAGConfig{TopK: 5, ChunkSize: 400, ChunkOverlap: 300}
	if err := cfg.Validate(); err == nil {
		t.Fatal("overlap above half the chunk size should fail")
	}
	cfg.ChunkOverlap = 100
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestShippedConfig(t *testing.T) {
	t.Setenv("STORAGE_SIGNING_SECRET", "0123456789abcdef0123")
	t.Setenv("AUTH_TOKEN", "token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load("../config/config.yaml", cfg); err != nil {
		t.Fatalf("shipped config does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("shipped config is invalid: %v", err)
	}
	if cfg.AI.RetryAttempts != 0 {
		t.Errorf("retry_attempts = %d, AI calls are not retried by default", cfg.AI.RetryAttempts)
	}
}
