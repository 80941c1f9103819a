package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds connection details for an OpenAI-compatible endpoint.
// The API key itself stays in the environment; only the variable name is
// configured here.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig configures the embedding client.
type EmbedderConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
}

// GeneratorConfig configures the answer-generation client.
type GeneratorConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig tunes the relevance classifier. Thresholds are cosine
// distances; recalibrate them if the store's metric ever changes.
type RetrievalConfig struct {
	TopK              int     `yaml:"top_k"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
	StrongThreshold   float64 `yaml:"strong_threshold"`
	MaxSources        int     `yaml:"max_sources"`
}

// LoggingConfig selects the log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder        EmbedderConfig    `yaml:"embedder"`
	Generator       GeneratorConfig   `yaml:"generator"`
	VectorStore     VectorStoreConfig `yaml:"vector_store"`
	Retrieval       RetrievalConfig   `yaml:"retrieval"`
	SourceLinksPath string            `yaml:"source_links_path"`
	Logging         LoggingConfig     `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/kbbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/kbbot/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kbbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		VectorStore:     VectorStoreConfig{Type: "memory"},
		SourceLinksPath: "source_links.yaml",
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	applyOpenAIDefaults(&cfg.Embedder.OpenAI, "text-embedding-3-small")
	applyOpenAIDefaults(&cfg.Generator.OpenAI, "gpt-4o-mini")
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "knowledge_base"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 8
	}
	if cfg.Retrieval.DistanceThreshold == 0 {
		cfg.Retrieval.DistanceThreshold = 0.75
	}
	if cfg.Retrieval.StrongThreshold == 0 {
		cfg.Retrieval.StrongThreshold = 0.50
	}
	if cfg.Retrieval.MaxSources == 0 {
		cfg.Retrieval.MaxSources = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
}
