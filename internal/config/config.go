package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the knowme application configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chat      ChatConfig      `yaml:"chat"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Agent     AgentConfig     `yaml:"agent"`
	Stores    StoresConfig    `yaml:"stores"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// APIKeys enables bearer auth on the ask endpoints when non-empty.
	APIKeys []string `yaml:"api_keys"`
}

// ChunkingConfig controls how documents are split before indexing.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig controls similarity search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// ChatConfig holds chat model settings.
type ChatConfig struct {
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float32 `yaml:"temperature"`
	RequestTimeout int     `yaml:"request_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// AgentConfig holds router agent settings.
type AgentConfig struct {
	// MaxToolIterations bounds the tool-call loop per question.
	MaxToolIterations int `yaml:"max_tool_iterations"`
}

// StoresConfig names the persisted index location per knowledge source.
type StoresConfig struct {
	SiteDir string `yaml:"site_dir"`
	CVDir   string `yaml:"cv_dir"`
}

// SessionsConfig selects and configures conversation history retention.
type SessionsConfig struct {
	Driver      string   `yaml:"driver"` // memory, redis (default: memory)
	MaxSessions int      `yaml:"max_sessions"`
	IdleTTLSec  int      `yaml:"idle_ttl_sec"` // 0 = no expiry
	Addrs       []string `yaml:"addrs"`
	Password    string   `yaml:"password"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the environment's config file, falling back to pure
// defaults when no file exists. Used by the CLI where a config file is
// optional.
func LoadOrDefault(env string) (Config, error) {
	if fileExists(findConfigPath(env)) {
		return Load(env)
	}
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid default config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Answer synthesis can take tens of seconds against a hosted model.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Chunking.ChunkSize <= 0 {
		c.Chunking.ChunkSize = 1000
	}
	if c.Chunking.ChunkOverlap <= 0 {
		c.Chunking.ChunkOverlap = 200
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 6
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "gpt-4o"
	}
	if c.Chat.APIKey == "" {
		c.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Chat.RequestTimeout <= 0 {
		c.Chat.RequestTimeout = 60
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Agent.MaxToolIterations <= 0 {
		c.Agent.MaxToolIterations = 4
	}
	if c.Stores.SiteDir == "" {
		c.Stores.SiteDir = filepath.Join("stores", "site")
	}
	if c.Stores.CVDir == "" {
		c.Stores.CVDir = filepath.Join("stores", "cv")
	}
	if c.Sessions.Driver == "" {
		c.Sessions.Driver = "memory"
	}
	if c.Sessions.MaxSessions <= 0 {
		c.Sessions.MaxSessions = 1024
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf(
			"chunking.chunk_overlap must be in [0, chunk_size), got %d (chunk_size %d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize,
		)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	switch c.Sessions.Driver {
	case "memory":
	case "redis":
		if len(c.Sessions.Addrs) == 0 {
			return fmt.Errorf("sessions.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("sessions.driver must be \"memory\" or \"redis\", got %q", c.Sessions.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
