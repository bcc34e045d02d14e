package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the skillrank service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Correction CorrectionConfig `yaml:"correction"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Search     SearchConfig     `yaml:"search"`
	Ontology   OntologyConfig   `yaml:"ontology"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // 0 after defaults keeps SSE streams open
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// PostgresConfig holds resume store settings.
type PostgresConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	View     string `yaml:"view"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
}

// AI corrector providers.
const (
	AIProviderNone   = "none"
	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

// CorrectionConfig holds typo correction settings.
type CorrectionConfig struct {
	Threshold    float64 `yaml:"threshold"`
	AIProvider   string  `yaml:"ai_provider"` // none, openai, gemini
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	TimeoutMs    int     `yaml:"timeout_ms"`
	LearnedStore bool    `yaml:"learned_store"`
}

// Timeout returns the AI call budget.
func (c CorrectionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Tier modes.
const (
	TierModeThree = "three"
	TierModeFive  = "five"
)

// ScoringConfig holds tiered scoring settings.
type ScoringConfig struct {
	TierMode string `yaml:"tier_mode"`
}

// SearchConfig holds orchestrator limits and per-call budgets.
type SearchConfig struct {
	DefaultLimit      int     `yaml:"default_limit"`
	MaxLimit          int     `yaml:"max_limit"`
	StoreTimeoutMs    int     `yaml:"store_timeout_ms"`
	EmbedTimeoutMs    int     `yaml:"embed_timeout_ms"`
	VectorTimeoutMs   int     `yaml:"vector_timeout_ms"`
	EnrichTimeoutMs   int     `yaml:"enrich_timeout_ms"`
	EnrichTopN        int     `yaml:"enrich_top_n"`
	KeywordOnlyWeight float64 `yaml:"keyword_only_weight"`
}

// OntologyConfig points at an optional ontology file replacing the embedded default.
type OntologyConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, unmarshals, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}
	if c.Postgres.MaxConns <= 0 {
		c.Postgres.MaxConns = 10
	}
	if c.Postgres.View == "" {
		c.Postgres.View = "candidate_competency"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 7
	}
	if c.Correction.Threshold == 0 {
		c.Correction.Threshold = 0.82
	}
	if c.Correction.AIProvider == "" {
		c.Correction.AIProvider = AIProviderNone
	}
	if c.Correction.TimeoutMs <= 0 {
		c.Correction.TimeoutMs = 1500
	}
	if c.Scoring.TierMode == "" {
		c.Scoring.TierMode = TierModeFive
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.StoreTimeoutMs <= 0 {
		c.Search.StoreTimeoutMs = 300
	}
	if c.Search.EmbedTimeoutMs <= 0 {
		c.Search.EmbedTimeoutMs = 2000
	}
	if c.Search.VectorTimeoutMs <= 0 {
		c.Search.VectorTimeoutMs = 1000
	}
	if c.Search.EnrichTimeoutMs <= 0 {
		c.Search.EnrichTimeoutMs = 1000
	}
	if c.Search.EnrichTopN <= 0 {
		c.Search.EnrichTopN = 20
	}
	if c.Search.KeywordOnlyWeight == 0 {
		c.Search.KeywordOnlyWeight = 0.5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required")
	}
	if c.Correction.Threshold <= 0 || c.Correction.Threshold > 1 {
		return fmt.Errorf("correction.threshold must be in (0, 1], got %g", c.Correction.Threshold)
	}
	switch c.Correction.AIProvider {
	case AIProviderNone, AIProviderOpenAI, AIProviderGemini:
	default:
		return fmt.Errorf(
			"correction.ai_provider must be %q, %q or %q, got %q",
			AIProviderNone, AIProviderOpenAI, AIProviderGemini, c.Correction.AIProvider,
		)
	}
	switch c.Scoring.TierMode {
	case TierModeThree, TierModeFive:
	default:
		return fmt.Errorf("scoring.tier_mode must be %q or %q, got %q", TierModeThree, TierModeFive, c.Scoring.TierMode)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.KeywordOnlyWeight < 0 || c.Search.KeywordOnlyWeight > 1 {
		return fmt.Errorf("search.keyword_only_weight must be in [0, 1], got %g", c.Search.KeywordOnlyWeight)
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
