package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	Neo4j       Neo4jConfig       `json:"neo4j"`
	OpenAI      OpenAIConfig      `json:"openai"`
	VectorIndex VectorIndexConfig `json:"vector_index"`
	Database    DatabaseConfig    `json:"database"`
	SchemaCache SchemaCacheConfig `json:"schema_cache"`
	Selector    SelectorConfig    `json:"selector"`
	Logging     LoggingConfig     `json:"logging"`
}

// Neo4jConfig represents the graph store connection configuration
type Neo4jConfig struct {
	URI      string `json:"uri"      env:"NEO4J_URI"      envDefault:"bolt://localhost:7687"`
	User     string `json:"user"     env:"NEO4J_USER"     envDefault:"neo4j"`
	Password string `json:"password" env:"NEO4J_PASSWORD" envDefault:""`
	Database string `json:"database" env:"NEO4J_DATABASE" envDefault:"neo4j"`
}

// OpenAIConfig represents the embedding and chat provider configuration
type OpenAIConfig struct {
	APIKey         string  `json:"api_key"         env:"OPENAI_API_KEY"         envDefault:""`
	BaseURL        string  `json:"base_url"        env:"OPENAI_BASE_URL"        envDefault:"https://api.openai.com/v1"`
	EmbeddingModel string  `json:"embedding_model" env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dimensions     int     `json:"dimensions"      env:"OPENAI_DIMENSIONS"      envDefault:"1536"`
	ChatModel      string  `json:"chat_model"      env:"OPENAI_CHAT_MODEL"      envDefault:"gpt-4o-mini"`
	Temperature    float64 `json:"temperature"     env:"OPENAI_TEMPERATURE"     envDefault:"0.0"`
}

// VectorIndexConfig represents vector index settings for the graph store
type VectorIndexConfig struct {
	IndexName          string `json:"index_name"          env:"INDEX_NAME"          envDefault:"schema_embeddings"`
	SimilarityFunction string `json:"similarity_function" env:"SIMILARITY_FUNCTION" envDefault:"cosine"` // cosine, euclidean
	TopK               int    `json:"top_k"               env:"TOP_K"               envDefault:"10"`
}

// DatabaseConfig represents the relational catalog connection used by the
// schema loader path
type DatabaseConfig struct {
	DSN        string `json:"dsn"         env:"DB_DSN"         envDefault:""`
	SchemaName string `json:"schema_name" env:"DB_SCHEMA_NAME" envDefault:""`
}

// SchemaCacheConfig represents the table schema cache configuration
type SchemaCacheConfig struct {
	TTL      time.Duration `json:"ttl"      env:"CACHE_TTL"      envDefault:"30m"`
	Capacity int           `json:"capacity" env:"CACHE_CAPACITY" envDefault:"20"`
}

// SelectorConfig represents the keyword table selector configuration
type SelectorConfig struct {
	MaxTables      int      `json:"max_tables"      env:"SELECTOR_MAX_TABLES" envDefault:"5"`
	FallbackTables []string `json:"fallback_tables" env:"SELECTOR_FALLBACK"   envDefault:"film,actor,customer"`
	VocabularyFile string   `json:"vocabulary_file" env:"SELECTOR_VOCABULARY" envDefault:""`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"` // text, json
}

// Load loads configuration from the config file and environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Environment variables override the file; defaults come from env tags
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "TEXT2SQL_",
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a JSON file
func loadFromFile(cfg *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(cfg, &fileCfg)

	return nil
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct && t.Type() != reflect.TypeOf(time.Time{}) {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validate validates the configuration for common errors
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			cfg.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Logging.Format)
	}

	validSimilarity := map[string]bool{
		"cosine": true, "euclidean": true,
	}
	if !validSimilarity[strings.ToLower(cfg.VectorIndex.SimilarityFunction)] {
		return fmt.Errorf(
			"invalid similarity function: %s (must be cosine or euclidean)",
			cfg.VectorIndex.SimilarityFunction,
		)
	}

	if cfg.VectorIndex.TopK < 1 {
		return fmt.Errorf("vector index top_k must be positive: %d", cfg.VectorIndex.TopK)
	}

	if cfg.OpenAI.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive: %d", cfg.OpenAI.Dimensions)
	}

	if cfg.SchemaCache.Capacity <= 0 {
		return fmt.Errorf("schema cache capacity must be positive: %d", cfg.SchemaCache.Capacity)
	}

	if cfg.SchemaCache.TTL <= 0 {
		return fmt.Errorf("schema cache ttl must be positive: %s", cfg.SchemaCache.TTL)
	}

	if cfg.Selector.MaxTables <= 0 {
		return fmt.Errorf("selector max tables must be positive: %d", cfg.Selector.MaxTables)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("TEXT2SQL_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "text2sql", "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}
