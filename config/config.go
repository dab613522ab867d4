package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the grandma service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Corpus        CorpusConfig        `yaml:"corpus"`
	Index         IndexConfig         `yaml:"index"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Retrieve      RetrieveConfig      `yaml:"retrieve"`
	Generation    GenerationConfig    `yaml:"generation"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Ingest        IngestConfig        `yaml:"ingest"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gte=0"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" validate:"gte=0"` // 0 = disabled
	RateLimitBurst int           `yaml:"rate_limit_burst" validate:"gte=0"`
	UIDir          string        `yaml:"ui_dir"` // empty serves the embedded page
}

// CorpusConfig locates the source documents. Path may be a file or a directory.
type CorpusConfig struct {
	Path     string   `yaml:"path" validate:"required"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// IndexConfig holds splitting and vector index configuration.
type IndexConfig struct {
	Separator        string `yaml:"separator"`
	ChunkSize        int    `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap     int    `yaml:"chunk_overlap" validate:"gte=0,ltefield=ChunkSize"`
	Backend          string `yaml:"backend" validate:"oneof=memory bolt qdrant"`
	DBPath           string `yaml:"db_path"`
	QdrantHost       string `yaml:"qdrant_host"`
	QdrantPort       int    `yaml:"qdrant_port" validate:"gte=0"`
	QdrantCollection string `yaml:"qdrant_collection"`
	Workers          int    `yaml:"workers" validate:"gte=1"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=hashing openai ollama"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension" validate:"gt=0"`
	BatchSize int    `yaml:"batch_size" validate:"gt=0"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK              int     `yaml:"top_k" validate:"gt=0"`
	EvidenceK         int     `yaml:"evidence_k" validate:"gt=0,lte=3"`
	MinScoreThreshold float64 `yaml:"min_score_threshold"`               // Filter results below this score (0 = disabled)
	MMRLambda         float64 `yaml:"mmr_lambda" validate:"gte=0,lte=1"` // 0 = plain similarity order
	DedupJaccard      float64 `yaml:"dedup_jaccard" validate:"gte=0,lte=1"`
}

// GenerationConfig holds generation engine configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider" validate:"oneof=gemini openai ollama"`
	Model       string        `yaml:"model" validate:"required"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gte=0"`
	MaxRetries  int           `yaml:"max_retries" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"` // 0 = unbounded
}

// TranscriptionConfig holds speech-to-text configuration.
type TranscriptionConfig struct {
	Provider  string        `yaml:"provider" validate:"oneof=whisper"`
	Model     string        `yaml:"model" validate:"required"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
}

// IngestConfig holds voice ingestion configuration.
type IngestConfig struct {
	UploadDir        string `yaml:"upload_dir" validate:"required"`
	Extension        string `yaml:"extension"`
	DefaultMood      string `yaml:"default_mood"`
	RAGURL           string `yaml:"rag_url"` // empty answers in-process
	MaxAllocAttempts int    `yaml:"max_alloc_attempts" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     ":5000",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   0,
			MaxUploadBytes: 25 << 20,
			RateLimitRPS:   0,
			RateLimitBurst: 10,
		},
		Corpus: CorpusConfig{
			Path:     "grandma.txt",
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.git/**"},
		},
		Index: IndexConfig{
			Separator:        "\n",
			ChunkSize:        500,
			ChunkOverlap:     30,
			Backend:          "memory",
			DBPath:           filepath.Join(".grandma", "index.db"),
			QdrantHost:       "localhost",
			QdrantPort:       6334,
			QdrantCollection: "grandma",
			Workers:          4,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hashing",
			Model:     "hashing-ngram",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 512,
			BatchSize: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:         4,
			EvidenceK:    3,
			DedupJaccard: 0.9,
		},
		Generation: GenerationConfig{
			Provider:    "gemini",
			Model:       "gemini-1.5-pro-latest",
			APIKeyEnv:   "GOOGLE_API_KEY",
			Temperature: 0.8,
			MaxRetries:  5,
			Timeout:     0,
		},
		Transcription: TranscriptionConfig{
			Provider:  "whisper",
			Model:     "whisper-1",
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   2 * time.Minute,
		},
		Ingest: IngestConfig{
			UploadDir:        "uploads",
			Extension:        ".wav",
			DefaultMood:      "neutral",
			MaxAllocAttempts: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. ${VAR} references are
// expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for grandma.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "grandma.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".grandma", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadDotEnv loads .env.local then .env from dir. Variables already set in
// the process environment are never overridden.
func LoadDotEnv(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveAPIKey reads the key named by envName. An empty envName yields "".
func ResolveAPIKey(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}

// ResolvePath makes a relative path absolute against dir.
func ResolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// EnsureDir ensures the parent directory of path exists.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
