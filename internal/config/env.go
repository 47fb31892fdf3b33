package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/markdave123-py/papernotes/internal/core"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	ExtractorUnstructured = "unstructured"
	ExtractorDocconv      = "docconv"
)

type Config struct {
	DatabaseURL        string `yaml:"database_url"`
	DatabasePrivateKey string `yaml:"database_private_key"`

	LLMProvider          string  `yaml:"llm_provider"`
	OpenAIAPIKey         string  `yaml:"openai_api_key"`
	GeminiAPIKey         string  `yaml:"gemini_api_key"`
	ChatModel            string  `yaml:"chat_model"`
	EmbedModel           string  `yaml:"embed_model"`
	EmbedDim             int     `yaml:"embed_dim"`
	EmbedBatchSize       int     `yaml:"embed_batch_size"`
	LLMRequestsPerSecond float64 `yaml:"llm_requests_per_second"`

	Extractor            string `yaml:"extractor"`
	UnstructuredAPIKey   string `yaml:"unstructured_api_key"`
	UnstructuredURL      string `yaml:"unstructured_api_url"`
	UnstructuredStrategy string `yaml:"unstructured_strategy"`
	StagingDir           string `yaml:"staging_dir"`
	ChunkTargetTokens    int    `yaml:"chunk_target_tokens"`
	ChunkOverlapTokens   int    `yaml:"chunk_overlap_tokens"`

	ArchiveBucket string `yaml:"archive_bucket"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`

	JWTSecret      string        `yaml:"jwt_secret"`
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"cors_allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	MaxPDFBytes    int64         `yaml:"max_pdf_bytes"`
	QATopK         int           `yaml:"qa_top_k"`
	WebDir         string        `yaml:"web_dir"`

	LogLevel  string `yaml:"log_level"`
	LogOutput string `yaml:"log_output"`
}

// Defaults returns the configuration used when nothing overrides a key.
func Defaults() *Config {
	return &Config{
		LLMProvider:          ProviderOpenAI,
		ChatModel:            "gpt-4o-mini",
		EmbedModel:           "text-embedding-3-small",
		EmbedDim:             1536,
		EmbedBatchSize:       16,
		Extractor:            ExtractorUnstructured,
		UnstructuredURL:      "https://api.unstructuredapp.io/general/v0/general",
		UnstructuredStrategy: "hi_res",
		ChunkTargetTokens:    250,
		ChunkOverlapTokens:   20,
		AwsRegion:            "us-east-2",
		Port:                 "8000",
		AllowedOrigins:       []string{"http://localhost:3000"},
		RequestTimeout:       15 * time.Minute,
		FetchTimeout:         2 * time.Minute,
		MaxPDFBytes:          64 << 20,
		QATopK:               5,
		WebDir:               "./web",
		LogLevel:             "info",
		LogOutput:            "stderr",
	}
}

// LoadConfig reads .env, the optional CONFIG_FILE yaml and the environment,
// in increasing order of precedence, and validates the result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, core.ConfigError("config", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, core.ConfigError("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DatabasePrivateKey, "DATABASE_PRIVATE_KEY")
	setString(&c.LLMProvider, "LLM_PROVIDER")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.ChatModel, "CHAT_MODEL")
	setString(&c.EmbedModel, "EMBED_MODEL")
	setString(&c.Extractor, "EXTRACTOR")
	setString(&c.UnstructuredAPIKey, "UNSTRUCTURED_API_KEY")
	setString(&c.UnstructuredURL, "UNSTRUCTURED_API_URL")
	setString(&c.UnstructuredStrategy, "UNSTRUCTURED_STRATEGY")
	setString(&c.StagingDir, "STAGING_DIR")
	setString(&c.ArchiveBucket, "ARCHIVE_BUCKET")
	setString(&c.AwsAccessKey, "AWS_ACCESS_KEY")
	setString(&c.AwsSecretKey, "AWS_SECRET_KEY")
	setString(&c.AwsRegion, "AWS_REGION")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.Port, "PORT")
	setString(&c.WebDir, "WEB_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogOutput, "LOG_OUTPUT")

	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	errs = append(errs,
		setInt(&c.EmbedDim, "EMBED_DIM"),
		setInt(&c.EmbedBatchSize, "EMBED_BATCH_SIZE"),
		setInt(&c.ChunkTargetTokens, "CHUNK_TARGET_TOKENS"),
		setInt(&c.ChunkOverlapTokens, "CHUNK_OVERLAP_TOKENS"),
		setInt(&c.QATopK, "QA_TOP_K"),
		setInt64(&c.MaxPDFBytes, "MAX_PDF_BYTES"),
		setFloat(&c.LLMRequestsPerSecond, "LLM_REQUESTS_PER_SECOND"),
		setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT"),
		setDuration(&c.FetchTimeout, "FETCH_TIMEOUT"),
	)
	return errors.Join(errs...)
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	missing := func(key string) {
		errs = append(errs, fmt.Errorf("%s is not set: %w", key, core.ErrMissingCredential))
	}

	if c.DatabaseURL == "" {
		missing("DATABASE_URL")
	} else if u, err := url.Parse(c.DatabaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid DATABASE_URL: %w", err))
	} else if _, hasPassword := u.User.Password(); !hasPassword && c.DatabasePrivateKey == "" {
		missing("DATABASE_PRIVATE_KEY")
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			missing("OPENAI_API_KEY")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			missing("GEMINI_API_KEY")
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.Extractor {
	case ExtractorUnstructured:
		if c.UnstructuredAPIKey == "" {
			missing("UNSTRUCTURED_API_KEY")
		}
	case ExtractorDocconv:
	default:
		errs = append(errs, fmt.Errorf("unknown EXTRACTOR %q", c.Extractor))
	}

	if c.ArchiveBucket != "" {
		if c.AwsAccessKey == "" {
			missing("AWS_ACCESS_KEY")
		}
		if c.AwsSecretKey == "" {
			missing("AWS_SECRET_KEY")
		}
		if c.AwsRegion == "" {
			missing("AWS_REGION")
		}
	}

	if c.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize))
	}
	if c.QATopK <= 0 {
		errs = append(errs, fmt.Errorf("QA_TOP_K must be positive, got %d", c.QATopK))
	}
	if c.MaxPDFBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PDF_BYTES must be positive, got %d", c.MaxPDFBytes))
	}

	if len(errs) > 0 {
		return core.ConfigError("config", errors.Join(errs...))
	}
	return nil
}

// DSN returns DatabaseURL with DatabasePrivateKey injected as the password
// when the URL does not already carry one.
func (c *Config) DSN() (string, error) {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if _, ok := u.User.Password(); ok || c.DatabasePrivateKey == "" {
		return c.DatabaseURL, nil
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, c.DatabasePrivateKey)
	return u.String(), nil
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }

// ArchiveEnabled reports whether fetched PDFs are copied to object storage.
func (c *Config) ArchiveEnabled() bool { return c.ArchiveBucket != "" }

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s=%q is not an int", key, v)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s=%q is not an int", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s=%q is not a number", key, v)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s=%q is not a duration", key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
