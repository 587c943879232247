// Package config loads service settings from defaults, an optional
// config.yaml, a .env file and IDVERIFY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	OCR        OCRConfig        `mapstructure:"ocr" yaml:"ocr"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Share      ShareConfig      `mapstructure:"share" yaml:"share"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            string        `mapstructure:"port" yaml:"port"`
	BodyLimitMB     int64         `mapstructure:"body_limit_mb" yaml:"body_limit_mb"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	FrontendBaseURL string        `mapstructure:"frontend_base_url" yaml:"frontend_base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// OperatorSecret signs operator bearer tokens; empty disables the
	// operator routes.
	OperatorSecret string `mapstructure:"operator_secret" yaml:"operator_secret"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

type OCRConfig struct {
	// Engine is vision, tesseract or none.
	Engine          string `mapstructure:"engine" yaml:"engine"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	RetryAttempts   uint   `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	TesseractBinary string `mapstructure:"tesseract_binary" yaml:"tesseract_binary"`
	TesseractLang   string `mapstructure:"tesseract_lang" yaml:"tesseract_lang"`
	TesseractPSM    int    `mapstructure:"tesseract_psm" yaml:"tesseract_psm"`
	TessdataDir     string `mapstructure:"tessdata_dir" yaml:"tessdata_dir"`
	Preprocess      bool   `mapstructure:"preprocess" yaml:"preprocess"`
}

type ClassifierConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// APIKey may reference the environment as ${GEMINI_API_KEY}.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
	// AspectFallback adds the aspect-ratio heuristic after Gemini.
	AspectFallback bool `mapstructure:"aspect_fallback" yaml:"aspect_fallback"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

type RedisConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Password          string        `mapstructure:"password" yaml:"password"`
	DB                int           `mapstructure:"db" yaml:"db"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Window            time.Duration `mapstructure:"window" yaml:"window"`
}

type ShareConfig struct {
	// Secret falls back to SHARE_TOKEN_SECRET then JWT_SECRET.
	Secret   string `mapstructure:"secret" yaml:"secret"`
	MaxHours int    `mapstructure:"max_hours" yaml:"max_hours"`
}

type ThresholdsConfig struct {
	MismatchConfidence float64 `mapstructure:"mismatch_confidence" yaml:"mismatch_confidence"`
	VerifiedConfidence float64 `mapstructure:"verified_confidence" yaml:"verified_confidence"`
	MaxFieldLength     int     `mapstructure:"max_field_length" yaml:"max_field_length"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			BodyLimitMB:     10,
			AllowedOrigins:  []string{"*"},
			FrontendBaseURL: "http://localhost:3000",
			RequestTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		OCR: OCRConfig{
			Engine:          "tesseract",
			RetryAttempts:   3,
			TesseractBinary: "tesseract",
			TesseractLang:   "eng+fil",
			TesseractPSM:    6,
			Preprocess:      true,
		},
		Classifier: ClassifierConfig{
			Enabled:        true,
			APIKey:         "${GEMINI_API_KEY}",
			Model:          "gemini-2.0-flash-lite",
			AspectFallback: true,
		},
		Redis: RedisConfig{
			Addr:              "localhost:6379",
			RequestsPerMinute: 30,
			Window:            time.Minute,
		},
		Share: ShareConfig{MaxHours: 168},
		Thresholds: ThresholdsConfig{
			MismatchConfidence: 0.6,
			VerifiedConfidence: 0.7,
			MaxFieldLength:     100,
		},
	}
}

// Load reads the configuration. cfgFile may be empty, in which case
// config.yaml is looked up in ., ./config and $HOME/.idverify and is not
// required.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("IDVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.idverify")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Classifier.APIKey = ResolveEnvVars(cfg.Classifier.APIKey)
	cfg.Share.Secret = ResolveEnvVars(cfg.Share.Secret)
	cfg.Server.OperatorSecret = ResolveEnvVars(cfg.Server.OperatorSecret)
	if cfg.Share.Secret == "" {
		cfg.Share.Secret = firstEnv("SHARE_TOKEN_SECRET", "JWT_SECRET")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf key so that environment overrides of
// nested keys are seen by Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.body_limit_mb", d.Server.BodyLimitMB)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.frontend_base_url", d.Server.FrontendBaseURL)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.operator_secret", d.Server.OperatorSecret)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.credentials_file", d.OCR.CredentialsFile)
	v.SetDefault("ocr.retry_attempts", d.OCR.RetryAttempts)
	v.SetDefault("ocr.tesseract_binary", d.OCR.TesseractBinary)
	v.SetDefault("ocr.tesseract_lang", d.OCR.TesseractLang)
	v.SetDefault("ocr.tesseract_psm", d.OCR.TesseractPSM)
	v.SetDefault("ocr.tessdata_dir", d.OCR.TessdataDir)
	v.SetDefault("ocr.preprocess", d.OCR.Preprocess)

	v.SetDefault("classifier.enabled", d.Classifier.Enabled)
	v.SetDefault("classifier.api_key", d.Classifier.APIKey)
	v.SetDefault("classifier.model", d.Classifier.Model)
	v.SetDefault("classifier.aspect_fallback", d.Classifier.AspectFallback)

	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.requests_per_minute", d.Redis.RequestsPerMinute)
	v.SetDefault("redis.window", d.Redis.Window)

	v.SetDefault("share.secret", d.Share.Secret)
	v.SetDefault("share.max_hours", d.Share.MaxHours)

	v.SetDefault("thresholds.mismatch_confidence", d.Thresholds.MismatchConfidence)
	v.SetDefault("thresholds.verified_confidence", d.Thresholds.VerifiedConfidence)
	v.SetDefault("thresholds.max_field_length", d.Thresholds.MaxFieldLength)
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.OCR.Engine {
	case "vision", "tesseract", "none":
	default:
		return fmt.Errorf("ocr.engine must be vision, tesseract or none, got %q", c.OCR.Engine)
	}
	for name, val := range map[string]float64{
		"thresholds.mismatch_confidence": c.Thresholds.MismatchConfidence,
		"thresholds.verified_confidence": c.Thresholds.VerifiedConfidence,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, val)
		}
	}
	if c.Thresholds.MaxFieldLength <= 0 {
		return fmt.Errorf("thresholds.max_field_length must be positive, got %d", c.Thresholds.MaxFieldLength)
	}
	if c.Share.MaxHours < 1 || c.Share.MaxHours > 168 {
		return fmt.Errorf("share.max_hours must be between 1 and 168, got %d", c.Share.MaxHours)
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
