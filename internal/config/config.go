package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gcedu/attrition-pipeline/internal/feature"
	"github.com/gcedu/attrition-pipeline/internal/model"
	"github.com/gcedu/attrition-pipeline/internal/validator"
)

// SISConfig is the connection to the student information system.
type SISConfig struct {
	Host     string `env:"SIS_HOST" validate:"required"`
	Port     int    `env:"SIS_PORT" validate:"gte=1,lte=65535"`
	User     string `env:"SIS_USER" validate:"required"`
	Password string `env:"SIS_PASSWORD"`
	Database string `env:"SIS_DATABASE" validate:"required"`
	SSLMode  string `env:"SIS_SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// DSN returns the postgres connection URL.
func (c SISConfig) DSN() string {
	q := make(url.Values)
	q.Set("sslmode", c.SSLMode)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Config holds all pipeline configuration.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=pretty json"`
	// LogFile, when set, receives a copy of every log line.
	LogFile string `env:"LOG_FILE"`

	SIS        SISConfig `validate:"required"`
	MaxDBConns int32     `env:"MAX_DB_CONNS" validate:"gte=1"`
	// RedisURL enables the run registry. Empty disables locking and reports.
	RedisURL string `env:"REDIS_URL"`

	RawDataDir       string `env:"RAW_DATA_DIR" validate:"required"`
	ProcessedDataDir string `env:"PROCESSED_DATA_DIR" validate:"required"`

	Policy feature.Policy `validate:"required"`

	CurrTerm     model.TermCode `env:"CURR_TERM" validate:"omitempty,termcode"`
	PrevTerm     model.TermCode `env:"PREV_TERM" validate:"omitempty,termcode"`
	CurrTermText string         `env:"CURR_TERM_TEXT"`

	RunTimeout time.Duration `env:"RUN_TIMEOUT_MINUTES" validate:"gt=0"`
	// PipelineConfig is an optional YAML file overriding Policy.
	PipelineConfig string `env:"PIPELINE_CONFIG"`
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing. The feature
// policy may be overridden from the YAML file named by PIPELINE_CONFIG.
func Load() (*Config, error) {
	_ = godotenv.Load()

	policy := feature.DefaultPolicy()
	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),
		LogFile:   getEnv("LOG_FILE", ""),
		SIS: SISConfig{
			Host:     getEnv("SIS_HOST", "localhost"),
			Port:     getEnvInt("SIS_PORT", 5432),
			User:     getEnv("SIS_USER", "attrition"),
			Password: getEnv("SIS_PASSWORD", "attrition_secret"),
			Database: getEnv("SIS_DATABASE", "cams"),
			SSLMode:  getEnv("SIS_SSLMODE", "disable"),
		},
		MaxDBConns:       int32(getEnvInt("MAX_DB_CONNS", 4)),
		RedisURL:         getEnv("REDIS_URL", ""),
		RawDataDir:       getEnv("RAW_DATA_DIR", "./data/raw"),
		ProcessedDataDir: getEnv("PROCESSED_DATA_DIR", "./data/processed"),
		Policy: feature.Policy{
			CenturyMarker:       getEnv("CENTURY_MARKER", policy.CenturyMarker),
			StartYear:           getEnvInt("START_YEAR", policy.StartYear),
			Seasons:             getEnv("SEASONS", policy.Seasons),
			DevSectionPrefix:    getEnv("DEV_SECTION_PREFIX", policy.DevSectionPrefix),
			OnlineSectionMarker: getEnv("ONLINE_SECTION_MARKER", policy.OnlineSectionMarker),
		},
		CurrTerm:       model.TermCode(getEnv("CURR_TERM", "")),
		PrevTerm:       model.TermCode(getEnv("PREV_TERM", "")),
		CurrTermText:   getEnv("CURR_TERM_TEXT", ""),
		RunTimeout:     time.Duration(getEnvInt("RUN_TIMEOUT_MINUTES", 10)) * time.Minute,
		PipelineConfig: getEnv("PIPELINE_CONFIG", ""),
	}

	if cfg.PipelineConfig != "" {
		if err := cfg.applyPolicyFile(cfg.PipelineConfig); err != nil {
			return nil, err
		}
	}

	if err := validator.Check(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// policyFile is the layout of the PIPELINE_CONFIG file.
type policyFile struct {
	Policy *feature.Policy `yaml:"policy"`
}

// applyPolicyFile overlays the non-zero fields of the file's policy block.
func (c *Config) applyPolicyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pipeline config: %w", err)
	}
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse pipeline config %s: %w", path, err)
	}
	if f.Policy == nil {
		return nil
	}

	p := f.Policy
	if p.CenturyMarker != "" {
		c.Policy.CenturyMarker = p.CenturyMarker
	}
	if p.StartYear != 0 {
		c.Policy.StartYear = p.StartYear
	}
	if p.Seasons != "" {
		c.Policy.Seasons = p.Seasons
	}
	if p.DevSectionPrefix != "" {
		c.Policy.DevSectionPrefix = p.DevSectionPrefix
	}
	if p.OnlineSectionMarker != "" {
		c.Policy.OnlineSectionMarker = p.OnlineSectionMarker
	}
	return nil
}

// CohortFilter derives the extraction window from the policy. The window
// runs from the policy start year through the current year.
func (c *Config) CohortFilter(now time.Time) model.CohortFilter {
	return model.CohortFilter{
		StartYear:          c.Policy.StartYear,
		EndYear:            now.Year(),
		IncludeSummer:      false,
		MajorLookbackYears: 10,
		CurrentTermText:    c.CurrTermText,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
