package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MaxResults int              `yaml:"max_results"`
	RunOnStart bool             `yaml:"run_on_start"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Server     ServerConfig     `yaml:"server"`
	Mail       MailConfig       `yaml:"mail"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Digest     DigestConfig     `yaml:"digest"`
}

// ScheduleConfig controls the daily automatic run.
type ScheduleConfig struct {
	Hour     int    `yaml:"hour"`
	Minute   int    `yaml:"minute"`
	Timezone string `yaml:"timezone"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MailConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	RedirectURL     string `yaml:"redirect_url"`
}

type SummarizerConfig struct {
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
}

type DigestConfig struct {
	Subject    string `yaml:"subject"`
	NowSubject string `yaml:"now_subject"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 50
	}
	if cfg.Schedule.Hour == 0 && cfg.Schedule.Minute == 0 {
		cfg.Schedule.Hour = 7
		cfg.Schedule.Minute = 30
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "America/Chicago"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Mail.CredentialsFile == "" {
		cfg.Mail.CredentialsFile = "client_secret.json"
	}
	if cfg.Mail.TokenFile == "" {
		cfg.Mail.TokenFile = "token.json"
	}
	if cfg.Mail.RedirectURL == "" {
		cfg.Mail.RedirectURL = "http://localhost:8000/oauth2/callback"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4o-mini"
	}
	if cfg.Summarizer.Temperature == 0 {
		cfg.Summarizer.Temperature = 0.2
	}
	if cfg.Digest.Subject == "" {
		cfg.Digest.Subject = "Your Daily Email Digest"
	}
	if cfg.Digest.NowSubject == "" {
		cfg.Digest.NowSubject = "Your Daily Email Digest (now)"
	}
}

func validate(cfg *Config) error {
	if cfg.Summarizer.APIKey == "" {
		return fmt.Errorf("config: summarizer.api_key is required (set OPENAI_API_KEY env var)")
	}
	if cfg.MaxResults < 1 {
		return fmt.Errorf("config: max_results must be positive, got %d", cfg.MaxResults)
	}
	if cfg.Schedule.Hour < 0 || cfg.Schedule.Hour > 23 {
		return fmt.Errorf("config: schedule.hour must be 0-23, got %d", cfg.Schedule.Hour)
	}
	if cfg.Schedule.Minute < 0 || cfg.Schedule.Minute > 59 {
		return fmt.Errorf("config: schedule.minute must be 0-59, got %d", cfg.Schedule.Minute)
	}
	if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
		return fmt.Errorf("config: invalid schedule.timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
