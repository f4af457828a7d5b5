package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	// Server
	Port string `koanf:"port" validate:"required,numeric"`
	Env  string `koanf:"env" validate:"oneof=development production test"`

	// Database
	DatabaseDriver string `koanf:"database_driver" validate:"oneof=sqlite postgres"`
	DatabaseURL    string `koanf:"database_url" validate:"required"`

	// LLM
	LLMProvider       string `koanf:"llm_provider" validate:"oneof=groq gemini anthropic"`
	LLMModel          string `koanf:"llm_model"`
	LLMConcurrentReqs int    `koanf:"llm_concurrent_requests" validate:"min=1"`
	GroqAPIKey        string `koanf:"groq_api_key"`
	GeminiAPIKey      string `koanf:"gemini_api_key"`
	AnthropicAPIKey   string `koanf:"anthropic_api_key"`

	// Storage
	StoragePath string `koanf:"storage_path" validate:"required"`
	MaxUploadMB int    `koanf:"max_upload_mb" validate:"min=1"`

	// HTTP
	FrontendURL        string `koanf:"frontend_url" validate:"required,url"`
	RateLimitPerMinute int    `koanf:"rate_limit_per_minute" validate:"min=1"`
}

var defaults = map[string]interface{}{
	"port":                    "8080",
	"env":                     "development",
	"database_driver":         "sqlite",
	"database_url":            "vectortutor.db",
	"llm_provider":            "groq",
	"llm_model":               "",
	"llm_concurrent_requests": 5,
	"groq_api_key":            "",
	"gemini_api_key":          "",
	"anthropic_api_key":       "",
	"storage_path":            "./uploads",
	"max_upload_mb":           20,
	"frontend_url":            "http://localhost:5173",
	"rate_limit_per_minute":   60,
}

// Load resolves configuration from, in increasing precedence: built-in
// defaults, an optional YAML file, environment variables (a .env file is
// loaded first if present) and command-line flags.
func Load(args []string) (*Config, error) {
	godotenv.Load()

	fs := pflag.NewFlagSet("vectortutor", pflag.ContinueOnError)
	configPath := fs.String("config", getEnvOrDefault("VECTORTUTOR_CONFIG", ""), "path to a YAML config file")
	fs.String("port", "8080", "HTTP listen port")
	fs.String("env", "development", "runtime environment (development, production, test)")
	fs.String("database-driver", "sqlite", "store engine (sqlite, postgres)")
	fs.String("database-url", "vectortutor.db", "SQLite file path or Postgres connection URL")
	fs.String("llm-provider", "groq", "generation provider (groq, gemini, anthropic)")
	fs.String("llm-model", "", "override the provider's default model")
	fs.String("storage-path", "./uploads", "directory for uploaded files")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", *configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.APIKey() == "" {
		return fmt.Errorf("invalid config: %s_API_KEY is required when llm_provider is %s", strings.ToUpper(c.LLMProvider), c.LLMProvider)
	}

	return nil
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GroqAPIKey
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// envKey maps PORT, GROQ_API_KEY, ... onto known config keys and drops
// unrelated or empty variables.
func envKey(key, value string) (string, interface{}) {
	k := strings.ToLower(key)
	if _, ok := defaults[k]; !ok || value == "" {
		return "", nil
	}
	return k, value
}

func flagKey(fs *pflag.FlagSet) func(f *pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
