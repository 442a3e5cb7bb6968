package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/shopscribe/internal/audit"
	"github.com/davidbz/shopscribe/internal/images"
	"github.com/davidbz/shopscribe/internal/observability"
	"github.com/davidbz/shopscribe/internal/provider/google"
	"github.com/davidbz/shopscribe/internal/provider/openai"
	"github.com/davidbz/shopscribe/internal/settings"
	"github.com/davidbz/shopscribe/internal/store/redis"
)

// Config represents the service configuration.
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Log      observability.LogConfig
	Groq     openai.Config     `envPrefix:"GROQ_"`
	OpenAI   openai.Config     `envPrefix:"OPENAI_"`
	Google   google.Config     `envPrefix:"GOOGLE_"`
	Redis    redis.Config
	Audit    audit.Config
	Images   images.Config
	Defaults settings.Defaults `envPrefix:"GENERATION_"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"150"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server   *ServerConfig
	CORS     *CORSConfig
	Log      *observability.LogConfig
	Groq     *openai.Config `name:"groq"`
	OpenAI   *openai.Config `name:"openai"`
	Google   *google.Config
	Redis    *redis.Config
	Audit    *audit.Config
	Images   *images.Config
	Defaults *settings.Defaults
}

// Load loads environment files and parses configuration.
func Load() (*Config, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	cfg.Defaults.APIKeys = map[string]string{
		"groq":   cfg.Groq.APIKey,
		"openai": cfg.OpenAI.APIKey,
		"google": cfg.Google.APIKey,
	}

	return &cfg, nil
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:   &cfg.Server,
		CORS:     &cfg.CORS,
		Log:      &cfg.Log,
		Groq:     &cfg.Groq,
		OpenAI:   &cfg.OpenAI,
		Google:   &cfg.Google,
		Redis:    &cfg.Redis,
		Audit:    &cfg.Audit,
		Images:   &cfg.Images,
		Defaults: &cfg.Defaults,
	}
}
