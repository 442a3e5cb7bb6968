package openai

// Config contains the settings of one OpenAI-compatible provider.
// Fields map to SDK options:
//   - APIKey: fallback key when the settings store has none
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
type Config struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
	Timeout int    `env:"TIMEOUT"  envDefault:"60"`
}
