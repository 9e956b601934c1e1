package llm

import (
	"fmt"
	"slices"
	"strings"
	"time"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	openrouterx "github.com/tanpawarit/portfolio-agent/pkg/openrouter"
	"golang.org/x/time/rate"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4"`
	AllowedModels      []string      `envconfig:"ALLOWED_MODELS" split_words:"true" default:"gpt-4,gpt-3.5-turbo,gpt-3.5-turbo-16k,gpt-4-32k,gpt-4-turbo,gpt-4-turbo-32k"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RetryAttempts     int           `envconfig:"RETRY_ATTEMPTS" split_words:"true" default:"5"`
	RetryMinWait      time.Duration `envconfig:"RETRY_MIN_WAIT" split_words:"true" default:"1s"`
	RetryMaxWait      time.Duration `envconfig:"RETRY_MAX_WAIT" split_words:"true" default:"20s"`
	RequestsPerSecond float64       `envconfig:"REQUESTS_PER_SECOND" split_words:"true" default:"0"`
	Burst             int           `envconfig:"BURST" split_words:"true" default:"1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case ProviderOpenRouter, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be >= 1", contractx.ErrValidation)
	}
	if c.RetryMaxWait < c.RetryMinWait {
		return fmt.Errorf("%w: retry max wait is below min wait", contractx.ErrValidation)
	}
	return nil
}

// Supports reports whether name may be selected for a session.
func (c Config) Supports(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if len(c.AllowedModels) == 0 {
		return name == strings.TrimSpace(c.Model)
	}
	return slices.Contains(c.AllowedModels, name)
}

func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

func (c Config) Retry() RetryPolicy {
	return RetryPolicy{
		Attempts: c.RetryAttempts,
		MinWait:  c.RetryMinWait,
		MaxWait:  c.RetryMaxWait,
	}
}

// Limiter returns nil when no request rate is configured.
func (c Config) Limiter() *rate.Limiter {
	if c.RequestsPerSecond <= 0 {
		return nil
	}
	burst := c.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
}
