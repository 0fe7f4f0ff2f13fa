package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/openrouter"
)

const (
	ProviderEino   = "eino"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Provider picks the Text Generator backend: eino chat model graph or
	// the openai-go SDK directly.
	Provider           string        `envconfig:"PROVIDER" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RouterModel        string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	DataModel          string  `envconfig:"DATA_MODEL" split_words:"true"`
	SupportModel       string  `envconfig:"SUPPORT_MODEL" split_words:"true"`
	RouterTemperature  float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	DataTemperature    float32 `envconfig:"DATA_TEMPERATURE" split_words:"true" default:"-1"`
	SupportTemperature float32 `envconfig:"SUPPORT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch c.provider() {
	case ProviderEino, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	return nil
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderEino
	}
	return p
}

// OpenRouterFor resolves the model settings for one agent, falling back to
// the defaults when no per-agent override is set.
func (c Config) OpenRouterFor(agent contractx.AgentID) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}
	switch agent {
	case contractx.AgentRouter:
		override(c.RouterModel, c.RouterTemperature)
	case contractx.AgentData:
		override(c.DataModel, c.DataTemperature)
	case contractx.AgentSupport:
		override(c.SupportModel, c.SupportTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
