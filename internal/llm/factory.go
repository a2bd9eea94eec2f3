package llm

import (
	"context"
	"fmt"
	"regexp"

	"github.com/lsilvatti/subgen/internal/config"
	"github.com/lsilvatti/subgen/internal/subgenerr"
)

var urlSchemePattern = regexp.MustCompile(`^https?://`)

// Factory builds a Client from a TranslationConfig, selecting the
// provider variant at construction time from the name registry.
type Factory struct {
	Store config.CredentialStore
}

// KnownProviders lists the registry of supported provider names.
func KnownProviders() []string {
	return []string{"openai", "openrouter", "gemini", "local", "ollama", "lmstudio"}
}

// Create builds a Client for cfg.Provider. Every missing required field
// is a bad-config error, never a guessed zero-value.
func (f Factory) Create(tc config.TranslationConfig) (Client, error) {
	if tc.Provider == "" {
		return nil, subgenerr.BadConfig("translation.provider", fmt.Errorf("required"))
	}
	if tc.BaseURL != "" && !urlSchemePattern.MatchString(tc.BaseURL) {
		return nil, subgenerr.BadConfig("translation.base_url", fmt.Errorf("must be http(s)://"))
	}

	store := f.Store
	if store == nil {
		store = config.NullStore{}
	}
	apiKey := config.ResolveCredential("", tc.Provider, store, tc.APIKey)

	switch tc.Provider {
	case "openai", "openrouter":
		if apiKey == "" {
			return nil, subgenerr.Credential(fmt.Sprintf("%s requires an API key", tc.Provider))
		}
		if tc.Model == "" {
			return nil, subgenerr.BadConfig("translation.model", fmt.Errorf("required for provider %q", tc.Provider))
		}
		baseURL := tc.BaseURL
		if baseURL == "" {
			if tc.Provider == "openrouter" {
				baseURL = "https://openrouter.ai/api/v1"
			} else {
				baseURL = "https://api.openai.com/v1"
			}
		}
		return NewOpenAIClient(tc.Provider, apiKey, tc.Model, baseURL), nil

	case "gemini":
		if apiKey == "" {
			return nil, subgenerr.Credential("gemini requires an API key")
		}
		if tc.Model == "" {
			return nil, subgenerr.BadConfig("translation.model", fmt.Errorf("required for provider \"gemini\""))
		}
		return NewGeminiClient(apiKey, tc.Model, tc.BaseURL), nil

	case "local", "ollama", "lmstudio":
		if tc.Model == "" {
			return nil, subgenerr.BadConfig("translation.model", fmt.Errorf("required for provider %q", tc.Provider))
		}
		return NewLocalClient(tc.Provider, tc.Model, tc.BaseURL), nil

	default:
		return nil, subgenerr.BadConfig("translation.provider", fmt.Errorf("unknown provider %q", tc.Provider))
	}
}

// ValidateConfiguration builds the client and, for OpenAI-compatible
// providers, performs a cheap live check of the API key. Other providers
// are only built, not checked live.
func (f Factory) ValidateConfiguration(ctx context.Context, tc config.TranslationConfig) error {
	client, err := f.Create(tc)
	if err != nil {
		return err
	}
	if !client.RequiresAuth() {
		return nil
	}
	if oc, ok := client.(*OpenAIClient); ok {
		if !oc.ValidateKey(ctx) {
			return subgenerr.Credential(fmt.Sprintf("%s rejected the configured API key", tc.Provider))
		}
	}
	return nil
}
