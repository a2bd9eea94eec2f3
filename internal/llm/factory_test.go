package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/config"
	"github.com/lsilvatti/subgen/internal/subgenerr"
)

func TestFactoryCreateOpenAI(t *testing.T) {
	f := Factory{}
	c, err := f.Create(config.TranslationConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk-x"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, "gpt-4o", c.Model())
	assert.True(t, c.RequiresAuth())
}

func TestFactoryMissingModelIsBadConfig(t *testing.T) {
	f := Factory{}
	_, err := f.Create(config.TranslationConfig{Provider: "openai", APIKey: "sk-x"})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadConfig))
}

func TestFactoryMissingCredentialIsCredentialError(t *testing.T) {
	f := Factory{}
	_, err := f.Create(config.TranslationConfig{Provider: "openai", Model: "gpt-4o"})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindCredential))
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := Factory{}
	_, err := f.Create(config.TranslationConfig{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadConfig))
}

func TestFactoryRejectsNonHTTPBaseURL(t *testing.T) {
	f := Factory{}
	_, err := f.Create(config.TranslationConfig{Provider: "local", Model: "llama3", BaseURL: "ftp://example.com"})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadConfig))
}

func TestFactoryLocalNoAuthRequired(t *testing.T) {
	f := Factory{}
	c, err := f.Create(config.TranslationConfig{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.False(t, c.RequiresAuth())
}
