package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.Equal(t, 10, cfg.RetrievalK)
	assert.Equal(t, 0.5, cfg.RetrievalMinScore)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, "token.json", cfg.GoogleTokenFile)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEO_PROVIDER", "openai")
	t.Setenv("LEO_OPENAI_API_KEY", "sk-test")
	t.Setenv("LEO_RETRIEVAL_K", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 3, cfg.RetrievalK)
}

func TestValidate(t *testing.T) {
	t.Run("unknown provider rejected", func(t *testing.T) {
		cfg := &Config{Provider: "mystery", EmbeddingDim: 768}
		assert.Error(t, cfg.Validate())
	})

	t.Run("gemini needs its key", func(t *testing.T) {
		cfg := &Config{Provider: "gemini", EmbeddingDim: 768}
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid config passes", func(t *testing.T) {
		cfg := &Config{Provider: "gemini", GeminiAPIKey: "key", EmbeddingDim: 768}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("dimension must be positive", func(t *testing.T) {
		cfg := &Config{Provider: "openai"}
		assert.Error(t, cfg.Validate())
	})
}
