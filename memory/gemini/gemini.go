// Package gemini provides a memory.Embedder backed by the Google Gemini
// embedding API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/leobot/leo/core"
)

const defaultModel = "text-embedding-004"

// Options configure the Gemini embedder.
type Options struct {
	Model   string
	Dim     int // Dimension of the configured model's output vectors
	Timeout time.Duration
	APIKey  string
}

// Embedder wraps the Gemini embedding model behind the memory.Embedder interface.
type Embedder struct {
	model *genai.EmbeddingModel
	opts  Options
}

// NewEmbedder creates a Gemini embedder, dialing a new client with the
// configured API key.
func NewEmbedder(ctx context.Context, optFns ...func(o *Options)) (*Embedder, error) {
	opts := Options{
		Model:   defaultModel,
		Dim:     768,
		Timeout: 15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}

	return NewEmbedderFromClient(client, optFns...), nil
}

// NewEmbedderFromClient creates a Gemini embedder from an existing client.
func NewEmbedderFromClient(client *genai.Client, optFns ...func(o *Options)) *Embedder {
	opts := Options{
		Model:   defaultModel,
		Dim:     768,
		Timeout: 15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Embedder{model: client.EmbeddingModel(opts.Model), opts: opts}
}

// Embed implements memory.Embedder. Timeouts and server-side failures are
// classified into the shared error taxonomy so call sites can apply their
// retry policy.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classify(err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embed: empty embedding response")
	}

	return resp.Embedding.Values, nil
}

// Dim implements memory.Embedder.
func (e *Embedder) Dim() int { return e.opts.Dim }

// classify maps Gemini API failures onto the shared error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TransientNetworkError{Op: "embed", Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &core.RateLimitError{Provider: "gemini"}
		case apiErr.Code >= 500:
			return &core.TransientNetworkError{Op: "embed", Err: err}
		}
	}

	return fmt.Errorf("gemini embed: %w", err)
}
