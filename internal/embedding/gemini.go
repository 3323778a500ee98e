// internal/embedding/gemini.go
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
)

const (
	DefaultModel = "text-embedding-004"
	maxBatch     = 100
	maxAttempts  = 3
)

var sleep = time.Sleep

// embedContentAPI is the slice of genai.Models the embedder needs.
type embedContentAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder backs the semantic similarity engine with the Gemini embedding API.
type GeminiEmbedder struct {
	models  embedContentAPI
	model   string
	timeout time.Duration
	logger  logger.Logger
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string, timeout time.Duration, log logger.Logger) (*GeminiEmbedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiEmbedder(client.Models, model, timeout, log), nil
}

func newGeminiEmbedder(models embedContentAPI, model string, timeout time.Duration, log logger.Logger) *GeminiEmbedder {
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeminiEmbedder{
		models:  models,
		model:   model,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "gemini-embedder", "model": model}),
	}
}

func (e *GeminiEmbedder) Model() string { return e.model }

// EmbedTexts returns one vector per text, in input order. Large inputs are split into API-sized batches.
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := start + maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, apperrors.NewEmbeddingFailedError(e.model, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err := e.models.EmbedContent(callCtx, e.model, contents, &genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		})
		cancel()

		if err == nil {
			return extractVectors(resp, len(texts))
		}
		lastErr = err
		if !isTemporary(err) || ctx.Err() != nil {
			break
		}
		e.logger.Warn("embedding request failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
		sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func extractVectors(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, got)
	}
	vectors := make([][]float32, want)
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func isTemporary(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return errors.Is(err, context.DeadlineExceeded)
}
