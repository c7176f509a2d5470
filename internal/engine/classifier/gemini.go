package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"intent-engine/internal/common/logger"
)

// generateFunc sends one prompt with the given API key and returns the model text.
type generateFunc func(ctx context.Context, apiKey, prompt string) (string, error)

// GeminiClassifier calls the Gemini API through the genai SDK, rotating keys from
// a KeyPool.
type GeminiClassifier struct {
	model    string
	timeout  time.Duration
	pool     *KeyPool
	logger   logger.Logger
	generate generateFunc

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiClassifier(model string, timeout time.Duration, pool *KeyPool, log logger.Logger) *GeminiClassifier {
	g := &GeminiClassifier{
		model:   model,
		timeout: timeout,
		pool:    pool,
		logger:  logger.ForComponent(log, "classifier-gemini"),
		clients: make(map[string]*genai.Client),
	}
	g.generate = g.generateContent
	return g
}

func (g *GeminiClassifier) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.clients[apiKey] = c
	return c, nil
}

func (g *GeminiClassifier) generateContent(ctx context.Context, apiKey, prompt string) (string, error) {
	c, err := g.client(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0)),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}
	resp, err := c.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, req Request) (*Result, error) {
	key, ok := g.pool.Acquire()
	if !ok {
		return nil, fmt.Errorf("%w: no api key with remaining quota", ErrUnavailable)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.generate(ctx, key, BuildPrompt(req))
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		case isQuotaError(err):
			g.pool.Exhaust(key)
			g.logger.Warn("gemini key exhausted", map[string]interface{}{
				"keySuffix": keySuffix(key),
			})
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ParseResponse(text)
}

// Available reports whether any key still has quota today.
func (g *GeminiClassifier) Available(_ context.Context) bool {
	return g.pool.HasCapacity()
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func keySuffix(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "..." + key[len(key)-4:]
}
