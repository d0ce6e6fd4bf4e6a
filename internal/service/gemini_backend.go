package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"eia-drafter/internal/domain"

	"google.golang.org/genai"
)

// GeminiBackend talks to the Gemini API with an API key.
type GeminiBackend struct {
	apiKey      string
	temperature float32
	logger      domain.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiBackend creates the backend. The client is created on first use so
// a missing key only fails the pre-flight check, not startup.
func NewGeminiBackend(apiKey string, temperature float32, logger domain.Logger) *GeminiBackend {
	return &GeminiBackend{apiKey: apiKey, temperature: temperature, logger: logger}
}

func (b *GeminiBackend) getClient(ctx context.Context) (*genai.Client, error) {
	if err := b.Ready(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	b.client = client
	return client, nil
}

// Ready requires an API key.
func (b *GeminiBackend) Ready(ctx context.Context) error {
	if strings.TrimSpace(b.apiKey) == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrGeneratorUnavailable)
	}
	return nil
}

// Generate sends a single-turn prompt.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string, model string) (string, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(b.temperature),
	})
	if err != nil {
		return "", classifyError(fmt.Errorf("GenAI generate failed: %w", err))
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// Models lists models supporting generateContent, without the "models/" prefix.
func (b *GeminiBackend) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.ModelInfo
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, classifyError(fmt.Errorf("list models: %w", err))
		}
		if !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		out = append(out, domain.ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close is a no-op; the genai client holds no resources that need releasing.
func (b *GeminiBackend) Close() error {
	return nil
}
