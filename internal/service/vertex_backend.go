package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"eia-drafter/internal/domain"

	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// DefaultVertexModels is offered when the Vertex backend is selected; Vertex
// has no listing endpoint scoped to generative text models.
var DefaultVertexModels = []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash-001"}

// VertexBackend uses Vertex AI with Application Default Credentials.
type VertexBackend struct {
	projectID   string
	location    string
	temperature float32
	models      []string
	logger      domain.Logger

	mu     sync.Mutex
	client *genai.Client
}

func NewVertexBackend(projectID, location string, temperature float32, models []string, logger domain.Logger) *VertexBackend {
	if len(models) == 0 {
		models = DefaultVertexModels
	}
	return &VertexBackend{
		projectID:   projectID,
		location:    location,
		temperature: temperature,
		models:      models,
		logger:      logger,
	}
}

// Ready requires a project id and resolvable default credentials.
func (b *VertexBackend) Ready(ctx context.Context) error {
	if strings.TrimSpace(b.projectID) == "" {
		return fmt.Errorf("%w: GCP_PROJECT_ID is not set", domain.ErrGeneratorUnavailable)
	}
	if _, err := google.FindDefaultCredentials(ctx, cloudPlatformScope); err != nil {
		return fmt.Errorf("%w: application default credentials: %v", domain.ErrGeneratorUnavailable, err)
	}
	return nil
}

func (b *VertexBackend) getClient(ctx context.Context) (*genai.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	if err := b.Ready(ctx); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, b.projectID, b.location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}
	b.client = client
	return client, nil
}

func (b *VertexBackend) Generate(ctx context.Context, prompt string, model string) (string, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return "", err
	}
	gm := client.GenerativeModel(model)
	gm.SetTemperature(b.temperature)

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyError(fmt.Errorf("vertex generate failed: %w", err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

func (b *VertexBackend) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	out := make([]domain.ModelInfo, 0, len(b.models))
	for _, m := range b.models {
		out = append(out, domain.ModelInfo{Name: m})
	}
	return out, nil
}

func (b *VertexBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// NewTextGenerator selects the backend named by cfg.
func NewTextGenerator(cfg domain.Config, logger domain.Logger) (domain.TextGenerator, error) {
	switch cfg.GetGenAIBackend() {
	case "", "gemini":
		return NewGeminiBackend(cfg.GetGeminiAPIKey(), cfg.GetTemperature(), logger), nil
	case "vertex":
		return NewVertexBackend(cfg.GetGCPProjectID(), cfg.GetGCPLocation(), cfg.GetTemperature(), nil, logger), nil
	default:
		return nil, &domain.ValidationError{Field: "GENAI_BACKEND", Message: "unknown backend " + cfg.GetGenAIBackend()}
	}
}
