package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eia-drafter/internal/domain"
)

// SupabaseStorage archives rendered reports in a Supabase Storage bucket.
type SupabaseStorage struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewStorageService(
	baseURL string,
	apiKey string,
	bucket string,
) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Store uploads data to <bucket>/<path>, overwriting an existing object.
// The caller's access token is used when present so bucket policies apply.
func (s *SupabaseStorage) Store(
	ctx context.Context,
	path string,
	data []byte,
) (string, error) {
	objectPath := s.bucket + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/storage/v1/object/"+objectPath,
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("build storage request: %w", err)
	}

	bearer := s.apiKey
	if token := domain.TokenFromContext(ctx); token != "" {
		bearer = token
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", domain.DocxContentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage upload failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return objectPath, nil
}
