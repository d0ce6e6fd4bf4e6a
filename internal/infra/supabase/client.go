package supabase

import (
	"fmt"
	"sync"

	"eia-drafter/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// Client implements domain.SupabaseClient.
type Client struct {
	client *supabase.Client
	config domain.Config
	logger domain.Logger

	mu          sync.Mutex
	userClients map[string]*supabase.Client
}

// NewSupabaseClient creates a new Supabase client instance; call Initialize before use.
func NewSupabaseClient(config domain.Config, logger domain.Logger) *Client {
	return &Client{
		config:      config,
		logger:      logger,
		userClients: make(map[string]*supabase.Client),
	}
}

// Enabled reports whether Supabase settings are present.
func Enabled(config domain.Config) bool {
	return config.GetSupabaseURL() != "" && config.GetSupabaseKey() != ""
}

func (s *Client) DB() *supabase.Client {
	return s.client
}

// Initialize establishes a connection to Supabase
func (s *Client) Initialize() error {
	if !Enabled(s.config) {
		return fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(s.config.GetSupabaseURL(), s.config.GetSupabaseKey(), &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized successfully", "url", s.config.GetSupabaseURL())
	return nil
}

// GetClientWithToken builds (and caches) a client that sends the user's
// access token, so row level security applies to its queries.
func (s *Client) GetClientWithToken(token string) (*supabase.Client, error) {
	if s.client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	if token == "" {
		return s.client, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.userClients[token]; ok {
		return c, nil
	}
	c, err := supabase.NewClient(s.config.GetSupabaseURL(), s.config.GetSupabaseKey(), &supabase.ClientOptions{
		Headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user client: %w", err)
	}
	// Tokens rotate; keep the cache from growing without bound.
	if len(s.userClients) >= 256 {
		s.userClients = make(map[string]*supabase.Client)
	}
	s.userClients[token] = c
	return c, nil
}

// ValidateToken validates a Supabase JWT token and returns user info
func (s *Client) ValidateToken(token string) (*domain.SupabaseUser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	// GoTrue ignores client-level headers; the token must go through WithToken.
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		s.logger.Error("Failed to validate token with Supabase", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrInvalidToken)
	}

	return &domain.SupabaseUser{
		ID:           user.ID.String(),
		Email:        user.Email,
		UserMetadata: user.UserMetadata,
		CreatedAt:    user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}
