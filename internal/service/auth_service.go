package service

import (
	"fmt"
	"sync"
	"time"

	"eia-drafter/internal/domain"
)

const validatedTokenCacheTTL = 30 * time.Second

type validatedTokenEntry struct {
	user      *domain.SupabaseUser
	expiresAt time.Time
}

type authService struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
	now            func() time.Time

	cacheMu sync.RWMutex
	cache   map[string]validatedTokenEntry
}

func NewAuthService(
	supabaseClient domain.SupabaseClient,
	logger domain.Logger,
) *authService {
	return &authService{
		supabaseClient: supabaseClient,
		logger:         logger,
		now:            time.Now,
		cache:          make(map[string]validatedTokenEntry),
	}
}

// ValidateToken resolves the user behind token. Successful lookups are cached
// briefly since every API request carries the token.
func (s *authService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	now := s.now()
	s.cacheMu.RLock()
	entry, ok := s.cache[token]
	s.cacheMu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.user, nil
	}

	user, err := s.supabaseClient.ValidateToken(token)
	if err != nil {
		s.logger.Error("Failed to validate token with Supabase", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	s.cacheMu.Lock()
	for k, e := range s.cache {
		if now.After(e.expiresAt) {
			delete(s.cache, k)
		}
	}
	s.cache[token] = validatedTokenEntry{user: user, expiresAt: now.Add(validatedTokenCacheTTL)}
	s.cacheMu.Unlock()

	return user, nil
}
