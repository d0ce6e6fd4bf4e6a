package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"eia-drafter/internal/domain"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

const runsTable = "report_runs"

// SupabaseRunRepository stores run history in the report_runs table.
type SupabaseRunRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseRunRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseRunRepository {
	return &SupabaseRunRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Record inserts run and fills in the id assigned by the database.
func (r *SupabaseRunRepository) Record(ctx context.Context, run *domain.RunRecord) error {
	client, err := r.supabaseClient.GetClientWithToken(domain.TokenFromContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	data, _, err := client.From(runsTable).Insert(run, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	var rows []domain.RunRecord
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		run.ID = rows[0].ID
	}
	r.logger.Debug("Run recorded", "run_id", run.ID, "session_id", run.SessionID, "kind", run.Kind)
	return nil
}

// List returns the newest runs of ownerID first.
func (r *SupabaseRunRepository) List(ctx context.Context, ownerID string, limit int) ([]*domain.RunRecord, error) {
	client, err := r.supabaseClient.GetClientWithToken(domain.TokenFromContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get client with token: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(runsTable).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*domain.RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return runs, nil
}

// MemoryRunRepository keeps run history in process; used when Supabase is not configured.
type MemoryRunRepository struct {
	mu       sync.RWMutex
	runs     []domain.RunRecord
	capacity int
}

// NewMemoryRunRepository keeps at most capacity runs (oldest dropped first).
func NewMemoryRunRepository(capacity int) *MemoryRunRepository {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryRunRepository{capacity: capacity}
}

func (r *MemoryRunRepository) Record(ctx context.Context, run *domain.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	if len(r.runs) > r.capacity {
		r.runs = r.runs[len(r.runs)-r.capacity:]
	}
	return nil
}

func (r *MemoryRunRepository) List(ctx context.Context, ownerID string, limit int) ([]*domain.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.RunRecord
	for i := range r.runs {
		if r.runs[i].OwnerID == ownerID {
			run := r.runs[i]
			out = append(out, &run)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
