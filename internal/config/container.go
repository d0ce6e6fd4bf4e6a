package config

import (
	"fmt"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/infra/supabase"
	"eia-drafter/internal/repository"
	"eia-drafter/internal/service"
	"eia-drafter/internal/session"
	"eia-drafter/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient
	// AuthService is nil when Supabase is not configured.
	AuthService   domain.AuthService
	RunRepository domain.RunRepository
	Archive       domain.ReportArchive
	Generator     *service.Generator
	Extractor     *service.Extractor
	ReportService *service.ReportService
	Sessions      *session.Store
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	return NewContainerWithConfig(cfg, logger.NewLogger(cfg.GetLogLevel()))
}

// NewContainerWithConfig wires the application from cfg. Supabase-backed
// parts are only created when SUPABASE_URL and SUPABASE_ANON_KEY are set.
func NewContainerWithConfig(cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	backend, err := service.NewTextGenerator(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("configure generation backend: %w", err)
	}
	policy := service.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.GetMaxAttempts()
	policy.BaseDelay = cfg.GetRetryBaseDelay()
	c.Generator = service.NewGenerator(backend, policy, cfg.GetRequestsPerMinute(), cfg.GetDefaultModel(), appLogger)
	c.Extractor = service.NewExtractor(appLogger, cfg.GetPageTimeout())

	if supabase.Enabled(cfg) {
		client := supabase.NewSupabaseClient(cfg, appLogger)
		if err := client.Initialize(); err != nil {
			return nil, err
		}
		c.SupabaseClient = client
		c.AuthService = service.NewAuthService(client, appLogger)
		c.RunRepository = repository.NewSupabaseRunRepository(client, appLogger)
		if bucket := cfg.GetReportsBucket(); bucket != "" {
			c.Archive = service.NewStorageService(cfg.GetSupabaseURL(), cfg.GetSupabaseKey(), bucket)
		}
	} else {
		appLogger.Warn("Supabase not configured; authentication disabled and run history kept in memory")
		c.RunRepository = repository.NewMemoryRunRepository(0)
	}

	c.ReportService = service.NewReportService(c.Extractor, c.Generator, c.RunRepository, c.Archive, appLogger)
	c.Sessions = session.NewStore(cfg.GetSessionTTL())
	return c, nil
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// Close releases the generation backend.
func (c *Container) Close() error {
	return c.Generator.Close()
}
