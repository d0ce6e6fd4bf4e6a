package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"eia-drafter/internal/domain"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryPolicy bounds how often a rate-limited call is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits d or until ctx is done. Tests replace it with a fake clock.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes 3 attempts, waiting 10s then 20s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Second, Sleep: sleepContext}
}

// Backoff is the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generator calls a backend with bounded retry on rate limiting. It never
// returns an error: failures come back as a sentinel GenerationResult.
type Generator struct {
	backend      domain.TextGenerator
	policy       RetryPolicy
	limiter      *rate.Limiter
	defaultModel string
	logger       domain.Logger
}

// NewGenerator wraps backend. requestsPerMinute <= 0 disables client-side pacing.
func NewGenerator(backend domain.TextGenerator, policy RetryPolicy, requestsPerMinute int, defaultModel string, logger domain.Logger) *Generator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepContext
	}
	g := &Generator{
		backend:      backend,
		policy:       policy,
		defaultModel: defaultModel,
		logger:       logger,
	}
	if requestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return g
}

// DefaultModel is used when a request names no model.
func (g *Generator) DefaultModel() string {
	return g.defaultModel
}

// Generate sends req to the backend. A rate-limited attempt is retried after
// Backoff(attempt) until MaxAttempts is reached; there is no wait after the
// final attempt. Any other failure ends the call immediately.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}
	result := domain.GenerationResult{Model: model}

	fail := func(msg string, err error) domain.GenerationResult {
		g.logger.Error("Generation failed", err, "model", model, "attempts", result.Attempts)
		result.Text = domain.Sentinel(msg)
		result.Err = err
		return result
	}

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return fail(err.Error(), err)
			}
		}

		start := time.Now()
		text, err := g.backend.Generate(ctx, req.Prompt, model)
		if err == nil {
			g.logger.Info("Generation completed", "model", model, "attempt", attempt,
				"prompt_chars", len(req.Prompt), "response_chars", len(text), "duration_ms", time.Since(start).Milliseconds())
			result.Text = text
			return result
		}

		if !errors.Is(err, domain.ErrRateLimited) {
			return fail(err.Error(), err)
		}
		if attempt >= g.policy.MaxAttempts {
			return fail(fmt.Sprintf("limite de pedidos excedido após %d tentativas", attempt), err)
		}

		wait := g.policy.Backoff(attempt)
		g.logger.Warn("Generation rate limited; retrying", "model", model, "attempt", attempt, "wait", wait.String())
		if err := g.policy.Sleep(ctx, wait); err != nil {
			return fail(err.Error(), err)
		}
	}
}

// Models lists the models the backend can generate text with.
func (g *Generator) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	return g.backend.Models(ctx)
}

// Ready reports whether the backend has credentials.
func (g *Generator) Ready(ctx context.Context) error {
	return g.backend.Ready(ctx)
}

// Close releases the backend client.
func (g *Generator) Close() error {
	return g.backend.Close()
}

// classifyError wraps rate-limit failures from either SDK in domain.ErrRateLimited.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if isRateLimited(err) {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	return err
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}
	if status.Code(err) == codes.ResourceExhausted {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429")
}
