package generation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/smartlearn/smartlearn-api/internal/config"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/redact"
)

// Defaults applied when a request leaves a field unset.
const (
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7
	DefaultMaxRetries  = 3
)

// Client wraps a Backend with key rotation, pacing, model selection and a
// bounded retry loop.
type Client struct {
	backend  Backend
	keys     *Keyring
	selector *ModelSelector
	pacer    *Pacer
	quota    *QuotaTracker
	logger   *slog.Logger

	maxRetries      int
	temperature     float32
	backoffBase     time.Duration
	quotaCooldown   time.Duration
	keySwitchDelay  time.Duration
	authSwitchDelay time.Duration

	// sleep is swapped in tests to observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client and its collaborators from configuration.
func NewClient(cfg config.LLMConfig, backend Backend, log *slog.Logger) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend cannot be nil", ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	keys, err := NewKeyring(cfg.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		log.Warn("invalid max retries value, using default", "max_retries", DefaultMaxRetries)
		maxRetries = DefaultMaxRetries
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	log = log.With(slog.String("component", "generation_client"))
	return &Client{
		backend:         backend,
		keys:            keys,
		selector:        NewModelSelector(backend, keys, cfg.ModelName, cfg.ModelPriority, log),
		pacer:           NewPacer(cfg.MinCallInterval),
		quota:           NewQuotaTracker(cfg.DailyQuota),
		logger:          log,
		maxRetries:      maxRetries,
		temperature:     temperature,
		backoffBase:     cfg.BackoffBase,
		quotaCooldown:   cfg.QuotaCooldown,
		keySwitchDelay:  cfg.KeySwitchDelay,
		authSwitchDelay: cfg.AuthSwitchDelay,
		sleep:           sleepContext,
	}, nil
}

// Keyring exposes the client's credentials, e.g. for status reporting.
func (c *Client) Keyring() *Keyring { return c.keys }

// Quota exposes the usage tracker.
func (c *Client) Quota() *QuotaTracker { return c.quota }

// Model returns the selected model name, or "" before first use.
func (c *Client) Model() string { return c.selector.Selected() }

// Generate sends req to the model and returns its text.
//
// Empty responses and unexpected errors are retried with exponential
// backoff on the same key. Quota errors move to an untried key, or wait out
// a cooldown when every key has been tried. Credential errors move to an
// untried key and fail immediately when none is left. Safety refusals are
// not retried. Terminal failures are returned as *GenerationError.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = c.temperature
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	model, err := c.selector.Select(ctx)
	if err != nil {
		log.ErrorContext(ctx, "model selection failed", slog.String("error", redact.Error(err)))
		return "", &GenerationError{Kind: Classify(err), Attempts: 0, Err: err}
	}

	rotation := c.keys.NewRotation()
	idx, key := c.keys.Current()

	var (
		lastErr  error
		lastKind ErrorKind
	)
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		attemptNum := attempt + 1
		final := attemptNum == c.maxRetries

		if err := c.pacer.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		c.quota.Record()

		log.DebugContext(ctx, "calling model",
			slog.String("model", model),
			slog.Int("attempt", attemptNum),
			slog.Int("max_attempts", c.maxRetries),
			slog.String("key", c.keys.Masked(idx)),
			slog.Int("prompt_length", len(req.Prompt)))

		text, err := c.backend.Generate(ctx, key, model, req)
		if err == nil && strings.TrimSpace(text) != "" {
			log.InfoContext(ctx, "model call succeeded",
				slog.Int("attempt", attemptNum),
				slog.Int("response_length", len(text)))
			return text, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ctx.Err())
		}

		lastErr, lastKind = err, Classify(err)
		log.WarnContext(ctx, "model call failed",
			slog.Int("attempt", attemptNum),
			slog.String("kind", string(lastKind)),
			slog.String("error", redact.Error(err)))

		var delay time.Duration
		switch lastKind {
		case KindBlocked:
			return "", &GenerationError{Kind: lastKind, Attempts: attemptNum, Err: err}

		case KindQuota:
			if next, nextKey, ok := rotation.Advance(idx); ok {
				log.InfoContext(ctx, "switching API key after quota error",
					slog.String("from", c.keys.Masked(idx)),
					slog.String("to", c.keys.Masked(next)))
				idx, key = next, nextKey
				delay = c.keySwitchDelay
			} else {
				delay = c.quotaCooldown
			}

		case KindInvalidCredential:
			next, nextKey, ok := rotation.Advance(idx)
			if !ok {
				log.ErrorContext(ctx, "no valid API key left", slog.Int("keys", c.keys.Len()))
				return "", &GenerationError{Kind: lastKind, Attempts: attemptNum, Err: err}
			}
			log.InfoContext(ctx, "switching API key after credential error",
				slog.String("from", c.keys.Masked(idx)),
				slog.String("to", c.keys.Masked(next)))
			idx, key = next, nextKey
			delay = c.authSwitchDelay

		default:
			delay = c.backoff(attempt)
		}

		if final {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
	}

	log.ErrorContext(ctx, "model call failed after retries",
		slog.Int("attempts", c.maxRetries),
		slog.String("kind", string(lastKind)))
	return "", &GenerationError{Kind: lastKind, Attempts: c.maxRetries, Err: lastErr}
}

// backoff returns base * 2^attempt scaled by a jitter factor in [0.5, 1.0).
func (c *Client) backoff(attempt int) time.Duration {
	if c.backoffBase <= 0 {
		return 0
	}
	scaled := float64(c.backoffBase) * math.Pow(2, float64(attempt))
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(scaled * jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
