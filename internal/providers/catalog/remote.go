package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/CueDeck/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/CueDeck/backend/internal/logging"
	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RemoteConfig configures the HTTP catalog client
type RemoteConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RPS          int
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultRemoteConfig returns production settings for baseURL
func DefaultRemoteConfig(baseURL string) RemoteConfig {
	return RemoteConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		RPS:          20,
		MaxRetries:   3,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
	}
}

// Remote looks items up in an HTTP catalog service at GET {base}/items/{id}
type Remote struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// NewRemote creates a remote catalog client. Transport errors and 5xx
// responses are retried; a 404 means the item does not exist.
func NewRemote(cfg RemoteConfig, logger *logging.Logger) (*Remote, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: catalog base URL is required", types.ErrValidation)
	}
	logger = logger.OrNop().Component("catalog")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "CueDeck-Catalog/1.0").
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal)

	limit := rate.Inf
	burst := 0
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = cfg.RPS
	}

	breaker := resilience.New("catalog-remote", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Catalog circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Remote{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Lookup fetches the item with id
func (r *Remote) Lookup(ctx context.Context, id string) (types.Item, bool, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return types.Item{}, false, err
	}

	var (
		item  types.Item
		found bool
	)
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		resp, err := r.client.R().
			SetContext(ctx).
			SetPathParam("id", id).
			SetResult(&item).
			Get("/items/{id}")
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return nil
		case resp.IsError():
			return fmt.Errorf("catalog responded %s", resp.Status())
		}
		found = true
		return nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			r.logger.Debug("Catalog lookup short-circuited", zap.String("item_id", id))
		}
		return types.Item{}, false, fmt.Errorf("lookup %s: %w", id, err)
	}
	if !found {
		return types.Item{}, false, nil
	}
	if item.ID == "" {
		item.ID = id
	}
	return item, true, nil
}

// BreakerState reports the circuit breaker state
func (r *Remote) BreakerState() resilience.State {
	return r.breaker.State()
}

// Close is a no-op
func (r *Remote) Close() error { return nil }
