// Package cache keeps recently generated patient reports in Redis so the
// dashboard can fetch them without rebuilding.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

const (
	keyPrefix  = "pharmaguard:report:"
	defaultTTL = 24 * time.Hour
)

// CachedReport is the stored envelope of a report.
type CachedReport struct {
	Data      *domain.PatientReport `json:"data"`
	CachedAt  time.Time             `json:"cached_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// ReportCache implements domain.ReportCache over Redis. Calls go through a
// circuit breaker so an unavailable Redis fails fast instead of stalling requests.
type ReportCache struct {
	redis   *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// Connect parses cfg.RedisURL, pings the server and returns a cache.
// An empty URL returns a Disabled cache rather than an error.
func Connect(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) (domain.ReportCache, error) {
	if cfg.RedisURL == "" {
		logger.Info("Redis URL not configured, report cache disabled")
		return Disabled{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	opts.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", opts.Addr).Info("Report cache connected")
	return New(client, cfg.DefaultTTL, logger), nil
}

// New wraps an existing client. A zero ttl uses 24 hours.
func New(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-report-cache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ReportCache{
		redis:   client,
		ttl:     ttl,
		breaker: breaker,
		log:     logger,
	}
}

// Key returns the Redis key for a patient's report.
func Key(patientID string) string {
	return keyPrefix + patientID
}

// GetReport returns the cached report for patientID. A miss, an expired entry
// and a corrupted entry all report ok == false without an error.
func (c *ReportCache) GetReport(ctx context.Context, patientID string) (*domain.PatientReport, bool, error) {
	key := Key(patientID)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.redis.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is not a failure
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached report: %w", err)
	}

	val, _ := result.([]byte)
	if val == nil {
		return nil, false, nil
	}

	var cached CachedReport
	if err := json.Unmarshal(val, &cached); err != nil || cached.Data == nil {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Data, true, nil
}

// SetReport stores report under its patient ID with the cache TTL.
func (c *ReportCache) SetReport(ctx context.Context, report *domain.PatientReport) error {
	now := time.Now()
	cached := CachedReport{
		Data:      report,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.redis.Set(ctx, Key(report.PatientID), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// State reports the circuit breaker state.
func (c *ReportCache) State() gobreaker.State {
	return c.breaker.State()
}

// Close closes the Redis client.
func (c *ReportCache) Close() error {
	return c.redis.Close()
}

// Disabled is the ReportCache used when Redis is not configured.
type Disabled struct{}

// GetReport always misses.
func (Disabled) GetReport(context.Context, string) (*domain.PatientReport, bool, error) {
	return nil, false, domain.ErrCacheDisabled
}

// SetReport discards the report.
func (Disabled) SetReport(context.Context, *domain.PatientReport) error {
	return domain.ErrCacheDisabled
}
