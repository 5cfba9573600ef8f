package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestConnect_Disabled(t *testing.T) {
	logger, _ := test.NewNullLogger()

	c, err := Connect(context.Background(), domain.CacheConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, c)

	_, ok, err := c.GetReport(context.Background(), "p")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrCacheDisabled)
	assert.ErrorIs(t, c.SetReport(context.Background(), &domain.PatientReport{}), domain.ErrCacheDisabled)
}

func TestConnect_InvalidURL(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := Connect(context.Background(), domain.CacheConfig{RedisURL: "http://not-redis"}, logger)
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "pharmaguard:report:patient-1", Key("patient-1"))
}

func TestReportCache_BreakerOpensOnFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := New(unreachableClient(), time.Minute, logger)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := c.SetReport(ctx, &domain.PatientReport{PatientID: "p"})
		assert.Error(t, err)
	}

	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, _, err := c.GetReport(ctx, "p")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Circuit breaker state changed", hook.LastEntry().Message)
}

// Requires a reachable Redis, e.g. PHARMAGUARD_TEST_REDIS_URL=redis://localhost:6379/15.
func TestReportCache_RoundTrip(t *testing.T) {
	url := os.Getenv("PHARMAGUARD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PHARMAGUARD_TEST_REDIS_URL not set, skipping Redis tests")
	}
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	rc, err := Connect(ctx, domain.CacheConfig{RedisURL: url, DefaultTTL: time.Minute}, logger)
	require.NoError(t, err)
	c := rc.(*ReportCache)
	defer c.Close()

	want := &domain.PatientReport{PatientID: "round-trip", RiskAssessment: domain.RiskSummary{OverallRiskScore: 40}}
	require.NoError(t, c.SetReport(ctx, want))

	got, ok, err := c.GetReport(ctx, "round-trip")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = c.GetReport(ctx, "never-stored")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.redis.Set(ctx, Key("corrupt"), "{not json", time.Minute).Err())
	_, ok, err = c.GetReport(ctx, "corrupt")
	require.NoError(t, err)
	assert.False(t, ok)
}
