package ratelimit

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/darasa-app/darasa/core"
)

func mockNow(t *testing.T, at time.Time) {
	t.Helper()
	NowFunc = func() time.Time { return at }
	t.Cleanup(func() { NowFunc = time.Now })
}

func checkRateLimitErr(t *testing.T, err error) *core.APIError {
	t.Helper()
	apiErr, ok := errors.Cause(err).(*core.APIError)
	if !ok {
		t.Fatalf("Check() error = %v, want *core.APIError", err)
	}
	assert.Equal(t, core.ErrCodeRateLimitExceeded, apiErr.Code)
	return apiErr
}

func TestLimiterAllowsUpToMax(t *testing.T) {
	mockNow(t, time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC))

	lim := New("auth", 5, 15*time.Minute)
	defer lim.Stop()

	for i := 0; i < 5; i++ {
		if err := lim.Check("1.2.3.4"); err != nil {
			t.Fatalf("request %d: Check() error = %v", i+1, err)
		}
	}

	err := lim.Check("1.2.3.4")
	apiErr := checkRateLimitErr(t, err)
	retryAfter, ok := apiErr.Details["retryAfter"].(int)
	if !ok {
		t.Fatalf("retryAfter missing from details: %v", apiErr.Details)
	}
	if retryAfter < 1 || retryAfter > 900 {
		t.Errorf("retryAfter = %d, want within (0, 900]", retryAfter)
	}
}

func TestLimiterRejectionDoesNotIncrement(t *testing.T) {
	mockNow(t, time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC))

	store := NewMemoryStore()
	lim := New("api", 2, time.Minute, WithStore(store))
	defer lim.Stop()

	assert.NoError(t, lim.Check("10.0.0.1"))
	assert.NoError(t, lim.Check("10.0.0.1"))
	checkRateLimitErr(t, lim.Check("10.0.0.1"))

	e, ok := store.Get("api:10.0.0.1")
	if !ok {
		t.Fatal("entry missing after rejection")
	}
	assert.Equal(t, 2, e.Count)
}

func TestLimiterWindowReset(t *testing.T) {
	start := time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC)
	mockNow(t, start)

	lim := New("auth", 2, time.Minute)
	defer lim.Stop()

	assert.NoError(t, lim.Check("1.2.3.4"))
	assert.NoError(t, lim.Check("1.2.3.4"))
	checkRateLimitErr(t, lim.Check("1.2.3.4"))

	// window elapses; the client gets a fresh allowance
	mockNow(t, start.Add(time.Minute+time.Second))
	assert.NoError(t, lim.Check("1.2.3.4"))
	assert.NoError(t, lim.Check("1.2.3.4"))
	checkRateLimitErr(t, lim.Check("1.2.3.4"))
}

func TestLimiterRetryAfterCeiling(t *testing.T) {
	start := time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC)
	mockNow(t, start)

	lim := New("auth", 1, 10*time.Second)
	defer lim.Stop()

	assert.NoError(t, lim.Check("1.2.3.4"))

	// 2.5s into the window: 7.5s remain -> rounded up to 8
	mockNow(t, start.Add(2500*time.Millisecond))
	apiErr := checkRateLimitErr(t, lim.Check("1.2.3.4"))
	assert.Equal(t, 8, apiErr.Details["retryAfter"])
}

func TestLimiterClientsAreIndependent(t *testing.T) {
	mockNow(t, time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC))

	lim := New("auth", 1, time.Minute)
	defer lim.Stop()

	assert.NoError(t, lim.Check("1.2.3.4"))
	checkRateLimitErr(t, lim.Check("1.2.3.4"))
	assert.NoError(t, lim.Check("5.6.7.8"))
}

func TestLimitersSharingStoreDoNotCollide(t *testing.T) {
	mockNow(t, time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC))

	store := NewMemoryStore()
	authLim := New("auth", 1, time.Minute, WithStore(store))
	searchLim := New("search", 1, time.Minute, WithStore(store))
	defer authLim.Stop()
	defer searchLim.Stop()

	assert.NoError(t, authLim.Check("1.2.3.4"))
	checkRateLimitErr(t, authLim.Check("1.2.3.4"))

	// same client, different endpoint class: unaffected
	assert.NoError(t, searchLim.Check("1.2.3.4"))
}

func TestRemoveExpired(t *testing.T) {
	start := time.Date(2021, time.March, 1, 10, 0, 0, 0, time.UTC)
	mockNow(t, start)

	store := NewMemoryStore()
	lim := New("api", 10, time.Minute, WithStore(store))

	store.Set("api:expired", Entry{Count: 3, ResetTime: start.Add(-time.Second)})
	store.Set("api:fresh", Entry{Count: 3, ResetTime: start.Add(30 * time.Second)})

	lim.removeExpired()

	_, ok := store.Get("api:expired")
	assert.False(t, ok, "expired entry must be swept")
	_, ok = store.Get("api:fresh")
	assert.True(t, ok, "fresh entry must survive the sweep")
}

func TestStartStopIdempotent(t *testing.T) {
	lim := New("api", 10, time.Minute)
	lim.Start()
	lim.Start() // no-op
	lim.Stop()
	lim.Stop() // no-op
	lim.Start()
	lim.Stop()
}
