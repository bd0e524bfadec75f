package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrLoadCachesValue(t *testing.T) {
	c := New[int]("test", 8, time.Minute)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := New[string]("test", 8, time.Minute)
	calls := 0
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestGetOrLoadCollapsesConcurrentLoads(t *testing.T) {
	c := New[int]("test", 8, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestSetUntilHonoursEarlierDeadline(t *testing.T) {
	c := New[string]("test", 8, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.SetUntil("tok", "admin", now.Add(time.Minute))
	v, ok := c.Get("tok")
	require.True(t, ok)
	assert.Equal(t, "admin", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("tok")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSetUntilPastDeadlineIsIgnored(t *testing.T) {
	c := New[string]("test", 8, time.Hour)
	c.SetUntil("tok", "admin", time.Now().Add(-time.Second))
	_, ok := c.Get("tok")
	assert.False(t, ok)
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	c := New[int]("test", 8, 20*time.Millisecond)
	c.Set("k", 1)
	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
