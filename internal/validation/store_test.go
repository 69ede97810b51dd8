package validation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(attempts int) State {
	return State{
		ProvidedFields:    []string{"date"},
		CumulativePrompt:  "P1",
		OriginalNarrative: "N",
		AttemptCount:      attempts,
	}
}

func TestMemoryStore_GetUnknownKeyIsAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"never-set-1", "", "u1-o1-123"} {
		state, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %q", key)
		assert.Equal(t, State{}, state)
	}
}

func TestMemoryStore_SetThenGetRoundTrips(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name  string
		state State
	}{
		{"populated", sampleState(1)},
		{"nil fields", State{CumulativePrompt: "p", AttemptCount: 1}},
		{"empty fields", State{ProvidedFields: []string{}, OriginalNarrative: "n"}},
		{"duplicate fields kept", State{ProvidedFields: []string{"date", "date", "location"}}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := fmt.Sprintf("u1-o1-%d", i)
			require.NoError(t, store.Set(ctx, key, tt.state))

			got, ok, err := store.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.state, got)
		})
	}
}

func TestMemoryStore_LastWriterWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := "u1-o1-1000"

	require.NoError(t, store.Set(ctx, key, sampleState(1)))
	second := State{ProvidedFields: []string{"date", "location"}, CumulativePrompt: "P2", OriginalNarrative: "N", AttemptCount: 2}
	require.NoError(t, store.Set(ctx, key, second))

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ClearRemovesAndIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := "u1-o1-1000"

	require.NoError(t, store.Clear(ctx, "never-set"))

	require.NoError(t, store.Set(ctx, key, sampleState(1)))
	require.NoError(t, store.Clear(ctx, key))
	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx, key))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_CallersCannotMutateStoredState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := "u1-o1-1000"

	in := sampleState(1)
	require.NoError(t, store.Set(ctx, key, in))
	in.ProvidedFields[0] = "mutated-after-set"

	out, _, _ := store.Get(ctx, key)
	out.ProvidedFields[0] = "mutated-after-get"

	again, _, _ := store.Get(ctx, key)
	assert.Equal(t, []string{"date"}, again.ProvidedFields)
}

func TestMemoryStore_SweepOlderThan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.UnixMilli(10_000)

	keys := map[string]bool{
		"u1-o1-1000":    true,  // age 9000 > 5000
		"u1-o1-4999":    true,  // age 5001 > 5000
		"u1-o1-5000":    false, // age 5000, not strictly older
		"u1-o1-9000":    false,
		"u1-o1-20000":   false, // future timestamp
		"malformed":     false,
		"u1-o1-":        false,
		"u1-o1-12ab":    false,
		"":              false,
		"u-with-dash-1": true,
	}
	for key := range keys {
		require.NoError(t, store.Set(ctx, key, sampleState(1)))
	}

	removed, err := store.SweepOlderThan(ctx, 5*time.Second, now)
	require.NoError(t, err)

	wantRemoved := 0
	for key, evicted := range keys {
		_, ok, _ := store.Get(ctx, key)
		assert.Equal(t, !evicted, ok, "key %q", key)
		if evicted {
			wantRemoved++
		}
	}
	assert.Equal(t, wantRemoved, removed)
}

func TestMemoryStore_EndToEndScenario(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := "u1-off1-1000"

	first := State{ProvidedFields: []string{"date"}, CumulativePrompt: "P1", OriginalNarrative: "N", AttemptCount: 1}
	require.NoError(t, store.Set(ctx, key, first))

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)

	got.AttemptCount = 2
	require.NoError(t, store.Set(ctx, key, got))
	got, ok, _ = store.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, 2, got.AttemptCount)

	removed, err := store.SweepOlderThan(ctx, 500*time.Millisecond, time.UnixMilli(2000))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ = store.Get(ctx, key)
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("u%d-o1-%d", worker, j%10)
				_ = store.Set(ctx, key, sampleState(j))
				_, _, _ = store.Get(ctx, key)
				if j%7 == 0 {
					_ = store.Clear(ctx, key)
				}
				if j%50 == 0 {
					_, _ = store.SweepOlderThan(ctx, time.Hour, time.UnixMilli(0))
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 16*10)
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)
