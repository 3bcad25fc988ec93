package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navmodel/internal/timeutil"
)

type memStore struct {
	mu        sync.Mutex
	summaries []Summary
	err       error
}

func (m *memStore) RecordLatencySummary(s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
	return m.err
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.summaries)
}

func (m *memStore) get(i int) Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries[i]
}

func TestDescribe(t *testing.T) {
	x := []float64{5, 1, 4, 2, 3}
	mean, std, p50, p95, max := describe(x)

	assert.InDelta(t, 3.0, mean, 1e-12)
	assert.InDelta(t, 1.5811388, std, 1e-6)
	assert.Equal(t, 3.0, p50)
	assert.Equal(t, 5.0, p95)
	assert.Equal(t, 5.0, max)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, x, "describe sorts in place")
}

func TestDescribe_Small(t *testing.T) {
	mean, std, p50, p95, max := describe(nil)
	assert.Zero(t, mean+std+p50+p95+max)

	mean, std, _, _, max = describe([]float64{2})
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 0.0, std)
	assert.Equal(t, 2.0, max)
}

func TestRecorder_SummarisesWindows(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewRecorder(4, clock)
	store := &memStore{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx, store)
		close(done)
	}()

	for i := 1; i <= 8; i++ {
		r.Observe(time.Duration(i)*time.Millisecond, time.Duration(i)*500*time.Microsecond, i%2 == 0)
	}

	require.Eventually(t, func() bool { return store.len() == 2 }, 2*time.Second, time.Millisecond)
	first := store.get(0)
	assert.Equal(t, 4, first.Frames)
	assert.Equal(t, 2, first.Valid)
	assert.InDelta(t, 2.5, first.ModelMean, 1e-9)
	assert.Equal(t, 4.0, first.ModelMax)
	assert.Equal(t, 2.0, first.DSPMax)

	second := store.get(1)
	assert.Equal(t, 8.0, second.ModelMax)
	assert.Equal(t, 6.0, second.ModelP50, "empirical median of 5..8 is the lower middle value")
	assert.Zero(t, r.Dropped())

	cancel()
	<-done
}

func TestRecorder_DropsWhenSinkStalls(t *testing.T) {
	r := NewRecorder(2, nil)

	// No Run: both windows fill, then samples are dropped.
	for i := 0; i < 7; i++ {
		r.Observe(time.Millisecond, time.Millisecond, true)
	}
	assert.Equal(t, uint64(3), r.Dropped())
}

func TestRecorder_StoreErrorIsNotFatal(t *testing.T) {
	r := NewRecorder(1, nil)
	store := &memStore{err: errors.New("disk full")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx, store)

	for i := 0; i < 3; i++ {
		r.Observe(time.Millisecond, time.Millisecond, true)
		require.Eventually(t, func() bool { return store.len() == i+1 }, 2*time.Second, time.Millisecond)
	}
}

func TestRecorder_ObserveDoesNotAllocate(t *testing.T) {
	r := NewRecorder(1000, nil)
	allocs := testing.AllocsPerRun(500, func() {
		r.Observe(2*time.Millisecond, time.Millisecond, true)
	})
	assert.Zero(t, allocs)
}
