package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasisprop/concierge/internal/core/domain"
)

func TestWorkerPool_RunsJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	var mu sync.Mutex
	ran := 0
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		for {
			err := pool.TrySubmit(func() {
				defer wg.Done()
				mu.Lock()
				ran++
				mu.Unlock()
			})
			if err == nil {
				break
			}
			// Saturated; give running jobs a moment.
			time.Sleep(time.Millisecond)
		}
	}

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran)
}

func TestWorkerPool_Saturation(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})

	err := pool.TrySubmit(func() {
		close(started)
		<-block
	})
	require.NoError(t, err)
	<-started

	// The single slot is occupied; the next submission must be rejected,
	// not queued or blocked.
	err = pool.TrySubmit(func() {})
	assert.ErrorIs(t, err, domain.ErrPoolSaturated)

	close(block)
}

func TestWorkerPool_CloseWaitsForJobs(t *testing.T) {
	pool := NewWorkerPool(2)

	var mu sync.Mutex
	done := false

	err := pool.TrySubmit(func() {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		done = true
		mu.Unlock()
	})
	require.NoError(t, err)

	pool.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, done, "Close must wait for in-flight jobs")
}

func TestWorkerPool_RejectsAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()

	err := pool.TrySubmit(func() {})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	// All default slots are usable.
	block := make(chan struct{})
	defer close(block)
	for i := 0; i < DefaultPoolSize; i++ {
		require.NoError(t, pool.TrySubmit(func() { <-block }))
	}
	assert.ErrorIs(t, pool.TrySubmit(func() {}), domain.ErrPoolSaturated)
}
