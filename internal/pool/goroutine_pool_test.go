package pool

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

func TestGoroutinePool_SubmitWait(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	defer p.Close()

	var ran atomic.Bool
	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())

	boom := errors.New("boom")
	err = p.SubmitWait(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Submitted)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestGoroutinePool_BoundsConcurrency(t *testing.T) {
	const maxWorkers = 3
	p := NewGoroutinePool(GoroutinePoolConfig{MaxWorkers: maxWorkers, QueueSize: 32})
	defer p.Close()

	var (
		running atomic.Int32
		peak    atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(maxWorkers))
	assert.LessOrEqual(t, p.Stats().Workers, maxWorkers)
	assert.Equal(t, int64(20), p.Stats().Completed)
}

func TestGoroutinePool_SubmitWaitHonoursContext(t *testing.T) {
	p := NewGoroutinePool(GoroutinePoolConfig{MaxWorkers: 1, QueueSize: 0})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.SubmitWait(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.SubmitWait(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), p.Stats().Rejected)

	close(release)
}

func TestGoroutinePool_TaskSeesCancellation(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	taskErr := make(chan error, 1)
	err := p.SubmitWait(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		taskErr <- ctx.Err()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, <-taskErr, context.DeadlineExceeded)
}

func TestGoroutinePool_Panic(t *testing.T) {
	var recovered atomic.Value
	p := NewGoroutinePool(GoroutinePoolConfig{
		MaxWorkers:   1,
		QueueSize:    1,
		PanicHandler: func(r any) { recovered.Store(r) },
	})
	defer p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		panic("kaboom")
	})
	assert.ErrorIs(t, err, ErrTaskPanicked)
	assert.Equal(t, "kaboom", recovered.Load())

	// the worker survives
	assert.NoError(t, p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestGoroutinePool_Closed(t *testing.T) {
	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil }), ErrPoolClosed)
}

// 并发提交的任务必须各自拿到 worker，不能排在另一个运行中的任务后面
func TestGoroutinePool_ConcurrentTasksDoNotQueueBehindEachOther(t *testing.T) {
	const tasks = 32

	p := NewGoroutinePool(DefaultGoroutinePoolConfig())
	defer p.Close()

	// 预热出一个空闲 worker
	require.NoError(t, p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil }))

	for iter := 0; iter < 50; iter++ {
		var arrived sync.WaitGroup
		arrived.Add(tasks)
		all := make(chan struct{})
		go func() {
			arrived.Wait()
			close(all)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs := make(chan error, tasks)
		for i := 0; i < tasks; i++ {
			go func() {
				errs <- p.SubmitWait(ctx, func(ctx context.Context) error {
					arrived.Done()
					select {
					case <-all:
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				})
			}()
		}
		for i := 0; i < tasks; i++ {
			require.NoError(t, <-errs, "iteration %d", iter)
		}
		cancel()
	}

	assert.LessOrEqual(t, p.Stats().Workers, 64)
	assert.Zero(t, p.Stats().Queued)
}

func TestGoroutinePool_CloseFailsQueuedTasks(t *testing.T) {
	p := NewGoroutinePool(GoroutinePoolConfig{MaxWorkers: 1, QueueSize: 4})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.SubmitWait(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var queuedRan atomic.Bool
	queuedErr := make(chan error, 1)
	go func() {
		queuedErr <- p.SubmitWait(context.Background(), func(ctx context.Context) error {
			queuedRan.Store(true)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return p.Stats().Queued == 1 }, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	select {
	case err := <-queuedErr:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("queued task was not failed on close")
	}

	close(release)
	<-closed
	assert.False(t, queuedRan.Load())
}
