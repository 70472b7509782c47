// Package pool provides the bounded worker pool synthesis jobs run on.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolClosed   = errors.New("pool is closed")
	ErrTaskPanicked = errors.New("task panicked")
)

// Task represents a unit of work.
type Task func(ctx context.Context) error

// GoroutinePool runs tasks on at most MaxWorkers goroutines. Workers are
// spawned on demand and live until Close.
type GoroutinePool struct {
	maxWorkers  int
	taskQueue   chan taskWrapper
	done        chan struct{}
	closeOnce   sync.Once
	workerCount atomic.Int32
	activeCount atomic.Int32
	pending     atomic.Int32 // 已提交但尚未被 worker 取走
	wg          sync.WaitGroup

	// Metrics
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64

	panicHandler func(any)
}

// 任务状态，worker 与提交方通过 CAS 争夺
const (
	taskQueued int32 = iota
	taskStarted
	taskAbandoned
)

type taskWrapper struct {
	task   Task
	ctx    context.Context
	result chan error
	state  *atomic.Int32
}

// GoroutinePoolConfig configures the pool.
type GoroutinePoolConfig struct {
	MaxWorkers   int       `json:"max_workers"`
	QueueSize    int       `json:"queue_size"`
	PanicHandler func(any) `json:"-"`
}

// DefaultGoroutinePoolConfig returns sensible defaults.
func DefaultGoroutinePoolConfig() GoroutinePoolConfig {
	return GoroutinePoolConfig{
		MaxWorkers: 64,
		QueueSize:  256,
	}
}

// NewGoroutinePool creates a new goroutine pool.
func NewGoroutinePool(config GoroutinePoolConfig) *GoroutinePool {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	return &GoroutinePool{
		maxWorkers:   config.MaxWorkers,
		taskQueue:    make(chan taskWrapper, config.QueueSize),
		done:         make(chan struct{}),
		panicHandler: config.PanicHandler,
	}
}

// SubmitWait enqueues a task and waits for its result. When every worker is
// busy and the queue is full it blocks until a slot frees up or ctx ends.
// If ctx ends while the task runs, SubmitWait returns ctx.Err() and the
// task observes the same cancellation.
func (p *GoroutinePool) SubmitWait(ctx context.Context, task Task) error {
	if p.isClosed() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)

	wrapper := taskWrapper{
		task:   task,
		ctx:    ctx,
		result: make(chan error, 1),
		state:  new(atomic.Int32),
	}

	// 先登记再检查空闲 worker，并发提交不会共用同一个空闲 worker
	p.pending.Add(1)
	p.ensureWorker()
	select {
	case p.taskQueue <- wrapper:
	case <-ctx.Done():
		p.pending.Add(-1)
		p.rejected.Add(1)
		return ctx.Err()
	case <-p.done:
		p.pending.Add(-1)
		return ErrPoolClosed
	}

	select {
	case err := <-wrapper.result:
		return err
	case <-ctx.Done():
		wrapper.state.CompareAndSwap(taskQueued, taskAbandoned)
		return ctx.Err()
	case <-p.done:
		// 尚未开始的任务不会再运行
		if wrapper.state.CompareAndSwap(taskQueued, taskAbandoned) {
			return ErrPoolClosed
		}
	}

	select {
	case err := <-wrapper.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureWorker 保证 worker 数不少于运行中与排队中的任务之和
func (p *GoroutinePool) ensureWorker() {
	for {
		current := p.workerCount.Load()
		if current >= int32(p.maxWorkers) || current >= p.activeCount.Load()+p.pending.Load() {
			return
		}
		if p.workerCount.CompareAndSwap(current, current+1) {
			p.wg.Add(1)
			go p.worker()
		}
	}
}

func (p *GoroutinePool) worker() {
	defer p.wg.Done()
	defer p.workerCount.Add(-1)

	for {
		select {
		case <-p.done:
			return

		case wrapper := <-p.taskQueue:
			// active 先于 pending 变化，ensureWorker 不会低估负载
			p.activeCount.Add(1)
			p.pending.Add(-1)
			p.run(wrapper)
			p.activeCount.Add(-1)
		}
	}
}

func (p *GoroutinePool) run(wrapper taskWrapper) {
	if p.isClosed() {
		if wrapper.state.CompareAndSwap(taskQueued, taskAbandoned) {
			wrapper.result <- ErrPoolClosed
		}
		return
	}
	if !wrapper.state.CompareAndSwap(taskQueued, taskStarted) {
		return
	}

	err := p.executeTask(wrapper)
	wrapper.result <- err
	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
}

func (p *GoroutinePool) executeTask(wrapper taskWrapper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(r)
			}
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()

	if err := wrapper.ctx.Err(); err != nil {
		return err
	}
	return wrapper.task(wrapper.ctx)
}

func (p *GoroutinePool) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Close stops the workers and waits for running tasks to finish. Queued
// tasks that have not started never run; their SubmitWait callers get
// ErrPoolClosed.
func (p *GoroutinePool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

// Stats returns pool statistics.
func (p *GoroutinePool) Stats() GoroutinePoolStats {
	return GoroutinePoolStats{
		Workers:   int(p.workerCount.Load()),
		Active:    int(p.activeCount.Load()),
		Queued:    int(p.pending.Load()),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// GoroutinePoolStats contains pool statistics.
type GoroutinePoolStats struct {
	Workers   int   `json:"workers"`
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
}
