package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Job 异步任务
type Job func(ctx context.Context)

// AsyncWorker runs event side effects (persistence) off the publishing goroutine.
type AsyncWorker struct {
	workerNum int
	timeout   time.Duration
	workChan  chan Job
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	pending   sync.WaitGroup
	dropped   atomic.Int64
	onPanic   func(r interface{})
}

// NewAsyncWorker 创建异步工作池
func NewAsyncWorker(workerNum, queueSize int, timeout time.Duration) *AsyncWorker {
	if workerNum <= 0 {
		workerNum = 4
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncWorker{
		workerNum: workerNum,
		timeout:   timeout,
		workChan:  make(chan Job, queueSize),
		stopChan:  make(chan struct{}),
	}
}

// OnPanic registers a callback for recovered job panics.
func (w *AsyncWorker) OnPanic(fn func(r interface{})) {
	w.onPanic = fn
}

// Start 启动工作协程
func (w *AsyncWorker) Start() {
	for i := 0; i < w.workerNum; i++ {
		w.wg.Add(1)
		go w.loop()
	}
}

// Stop drains queued jobs and stops the workers.
func (w *AsyncWorker) Stop() {
	w.stopOnce.Do(func() {
		w.pending.Wait()
		close(w.stopChan)
		w.wg.Wait()
	})
}

func (w *AsyncWorker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopChan:
			return
		case job := <-w.workChan:
			w.run(job)
		}
	}
}

func (w *AsyncWorker) run(job Job) {
	defer w.pending.Done()
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil && w.onPanic != nil {
			w.onPanic(r)
		}
	}()
	job(ctx)
}

// Submit 提交任务；队列已满时丢弃并返回 false
func (w *AsyncWorker) Submit(job Job) bool {
	w.pending.Add(1)
	select {
	case w.workChan <- job:
		return true
	default:
		w.pending.Done()
		w.dropped.Add(1)
		return false
	}
}

// Wait blocks until every submitted job has finished.
func (w *AsyncWorker) Wait() {
	w.pending.Wait()
}

// Dropped 返回因队列满而丢弃的任务数
func (w *AsyncWorker) Dropped() int64 {
	return w.dropped.Load()
}
