package driver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	jserrors "jscore/pkg/errors"
)

// checkJob asks a worker to compile one file.
type checkJob struct {
	index int
	path  string
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path string
	// Diagnostics holds syntax errors and strict warnings.
	Diagnostics []jserrors.Diagnostic
	// Err is set when the file could not be read.
	Err      error
	Nodes    int
	Duration time.Duration
	WorkerID int
}

// OK reports whether the file read and parsed without errors.
func (r *FileResult) OK() bool {
	return r.Err == nil && !jserrors.HasErrors(r.Diagnostics)
}

// PoolStats summarizes a checking run.
type PoolStats struct {
	WorkerCount   int
	TotalJobs     int
	CompletedJobs int
	FailedJobs    int
	TotalTime     time.Duration
	AverageTime   time.Duration
}

// workerPool compiles files on a fixed set of goroutines.
type workerPool struct {
	engine     *Engine
	numWorkers int

	jobQueue   chan checkJob
	resultChan chan *indexedResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started    int32 // atomic
	stopped    int32 // atomic
	activeJobs int32 // atomic

	stats      PoolStats
	statsMutex sync.RWMutex
}

type indexedResult struct {
	index int
	res   *FileResult
}

func newWorkerPool(e *Engine, numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &workerPool{engine: e, numWorkers: numWorkers}
}

func (wp *workerPool) Start(ctx context.Context, buffer int) error {
	if !atomic.CompareAndSwapInt32(&wp.started, 0, 1) {
		return errors.New("worker pool already started")
	}
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	wp.jobQueue = make(chan checkJob, buffer)
	wp.resultChan = make(chan *indexedResult, buffer)
	wp.stats = PoolStats{WorkerCount: wp.numWorkers}

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run(wp.ctx, i)
	}
	return nil
}

func (wp *workerPool) Submit(job checkJob) error {
	if atomic.LoadInt32(&wp.started) == 0 {
		return errors.New("worker pool not started")
	}
	if atomic.LoadInt32(&wp.stopped) == 1 {
		return errors.New("worker pool stopped")
	}
	select {
	case wp.jobQueue <- job:
		atomic.AddInt32(&wp.activeJobs, 1)
		wp.statsMutex.Lock()
		wp.stats.TotalJobs++
		wp.statsMutex.Unlock()
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Shutdown stops accepting jobs, waits for the workers and closes the
// result channel.
func (wp *workerPool) Shutdown() {
	if !atomic.CompareAndSwapInt32(&wp.stopped, 0, 1) {
		return
	}
	close(wp.jobQueue)
	wp.wg.Wait()
	wp.cancel()
	close(wp.resultChan)
}

func (wp *workerPool) Stats() PoolStats {
	wp.statsMutex.RLock()
	defer wp.statsMutex.RUnlock()
	return wp.stats
}

func (wp *workerPool) run(ctx context.Context, id int) {
	defer wp.wg.Done()
	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			res := wp.process(id, job)

			wp.statsMutex.Lock()
			if res.OK() {
				wp.stats.CompletedJobs++
			} else {
				wp.stats.FailedJobs++
			}
			wp.stats.TotalTime += res.Duration
			if n := wp.stats.CompletedJobs + wp.stats.FailedJobs; n > 0 {
				wp.stats.AverageTime = wp.stats.TotalTime / time.Duration(n)
			}
			wp.statsMutex.Unlock()
			atomic.AddInt32(&wp.activeJobs, -1)

			select {
			case wp.resultChan <- &indexedResult{index: job.index, res: res}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (wp *workerPool) process(id int, job checkJob) *FileResult {
	start := time.Now()
	res := &FileResult{Path: job.path, WorkerID: id}
	s, diags, err := wp.engine.CompileFile(job.path)
	res.Diagnostics = diags
	res.Err = err
	if s != nil {
		res.Nodes = s.Metrics.Parsenodes
	}
	res.Duration = time.Since(start)
	return res
}

// CheckFiles compiles paths on the configured number of workers and
// returns one result per path, in input order. Paths not reached before
// ctx is done carry the context's error.
func (e *Engine) CheckFiles(ctx context.Context, paths []string) ([]*FileResult, PoolStats) {
	if ctx == nil {
		ctx = context.Background()
	}
	workers := e.cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}
	wp := newWorkerPool(e, workers)
	results := make([]*FileResult, len(paths))
	if err := wp.Start(ctx, len(paths)); err != nil {
		e.log.Error("starting worker pool", zap.Error(err))
		return results, PoolStats{}
	}

	go func() {
		defer wp.Shutdown()
		for i, p := range paths {
			if err := wp.Submit(checkJob{index: i, path: p}); err != nil {
				return
			}
		}
	}()

	for r := range wp.resultChan {
		results[r.index] = r.res
	}
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &FileResult{Path: paths[i], Err: err}
		}
	}

	stats := wp.Stats()
	e.log.Info("checked files",
		zap.Int("files", len(paths)),
		zap.Int("workers", stats.WorkerCount),
		zap.Int("failed", stats.FailedJobs),
		zap.Duration("total", stats.TotalTime))
	return results, stats
}
