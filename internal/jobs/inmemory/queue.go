package inmemory

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-bot/internal/jobs"
	"github.com/dvloznov/ledger-bot/internal/logger"
)

// Queue is an in-memory implementation of job publisher and consumer.
// It keeps one channel and one worker per shard and routes every job by the
// hash of its key, so jobs of one session run sequentially while different
// sessions run in parallel. It is safe for concurrent use.
type Queue struct {
	shards    []chan *jobs.UpdateJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	started   bool
	log       zerolog.Logger

	published atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64
}

// NewQueue creates a new in-memory queue with the given number of workers.
// bufferSize is the per-worker backlog before Publish blocks.
func NewQueue(workers, bufferSize int, log zerolog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	shards := make([]chan *jobs.UpdateJob, workers)
	for i := range shards {
		shards[i] = make(chan *jobs.UpdateJob, bufferSize)
	}
	return &Queue{
		shards:    shards,
		closeChan: make(chan struct{}),
		log:       log,
	}
}

// Publish implements the Publisher interface.
func (q *Queue) Publish(ctx context.Context, job *jobs.UpdateJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	select {
	case q.shards[q.shardFor(job.Key)] <- job:
		q.published.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface. It starts one worker per shard.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	for i := range q.shards {
		q.wg.Add(1)
		go q.worker(ctx, i, handler)
	}
	return nil
}

// worker processes jobs of a single shard.
func (q *Queue) worker(ctx context.Context, shard int, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.shards[shard]:
			if job == nil {
				return
			}
			q.processJob(ctx, shard, job, handler)
		}
	}
}

// processJob runs the handler once. A panic is recovered and logged so one
// bad update cannot stop the worker or affect other sessions.
func (q *Queue) processJob(ctx context.Context, shard int, job *jobs.UpdateJob, handler jobs.JobHandler) {
	log := q.log.With().
		Str("job_id", job.JobID).
		Str("key", job.Key).
		Int("shard", shard).
		Logger()
	ctx = logger.WithContext(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("update handler panicked")
		}
	}()

	if err := handler(ctx, job); err != nil {
		q.failed.Add(1)
		log.Error().Err(err).Msg("update handler failed")
		return
	}
	q.processed.Add(1)
	log.Debug().Dur("latency", time.Since(job.EnqueuedAt)).Msg("update processed")
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() jobs.Stats {
	return jobs.Stats{
		Published: q.published.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Panicked:  q.panicked.Load(),
		Workers:   len(q.shards),
	}
}

func (q *Queue) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(q.shards)))
}

// Stop implements the Consumer interface.
// It stops the queue and waits for in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
