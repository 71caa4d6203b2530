package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes
	JobKeyPrefix      = "job:"
	JobDedupKeyPrefix = "job_dedup:"
	JobQueueKey       = "job_queue"
	JobDelayedKey     = "job_delayed"
	JobProcessingKey  = "job_processing"
	JobStatsKey       = "job_stats"

	// Job settings
	DefaultMaxRetries = 3
	RetryBaseDelay    = time.Minute
	JobTTL            = 24 * time.Hour // Jobs expire after 24 hours
)

// HandlerFunc processes one delivered job. Returning an error triggers the
// queue's retry policy; returning nil marks the job completed.
type HandlerFunc func(ctx context.Context, job *Job) error

// EnqueueOptions controls delivery of a single job.
type EnqueueOptions struct {
	Delay          time.Duration // 0 = deliver as soon as a worker is free
	IdempotencyKey string        // same key collapses to one pending job
	MaxRetries     int           // 0 = DefaultMaxRetries
}

// Queue manages background jobs using Redis. Delivery is at-least-once:
// handlers must be idempotent.
type Queue struct {
	client     *redis.Client
	workers    int
	handlers   map[JobType]HandlerFunc
	workerPool chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewQueue creates a new job queue
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 3 // Default number of workers
	}

	return &Queue{
		client:     client,
		workers:    workers,
		handlers:   make(map[JobType]HandlerFunc),
		workerPool: make(chan struct{}, workers),
		stopCh:     make(chan struct{}),
	}
}

// RegisterHandler binds a handler to a job type. Must be called before Start.
func (q *Queue) RegisterHandler(jobType JobType, fn HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = fn
}

// Start starts the job queue workers and the delayed-job mover
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.running = true
	q.stopCh = make(chan struct{})
	log.Printf("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.workerPool <- struct{}{}
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	// Promote due delayed jobs to the pending list
	q.wg.Add(1)
	go q.delayedMover(time.Second)
}

// Stop stops the job queue workers
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Println("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Println("[JobQueue] All workers stopped")
}

// IsRunning reports whether workers are active
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Enqueue adds a job to the queue. When opts.IdempotencyKey is set and a job
// under the same key is still pending or in flight, the existing job is
// returned and no duplicate is created.
func (q *Queue) Enqueue(jobType JobType, payload map[string]interface{}, opts EnqueueOptions) (*Job, error) {
	ctx := context.Background()

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	now := time.Now()
	job := &Job{
		ID:             uuid.New().String(),
		Type:           jobType,
		Status:         JobStatusPending,
		Payload:        payload,
		IdempotencyKey: opts.IdempotencyKey,
		RunAt:          now.Add(opts.Delay),
		CreatedAt:      now,
		UpdatedAt:      now,
		RetryCount:     0,
		MaxRetries:     maxRetries,
	}

	if opts.IdempotencyKey != "" {
		dedupKey := JobDedupKeyPrefix + opts.IdempotencyKey
		ok, err := q.client.SetNX(ctx, dedupKey, job.ID, opts.Delay+JobTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if !ok {
			// A job under this key is already scheduled; hand it back instead
			existingID, err := q.client.Get(ctx, dedupKey).Result()
			if err != nil {
				if err == redis.Nil {
					return nil, nil
				}
				return nil, err
			}
			existing, err := q.GetJob(ctx, existingID)
			if err != nil {
				if err == redis.Nil {
					return nil, nil
				}
				return nil, err
			}
			return existing, nil
		}
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	jobKey := JobKeyPrefix + job.ID

	pipe := q.client.Pipeline()
	pipe.Set(ctx, jobKey, jobData, opts.Delay+JobTTL)
	if opts.Delay > 0 {
		pipe.ZAdd(ctx, JobDelayedKey, redis.Z{
			Score:  float64(job.RunAt.UnixMilli()),
			Member: job.ID,
		})
	} else {
		pipe.LPush(ctx, JobQueueKey, job.ID)
	}
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Printf("[JobQueue] Enqueued job %s (Type: %s, RunAt: %s)", job.ID, job.Type, job.RunAt.Format(time.RFC3339))
	return job, nil
}

// delayedMover periodically promotes due jobs from the delayed zset to the
// pending list
func (q *Queue) delayedMover(interval time.Duration) {
	defer q.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			ids, err := q.client.ZRangeByScore(ctx, JobDelayedKey, &redis.ZRangeBy{
				Min:   "-inf",
				Max:   fmt.Sprintf("%d", time.Now().UnixMilli()),
				Count: 100,
			}).Result()
			if err != nil {
				log.Printf("[JobQueue] Mover ZRangeByScore error: %v", err)
				continue
			}
			for _, id := range ids {
				pipe := q.client.Pipeline()
				pipe.ZRem(ctx, JobDelayedKey, id)
				pipe.LPush(ctx, JobQueueKey, id)
				if _, err := pipe.Exec(ctx); err != nil {
					log.Printf("[JobQueue] Mover failed to promote job %s: %v", id, err)
				}
			}
		}
	}
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Printf("[JobQueue] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Printf("[JobQueue] Worker %d stopping", id)
			return
		default:
			<-q.workerPool

			job, err := q.dequeueJob(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Printf("[JobQueue] Worker %d: Error dequeuing job: %v", id, err)
				}
				q.workerPool <- struct{}{}
				time.Sleep(time.Second)
				continue
			}

			if job != nil {
				log.Printf("[JobQueue] Worker %d processing job %s (Type: %s)", id, job.ID, job.Type)
				q.processJob(ctx, job)
			}

			q.workerPool <- struct{}{}
		}
	}
}

// dequeueJob gets the next job from the queue
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	// Move job from pending queue to processing queue atomically
	result, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	jobID := result
	jobKey := JobKeyPrefix + jobID

	jobData, err := q.client.Get(ctx, jobKey).Result()
	if err != nil {
		// Job data not found, remove from processing queue
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("job data not found for ID %s", jobID)
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}

	return &job, nil
}

// processJob runs the registered handler for a single job and applies the
// retry policy on failure
func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	q.mu.Lock()
	handler, ok := q.handlers[job.Type]
	q.mu.Unlock()
	if !ok {
		err = fmt.Errorf("no handler registered for job type: %s", job.Type)
	} else {
		err = handler(ctx, job)
	}

	if err != nil {
		log.Printf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		if job.IsRetryable() {
			job.MarkAsRetrying()
			q.updateJob(ctx, job)
			backoff := BackoffFor(job.RetryCount)
			log.Printf("[JobQueue] Retrying job %s in %s (Attempt %d/%d)", job.ID, backoff, job.RetryCount, job.MaxRetries)

			time.AfterFunc(backoff, func() {
				q.client.LPush(ctx, JobQueueKey, job.ID)
			})
		} else {
			// Retries exhausted: the job is dropped. Alerting on the failed
			// counter is an operational concern outside this process.
			log.Printf("[JobQueue] Job %s permanently failed after %d retries", job.ID, job.RetryCount)
			q.updateJobStats(ctx, JobStatusFailed, 1)
			q.releaseDedup(ctx, job)
		}
	} else {
		log.Printf("[JobQueue] Job %s completed successfully", job.ID)
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		q.releaseDedup(ctx, job)
		q.removeCompletedJob(ctx, job.ID)
	}

	if job.Status != JobStatusCompleted {
		q.updateJob(ctx, job)
	}
	q.removeFromProcessing(ctx, job.ID)
}

// BackoffFor returns the delay before retry attempt n (1-based):
// 60s, 120s, 240s, ...
func BackoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return RetryBaseDelay << (attempt - 1)
}

// updateJob updates job data in Redis
func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Printf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}

	jobKey := JobKeyPrefix + job.ID
	if err := q.client.Set(ctx, jobKey, jobData, JobTTL).Err(); err != nil {
		log.Printf("[JobQueue] Failed to update job %s: %v", job.ID, err)
	}
}

// releaseDedup frees the idempotency key once a job reaches a terminal state
func (q *Queue) releaseDedup(ctx context.Context, job *Job) {
	if job.IdempotencyKey == "" {
		return
	}
	if err := q.client.Del(ctx, JobDedupKeyPrefix+job.IdempotencyKey).Err(); err != nil {
		log.Printf("[JobQueue] Failed to release idempotency key for job %s: %v", job.ID, err)
	}
}

// removeFromProcessing removes a job from the processing queue
func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Printf("[JobQueue] Failed to remove job %s from processing queue: %v", jobID, err)
	}
}

// removeCompletedJob completely removes a completed job from Redis
func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	jobKey := JobKeyPrefix + jobID
	if err := q.client.Del(ctx, jobKey).Err(); err != nil {
		log.Printf("[JobQueue] Failed to remove completed job %s from Redis: %v", jobID, err)
	}
}

// updateJobStats updates job statistics
func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Printf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobKey := JobKeyPrefix + jobID
	jobData, err := q.client.Get(ctx, jobKey).Result()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// GetJobStats returns statistics about job statuses
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[JobStatus]int64)
	for status, count := range stats {
		if countInt, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = countInt
		}
	}

	return result, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

// GetDelayedSize returns the number of jobs waiting on their delay
func (q *Queue) GetDelayedSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, JobDelayedKey).Result()
}
