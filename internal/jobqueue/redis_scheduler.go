package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/systemsmatic/backend/pkg/logging"
)

const (
	scheduleKey = "jobqueue:schedule"
	payloadKey  = "jobqueue:payload"
)

// RedisScheduler stores delayed jobs in a sorted set scored by run time, with
// payloads in a companion hash. Claiming is a ZREM per member, so with several
// workers polling, each due job is handed to exactly one of them.
type RedisScheduler struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisScheduler creates a scheduler on the given redis client.
func NewRedisScheduler(client *redis.Client, logger *logging.Logger) *RedisScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisScheduler{client: client, logger: logger}
}

// Schedule stores the job, replacing any job with the same ID.
func (s *RedisScheduler) Schedule(ctx context.Context, job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.RunAt = job.RunAt.UTC()

	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("jobqueue: marshal job: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, scheduleKey, redis.Z{Score: float64(job.RunAt.Unix()), Member: job.ID})
	pipe.HSet(ctx, payloadKey, job.ID, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("jobqueue: schedule job: %w", err)
	}
	return job.ID, nil
}

// Cancel drops the job. Unknown IDs are a no-op.
func (s *RedisScheduler) Cancel(ctx context.Context, jobID string) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, scheduleKey, jobID)
	pipe.HDel(ctx, payloadKey, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("jobqueue: cancel job: %w", err)
	}
	return nil
}

// PollDue claims up to limit due jobs. A job whose ZREM returns 0 was claimed
// by a concurrent worker and is skipped.
func (s *RedisScheduler) PollDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}

	ids, err := s.client.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("jobqueue: poll due: %w", err)
	}

	var due []Job
	for _, id := range ids {
		removed, err := s.client.ZRem(ctx, scheduleKey, id).Result()
		if err != nil {
			return due, fmt.Errorf("jobqueue: claim job %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}

		raw, err := s.client.HGet(ctx, payloadKey, id).Result()
		if err != nil {
			s.logger.Error("job payload missing", "job_id", id, "error", err)
			continue
		}
		_ = s.client.HDel(ctx, payloadKey, id).Err()

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			s.logger.Error("job payload corrupt", "job_id", id, "error", err)
			continue
		}
		due = append(due, job)
	}
	return due, nil
}

// Depth returns the number of jobs waiting.
func (s *RedisScheduler) Depth(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, scheduleKey).Result()
	if err != nil {
		return 0, fmt.Errorf("jobqueue: queue depth: %w", err)
	}
	return n, nil
}

var _ Scheduler = (*RedisScheduler)(nil)
