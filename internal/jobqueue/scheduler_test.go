package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedulers(t *testing.T) map[string]Scheduler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Scheduler{
		"memory": NewInMemoryScheduler(),
		"redis":  NewRedisScheduler(client, nil),
	}
}

func TestScheduleAndPollDue(t *testing.T) {
	for name, s := range schedulers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			_, err := s.Schedule(ctx, Job{ID: "past", Kind: "reminder", Payload: "a-1", RunAt: now.Add(-time.Minute)})
			require.NoError(t, err)
			_, err = s.Schedule(ctx, Job{ID: "future", Kind: "reminder", Payload: "a-2", RunAt: now.Add(time.Hour)})
			require.NoError(t, err)

			due, err := s.PollDue(ctx, now, 10)
			require.NoError(t, err)
			require.Len(t, due, 1)
			assert.Equal(t, "past", due[0].ID)
			assert.Equal(t, "a-1", due[0].Payload)

			// Claimed jobs don't come back.
			due, err = s.PollDue(ctx, now, 10)
			require.NoError(t, err)
			assert.Empty(t, due)

			depth, err := s.Depth(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), depth)
		})
	}
}

func TestScheduleReplacesSameID(t *testing.T) {
	for name, s := range schedulers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			_, err := s.Schedule(ctx, Job{ID: "j-1", Kind: "reminder", Payload: "old", RunAt: now.Add(time.Hour)})
			require.NoError(t, err)
			_, err = s.Schedule(ctx, Job{ID: "j-1", Kind: "reminder", Payload: "new", RunAt: now.Add(-time.Minute)})
			require.NoError(t, err)

			depth, err := s.Depth(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), depth)

			due, err := s.PollDue(ctx, now, 10)
			require.NoError(t, err)
			require.Len(t, due, 1)
			assert.Equal(t, "new", due[0].Payload)
		})
	}
}

func TestCancel(t *testing.T) {
	for name, s := range schedulers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			id, err := s.Schedule(ctx, Job{Kind: "reminder", Payload: "a-1", RunAt: now.Add(-time.Minute)})
			require.NoError(t, err)
			require.NotEmpty(t, id)

			require.NoError(t, s.Cancel(ctx, id))
			require.NoError(t, s.Cancel(ctx, "unknown"))

			due, err := s.PollDue(ctx, now, 10)
			require.NoError(t, err)
			assert.Empty(t, due)
		})
	}
}

func TestPollDueHonorsLimitAndOrder(t *testing.T) {
	for name, s := range schedulers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			for i := 0; i < 5; i++ {
				_, err := s.Schedule(ctx, Job{
					Kind:    "reminder",
					Payload: string(rune('a' + i)),
					RunAt:   now.Add(-time.Duration(5-i) * time.Minute),
				})
				require.NoError(t, err)
			}

			due, err := s.PollDue(ctx, now, 3)
			require.NoError(t, err)
			require.Len(t, due, 3)
			// Soonest first.
			assert.Equal(t, "a", due[0].Payload)
			assert.Equal(t, "b", due[1].Payload)
			assert.Equal(t, "c", due[2].Payload)

			due, err = s.PollDue(ctx, now, 10)
			require.NoError(t, err)
			assert.Len(t, due, 2)
		})
	}
}
