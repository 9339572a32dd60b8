package plan

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxLedgerErrorLen = 512

// ModelStats is the ledger view of one model.
type ModelStats struct {
	Model         string     `json:"model"`
	Successes     int64      `json:"successes"`
	Failures      int64      `json:"failures"`
	LastError     string     `json:"last_error,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
}

// RedisLedger keeps per-model attempt counters in one Redis hash per model.
type RedisLedger struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisLedger(rdb redis.Cmdable, prefix string) *RedisLedger {
	return &RedisLedger{rdb: rdb, prefix: prefix, now: time.Now}
}

func (l *RedisLedger) key(model string) string {
	return l.prefix + ":" + model
}

// RecordAttempt implements AttemptRecorder.
func (l *RedisLedger) RecordAttempt(ctx context.Context, modelID string, attemptErr error) error {
	key := l.key(modelID)
	ts := l.now().UTC().Format(time.RFC3339)

	pipe := l.rdb.TxPipeline()
	if attemptErr == nil {
		pipe.HIncrBy(ctx, key, "successes", 1)
		pipe.HSet(ctx, key, "last_attempt_at", ts, "last_success_at", ts)
	} else {
		msg := attemptErr.Error()
		if len(msg) > maxLedgerErrorLen {
			msg = msg[:maxLedgerErrorLen]
		}
		pipe.HIncrBy(ctx, key, "failures", 1)
		pipe.HSet(ctx, key, "last_attempt_at", ts, "last_error", msg)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt for %s: %w", modelID, err)
	}
	return nil
}

// Stats returns counters for each model in order. Unknown models report zeros.
func (l *RedisLedger) Stats(ctx context.Context, modelIDs []string) ([]ModelStats, error) {
	out := make([]ModelStats, 0, len(modelIDs))

	for _, m := range modelIDs {
		h, err := l.rdb.HGetAll(ctx, l.key(m)).Result()
		if err != nil {
			return nil, fmt.Errorf("read stats for %s: %w", m, err)
		}

		s := ModelStats{Model: m, LastError: h["last_error"]}
		s.Successes, _ = strconv.ParseInt(h["successes"], 10, 64)
		s.Failures, _ = strconv.ParseInt(h["failures"], 10, 64)
		s.LastAttemptAt = parseTime(h["last_attempt_at"])
		s.LastSuccessAt = parseTime(h["last_success_at"])
		out = append(out, s)
	}

	return out, nil
}

func parseTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
