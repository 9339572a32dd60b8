package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLedger_CountsPerModel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	fixed := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	ledger := NewRedisLedger(rdb, "test:models")
	ledger.now = func() time.Time { return fixed }

	ctx := context.Background()
	require.NoError(t, ledger.RecordAttempt(ctx, "gemini-2.5-flash", errors.New("quota exceeded")))
	require.NoError(t, ledger.RecordAttempt(ctx, "gemini-2.5-flash", errors.New("quota exceeded")))
	require.NoError(t, ledger.RecordAttempt(ctx, "gemini-2.0-flash", nil))

	stats, err := ledger.Stats(ctx, []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-pro"})
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, int64(0), stats[0].Successes)
	assert.Equal(t, int64(2), stats[0].Failures)
	assert.Equal(t, "quota exceeded", stats[0].LastError)
	require.NotNil(t, stats[0].LastAttemptAt)
	assert.True(t, fixed.Equal(*stats[0].LastAttemptAt))
	assert.Nil(t, stats[0].LastSuccessAt)

	assert.Equal(t, int64(1), stats[1].Successes)
	assert.NotNil(t, stats[1].LastSuccessAt)

	assert.Equal(t, ModelStats{Model: "gemini-pro"}, stats[2])

	assert.Equal(t, "2", mr.HGet("test:models:gemini-2.5-flash", "failures"))
}

func TestRedisLedger_TruncatesLongErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ledger := NewRedisLedger(rdb, "test:models")
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}

	require.NoError(t, ledger.RecordAttempt(context.Background(), "m", errors.New(string(long))))
	assert.Len(t, mr.HGet("test:models:m", "last_error"), maxLedgerErrorLen)
}

func TestRedisLedger_StatsError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectHGetAll("test:models:gemini-pro").SetErr(errors.New("connection refused"))

	_, err := NewRedisLedger(db, "test:models").Stats(context.Background(), []string{"gemini-pro"})

	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLedger_RecordError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	err := NewRedisLedger(rdb, "test:models").RecordAttempt(context.Background(), "m", nil)
	assert.Error(t, err)
}
