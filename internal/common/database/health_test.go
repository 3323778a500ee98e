package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Run(t *testing.T) {
	h := NewHealth(time.Second)
	h.Register("postgres", func(context.Context) error { return nil })
	h.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	status, healthy := h.Run(context.Background())

	assert.False(t, healthy)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "connection refused"}, status)
	assert.Equal(t, []string{"postgres", "redis"}, h.Names())
}

func TestHealth_RunAppliesTimeout(t *testing.T) {
	h := NewHealth(20 * time.Millisecond)
	h.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status, healthy := h.Run(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), status["slow"])
}

func TestPostgresCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, PostgresCheck(db)(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, PostgresCheck(db)(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	assert.NoError(t, RedisCheck(rdb)(context.Background()))

	mr.Close()
	assert.Error(t, RedisCheck(rdb)(context.Background()))
}
