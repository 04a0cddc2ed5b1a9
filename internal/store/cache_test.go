package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestUnreadCountCache(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	mock.ExpectSet("unread:user-1", int64(4), 10*time.Minute).SetVal("OK")
	mock.ExpectGet("unread:user-1").SetVal("4")
	mock.ExpectGet("unread:user-2").RedisNil()

	st := New(db, rdb, zap.NewNop().Sugar())
	ctx := context.Background()

	assert.NoError(t, st.CacheUnreadCount(ctx, "user-1", 4))

	count, err := st.GetCachedUnreadCount(ctx, "user-1")
	assert.NoError(t, err)
	assert.EqualValues(t, 4, count)

	_, err = st.GetCachedUnreadCount(ctx, "user-2")
	assert.ErrorIs(t, err, redis.Nil)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCountCache_NilClientMisses(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	st := New(db, nil, zap.NewNop().Sugar())

	assert.NoError(t, st.CacheUnreadCount(context.Background(), "u", 1))
	_, err = st.GetCachedUnreadCount(context.Background(), "u")
	assert.ErrorIs(t, err, redis.Nil)
}
