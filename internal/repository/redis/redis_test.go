package redisrepo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	redisx "github.com/kirinyoku/showseat/internal/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const cacheImageName = "redis:7"

type seatMap struct {
	ShowingID int64    `json:"showing_id"`
	Available [][]bool `json:"available"`
}

func TestGetOrSetJSONWithoutCache(t *testing.T) {
	calls := 0
	v, err := GetOrSetJSON(context.Background(), nil, "k", time.Minute, func(context.Context) (int, error) {
		calls++
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)

	var c *Cache
	assert.NoError(t, c.InvalidateShowing(context.Background(), 1))
}

func TestNilLimiterAdmits(t *testing.T) {
	var l *SlidingWindowLimiter

	ok, _, retry, err := l.Allow(context.Background(), "ip:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retry)

	ok, _, _, err = NewSlidingWindowLimiter(nil, "book", 0, time.Minute).Allow(context.Background(), "ip:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

type RedisSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	rdb       *redis.Client
}

func TestRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		s.T().Skipf("redis container unavailable: %s", err)
	}
	s.container = container

	uri, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	opts, err := redis.ParseURL(uri)
	s.Require().NoError(err)

	s.rdb = redis.NewClient(opts)
}

func (s *RedisSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

func (s *RedisSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushDB(context.Background()).Err())
}

func (s *RedisSuite) TestGetOrSetJSONLoadsOnce() {
	ctx := context.Background()
	c := NewCache(s.rdb)
	key := redisx.KeyShowingSeatMap(1)

	var loads atomic.Int32
	loader := func(context.Context) (seatMap, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return seatMap{ShowingID: 1, Available: [][]bool{{true, false}}}, nil
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrSetJSON(ctx, c, key, time.Minute, loader)
			s.NoError(err)
			s.Equal(int64(1), v.ShowingID)
		}()
	}
	wg.Wait()

	s.Equal(int32(1), loads.Load())

	v, ok, err := GetJSON[seatMap](ctx, c, key)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal([][]bool{{true, false}}, v.Available)

	s.Require().NoError(c.InvalidateShowing(ctx, 1))

	_, ok, err = GetJSON[seatMap](ctx, c, key)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisSuite) TestSlidingWindowLimiter() {
	ctx := context.Background()
	l := NewSlidingWindowLimiter(s.rdb, "book", 3, time.Minute)

	for i := range 3 {
		ok, current, _, err := l.Allow(ctx, "10.0.0.1")
		s.Require().NoError(err)
		s.True(ok, "call %d", i)
		s.Equal(int64(i+1), current)
	}

	ok, _, retry, err := l.Allow(ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(ok)
	s.Greater(retry, time.Duration(0))

	ok, _, _, err = l.Allow(ctx, "10.0.0.2")
	s.Require().NoError(err)
	s.True(ok, "other callers have their own window")
}

func (s *RedisSuite) TestIdempotencyStore() {
	ctx := context.Background()
	st := NewIdempotencyStore(s.rdb, time.Hour)
	key := redisx.KeyIdemBooking(1, "abc")

	token, err := st.AcquireLock(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.NotEmpty(token)

	again, err := st.AcquireLock(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Empty(again)

	locked, err := st.IsLocked(ctx, key)
	s.Require().NoError(err)
	s.True(locked)

	// a foreign token does not release the lock
	s.Require().NoError(st.Release(ctx, key, "LOCK:other"))
	locked, err = st.IsLocked(ctx, key)
	s.Require().NoError(err)
	s.True(locked)

	s.Require().NoError(st.SaveResult(ctx, key, `{"reservation_id":1}`))

	res, ok, err := st.GetResult(ctx, key)
	s.Require().NoError(err)
	s.True(ok)
	s.JSONEq(`{"reservation_id":1}`, res)

	// a stored result survives a late release
	s.Require().NoError(st.Release(ctx, key, token))
	_, ok, err = st.GetResult(ctx, key)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisSuite) TestPublishShowingChanged() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := s.rdb.Subscribe(ctx, redisx.ChannelShowingsChanged())
	defer sub.Close()
	_, err := sub.Receive(ctx)
	s.Require().NoError(err)

	s.Require().NoError(redisx.NewShowingsPubSub(s.rdb).PublishShowingChanged(ctx, 42))

	msg, err := sub.ReceiveMessage(ctx)
	s.Require().NoError(err)
	s.Contains(msg.Payload, `"showing_id":42`)
}
