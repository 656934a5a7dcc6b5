package lobby

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"HoldemRoom/internal/game/table"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(id string, seated int) table.Summary {
	return table.Summary{
		ID:         id,
		HostID:     "host-" + id,
		Seated:     seated,
		MaxPlayers: 10,
		Status:     table.StatusWaiting,
		SmallBlind: 10,
		BigBlind:   20,
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// 两种实现走同一套用例
func testRepo(t *testing.T, repo Repo) {
	ctx := context.Background()

	// 🟢 Step 1: 写入两个房间，按 ID 排序列出
	require.NoError(t, repo.Save(ctx, summary("b", 2), time.Minute))
	require.NoError(t, repo.Save(ctx, summary("a", 1), time.Minute))
	rooms, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "a", rooms[0].ID)
	assert.Equal(t, "b", rooms[1].ID)

	// 🟢 Step 2: 覆盖写入
	require.NoError(t, repo.Save(ctx, summary("a", 3), time.Minute))
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Seated)

	// 🟢 Step 3: 删除后查不到，重复删除不报错
	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	rooms, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestMemoryRepo(t *testing.T) {
	testRepo(t, NewMemoryRepo())
}

func TestMemoryRepoExpiry(t *testing.T) {
	repo := NewMemoryRepo().(*memRepo)
	now := time.Now()
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, summary("a", 1), time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := repo.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	rooms, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestRedisRepo(t *testing.T) {
	mr, rdb := newRedis(t)
	testRepo(t, NewRedisRepo(rdb))

	assert.True(t, mr.Exists("lobby:room:b"))
	assert.False(t, mr.Exists("lobby:room:a"))
}

func TestRedisRepoExpiry(t *testing.T) {
	mr, rdb := newRedis(t)
	repo := NewRedisRepo(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, summary("a", 1), time.Minute))
	require.NoError(t, repo.Save(ctx, summary("b", 1), time.Hour))
	mr.FastForward(2 * time.Minute)

	rooms, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "b", rooms[0].ID)

	// 过期成员已从索引集合中移除
	members, err := mr.Members(roomsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
}

func runService(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestServicePublishRemove(t *testing.T) {
	svc := NewService(NewMemoryRepo(), time.Minute, nil)
	runService(t, svc)
	ctx := context.Background()

	svc.Publish(summary("r1", 1))
	assert.Eventually(t, func() bool {
		s, err := svc.Room(ctx, "r1")
		return err == nil && s.Seated == 1
	}, time.Second, 5*time.Millisecond)

	svc.Publish(summary("r1", 2))
	svc.Remove("r1")
	assert.Eventually(t, func() bool {
		_, err := svc.Room(ctx, "r1")
		return err == ErrNotFound
	}, time.Second, 5*time.Millisecond)
}

func TestServiceRefreshesTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	clock := quartz.NewMock(t)
	svc := NewService(NewRedisRepo(rdb), 10*time.Minute, clock)
	runService(t, svc)

	svc.Publish(summary("r1", 1))
	assert.Eventually(t, func() bool {
		return mr.Exists("lobby:room:r1")
	}, time.Second, 5*time.Millisecond)

	mr.FastForward(6 * time.Minute)
	assert.Equal(t, 4*time.Minute, mr.TTL("lobby:room:r1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(5 * time.Minute).MustWait(ctx)
	assert.Eventually(t, func() bool {
		return mr.TTL("lobby:room:r1") == 10*time.Minute
	}, time.Second, 5*time.Millisecond)
}

func TestServiceDropsWhenQueueFull(t *testing.T) {
	// 不启动 Run，队列塞满后 Publish 不阻塞
	svc := NewService(NewMemoryRepo(), time.Minute, nil)
	for i := 0; i < cap(svc.updates)+10; i++ {
		svc.Publish(summary("r1", i))
	}
	assert.Len(t, svc.updates, cap(svc.updates))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	require.NoError(t, repo.Save(context.Background(), summary("r1", 2), time.Minute))

	h := NewHandler(NewService(repo, time.Minute, nil))
	r := gin.New()
	r.GET("/rooms", h.List)
	r.GET("/rooms/:id", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Rooms []table.Summary `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "r1", list.Rooms[0].ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/r1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var one table.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, 2, one.Seated)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
