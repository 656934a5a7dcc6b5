package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"HoldemRoom/internal/game/table"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key 约定：
//
//	kv : lobby:room:{id}   -> JSON(table.Summary)，带 TTL
//	set: lobby:rooms       -> Set(id,...)，List 时清理已过期的成员
const roomsKey = "lobby:rooms"

func roomKey(id string) string {
	return fmt.Sprintf("lobby:room:%s", id)
}

func (r *redisRepo) Save(ctx context.Context, s table.Summary, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	p := r.rdb.TxPipeline()
	p.Set(ctx, roomKey(s.ID), data, ttl)
	p.SAdd(ctx, roomsKey, s.ID)
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) Delete(ctx context.Context, roomID string) error {
	p := r.rdb.TxPipeline()
	p.Del(ctx, roomKey(roomID))
	p.SRem(ctx, roomsKey, roomID)
	_, err := p.Exec(ctx)
	return err
}

func (r *redisRepo) Get(ctx context.Context, roomID string) (table.Summary, error) {
	data, err := r.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return table.Summary{}, ErrNotFound
	}
	if err != nil {
		return table.Summary{}, err
	}
	var s table.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return table.Summary{}, err
	}
	return s, nil
}

func (r *redisRepo) List(ctx context.Context) ([]table.Summary, error) {
	ids, err := r.rdb.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]table.Summary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var expired []any
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var s table.Summary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(expired) > 0 {
		_ = r.rdb.SRem(ctx, roomsKey, expired...).Err()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
