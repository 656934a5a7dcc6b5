package lobby

import (
	"context"
	"errors"
	"time"

	"HoldemRoom/internal/game/table"
)

var ErrNotFound = errors.New("room not found")

// Repo 房间目录存储。条目带 TTL，过期后自动消失
type Repo interface {
	// Save 写入或覆盖房间摘要，并刷新 TTL
	Save(ctx context.Context, s table.Summary, ttl time.Duration) error
	// Delete 删除房间，不存在时不报错
	Delete(ctx context.Context, roomID string) error
	// Get 未找到返回 ErrNotFound
	Get(ctx context.Context, roomID string) (table.Summary, error)
	// List 按房间 ID 排序返回
	List(ctx context.Context) ([]table.Summary, error)
}
