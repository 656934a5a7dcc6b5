package lobby

import (
	"context"
	"sort"
	"sync"
	"time"

	"HoldemRoom/internal/game/table"
)

type memEntry struct {
	summary table.Summary
	expires time.Time
}

type memRepo struct {
	mu    sync.Mutex
	rooms map[string]memEntry
	now   func() time.Time
}

func NewMemoryRepo() Repo {
	return &memRepo{
		rooms: make(map[string]memEntry),
		now:   time.Now,
	}
}

func (m *memRepo) Save(ctx context.Context, s table.Summary, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[s.ID] = memEntry{summary: s, expires: m.now().Add(ttl)}
	return nil
}

func (m *memRepo) Delete(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *memRepo) Get(ctx context.Context, roomID string) (table.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[roomID]
	if !ok || !m.now().Before(e.expires) {
		delete(m.rooms, roomID)
		return table.Summary{}, ErrNotFound
	}
	return e.summary, nil
}

func (m *memRepo) List(ctx context.Context) ([]table.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make([]table.Summary, 0, len(m.rooms))
	for id, e := range m.rooms {
		// 顺带清理过期条目
		if !now.Before(e.expires) {
			delete(m.rooms, id)
			continue
		}
		out = append(out, e.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
