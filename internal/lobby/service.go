// Package lobby 房间目录：房间每次变化后发布摘要，供 HTTP 查询
package lobby

import (
	"context"
	"time"

	"HoldemRoom/internal/game/table"
	"HoldemRoom/internal/utils"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

type update struct {
	summary table.Summary
	removed bool
}

type Service struct {
	repo    Repo
	ttl     time.Duration
	clock   quartz.Clock
	updates chan update
	log     *log.Logger
}

func NewService(repo Repo, ttl time.Duration, clock quartz.Clock) *Service {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:    repo,
		ttl:     ttl,
		clock:   clock,
		updates: make(chan update, 256),
		log:     utils.Logger("lobby"),
	}
}

// Publish 不阻塞调用方（房间协程），队列满时丢弃
func (s *Service) Publish(sum table.Summary) {
	s.enqueue(update{summary: sum})
}

func (s *Service) Remove(roomID string) {
	s.enqueue(update{summary: table.Summary{ID: roomID}, removed: true})
}

func (s *Service) enqueue(u update) {
	select {
	case s.updates <- u:
	default:
		s.log.Warn("lobby queue full, dropping update", "room", u.summary.ID)
	}
}

// Run 写入存储，并在 TTL 过半时刷新仍存活的房间
func (s *Service) Run(ctx context.Context) error {
	live := make(map[string]table.Summary)
	refresh := s.clock.NewTicker(s.ttl / 2)
	defer refresh.Stop()

	for {
		select {
		case u := <-s.updates:
			id := u.summary.ID
			if u.removed {
				delete(live, id)
				if err := s.repo.Delete(ctx, id); err != nil {
					s.log.Error("delete room", "room", id, "err", err)
				}
				continue
			}
			live[id] = u.summary
			if err := s.repo.Save(ctx, u.summary, s.ttl); err != nil {
				s.log.Error("save room", "room", id, "err", err)
			}

		case <-refresh.C:
			for id, sum := range live {
				if err := s.repo.Save(ctx, sum, s.ttl); err != nil {
					s.log.Error("refresh room", "room", id, "err", err)
				}
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Service) Rooms(ctx context.Context) ([]table.Summary, error) {
	return s.repo.List(ctx)
}

func (s *Service) Room(ctx context.Context, id string) (table.Summary, error) {
	return s.repo.Get(ctx, id)
}
