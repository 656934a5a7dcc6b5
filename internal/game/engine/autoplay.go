package engine

import (
	"HoldemRoom/internal/ai"
	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/table"
)

func (e *Engine) currentTurn() (turn, bool) {
	room := e.room
	p := room.CurrentPlayer()
	if !room.IsGameRunning || !room.GameState.Status.Betting() || p == nil {
		return turn{}, false
	}
	return turn{
		hand:   room.GameState.HandID,
		seat:   room.GameState.CurrentPlayerIndex,
		player: p.ID,
		moves:  e.moves,
	}, p.IsAI
}

// scheduleAI 轮到自动玩家时延迟 thinkDelay 后行动，同一行动机会只调度一次
func (e *Engine) scheduleAI() {
	t, isAI := e.currentTurn()
	if !isAI || t == e.pending {
		return
	}
	e.pending = t
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = e.clock.AfterFunc(e.thinkDelay, func() {
		go e.autoplay(t)
	})
}

// autoplay 在房间协程之外询问策略；前后两次检查行动机会是否仍然有效
func (e *Engine) autoplay(t turn) {
	var (
		req   ai.Request
		stale bool
	)
	if err := e.Do(func(room *table.Room) {
		if cur, _ := e.currentTurn(); cur != t {
			stale = true
			return
		}
		req = ai.NewRequest(room, room.CurrentPlayer())
	}); err != nil {
		return
	}
	if stale {
		e.log.Debug("ai turn expired before asking", "player", t.player, "hand", t.hand)
		return
	}

	d := ai.DecideOrFallback(e.ctx, e.policy, req, e.log)

	_ = e.Do(func(room *table.Room) {
		if cur, _ := e.currentTurn(); cur != t {
			e.log.Debug("discarding stale ai action", "player", t.player, "hand", t.hand, "action", d.Action)
			return
		}
		if err := betting.ProcessAction(room, d.ToAction(t.player)); err != nil {
			fb := ai.Fallback(req.LegalActions)
			e.log.Warn("ai action rejected, falling back", "player", t.player, "action", d.Action, "amount", d.Amount, "err", err, "fallback", fb.Action)
			if err := betting.ProcessAction(room, fb.ToAction(t.player)); err != nil {
				e.log.Error("ai fallback rejected", "player", t.player, "err", err)
				return
			}
			d = fb
		}
		e.moves++
		e.log.Debug("ai action", "player", t.player, "action", d.Action, "amount", d.Amount)
		e.changed()
	})
}
