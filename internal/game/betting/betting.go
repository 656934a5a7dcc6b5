// Package betting 在 *table.Room 上推进一手德州扑克。
//
// 这里的函数只修改传入的房间；调用方负责串行化（每个房间一个协程，见 engine）
package betting

import (
	"errors"
	"fmt"

	"HoldemRoom/internal/game/table"
)

var (
	ErrHandNotRunning      = errors.New("no hand in progress")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrCannotCheck         = errors.New("cannot check, must call")
	ErrInsufficientChips   = errors.New("not enough chips")
	ErrRaiseAmountRequired = errors.New("raise amount required")
	ErrRaiseTooSmall       = errors.New("raise too small")
	ErrRaiseNotReopened    = errors.New("betting was not reopened, call or fold")
	ErrUnknownAction       = errors.New("unknown action")
)

type ActionType string

const (
	Fold  ActionType = "fold"
	Check ActionType = "check"
	Call  ActionType = "call"
	Raise ActionType = "raise"
	AllIn ActionType = "all-in"
)

// Action 玩家的一次决策。Amount 只对 Raise 有效，表示本街加注到的总额而不是增量
type Action struct {
	PlayerID string     `json:"playerId"`
	Type     ActionType `json:"action"`
	Amount   int64      `json:"amount,omitempty"`
}

// ProcessAction 校验并执行 a，然后推进行动位或进入下一街。出错时房间不变
func ProcessAction(room *table.Room, a Action) error {
	gs := &room.GameState
	if !room.IsGameRunning || !gs.Status.Betting() {
		return ErrHandNotRunning
	}
	idx := room.PlayerIndex(a.PlayerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	if idx != gs.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	p := room.Players[idx]

	switch a.Type {
	case Fold:
		p.IsFolded = true
		p.IsActive = false

	case Check:
		if p.CurrentBet < gs.CurrentBet {
			return ErrCannotCheck
		}

	case Call:
		toCall := gs.CurrentBet - p.CurrentBet
		if toCall > p.Chips {
			return fmt.Errorf("%w to call %d", ErrInsufficientChips, toCall)
		}
		commit(gs, p, toCall)

	case Raise:
		if a.Amount <= 0 {
			return ErrRaiseAmountRequired
		}
		if !reopened(gs, p) {
			return ErrRaiseNotReopened
		}
		minTo := MinRaiseTo(room)
		if a.Amount < minTo {
			return fmt.Errorf("%w: must raise to at least %d", ErrRaiseTooSmall, minTo)
		}
		added := a.Amount - p.CurrentBet
		if added > p.Chips {
			return fmt.Errorf("%w to raise to %d", ErrInsufficientChips, a.Amount)
		}
		prev := gs.CurrentBet
		commit(gs, p, added)
		gs.CurrentBet = a.Amount
		gs.MinRaise = a.Amount - prev
		gs.RaiseSeq++

	case AllIn:
		if p.Chips+p.CurrentBet > gs.CurrentBet && !reopened(gs, p) {
			return ErrRaiseNotReopened
		}
		commit(gs, p, p.Chips)
		if p.CurrentBet > gs.CurrentBet {
			diff := p.CurrentBet - gs.CurrentBet
			gs.CurrentBet = p.CurrentBet
			// 不足额全下抬高下注但不重新开放加注
			if diff >= gs.MinRaise {
				gs.MinRaise = diff
				gs.RaiseSeq++
			}
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	p.HasActed = true
	p.RaiseSeq = gs.RaiseSeq
	advance(room)
	return nil
}

// commit 筹码从玩家移入底池
func commit(gs *table.GameState, p *table.Player, amount int64) {
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBetInHand += amount
	gs.Pot += amount
	if p.Chips == 0 {
		p.IsAllIn = true
	}
}

// reopened p 能否加注：本街还没行动过，或上次行动后有人完整加注过
func reopened(gs *table.GameState, p *table.Player) bool {
	return !p.HasActed || p.RaiseSeq < gs.RaiseSeq
}

// MinRaiseTo 加注到的最小合法总额
func MinRaiseTo(room *table.Room) int64 {
	gs := room.GameState
	step := gs.MinRaise
	if step <= 0 {
		step = room.BigBlind
	}
	return gs.CurrentBet + step
}

// LegalActions playerID 当前可做的动作；不轮到他时为 nil
func LegalActions(room *table.Room, playerID string) []ActionType {
	gs := &room.GameState
	p := room.CurrentPlayer()
	if !room.IsGameRunning || !gs.Status.Betting() || p == nil || p.ID != playerID {
		return nil
	}
	actions := []ActionType{Fold}
	toCall := gs.CurrentBet - p.CurrentBet
	if toCall <= 0 {
		actions = append(actions, Check)
	} else if toCall <= p.Chips {
		actions = append(actions, Call)
	}
	canReopen := reopened(gs, p)
	if canReopen && p.CurrentBet+p.Chips >= MinRaiseTo(room) {
		actions = append(actions, Raise)
	}
	if p.Chips > 0 && (canReopen || p.CurrentBet+p.Chips <= gs.CurrentBet) {
		actions = append(actions, AllIn)
	}
	return actions
}

// ToCall 本街还需跟注的数量，不超过筹码
func ToCall(room *table.Room, p *table.Player) int64 {
	owed := room.GameState.CurrentBet - p.CurrentBet
	if owed < 0 {
		return 0
	}
	if owed > p.Chips {
		return p.Chips
	}
	return owed
}
