// Package ai 自动玩家：请求构造、HTTP 策略客户端、内置启发式策略
package ai

import (
	"context"
	"errors"

	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/table"

	"github.com/charmbracelet/log"
)

var ErrMalformedDecision = errors.New("malformed decision")

// Request 策略服务的入参，字段名与外部服务约定一致（snake_case）
type Request struct {
	PlayerID         string   `json:"player_id"`
	Hand             []string `json:"hand"`
	PublicCards      []string `json:"public_cards"`
	Chips            int64    `json:"chips"`
	CurrentBet       int64    `json:"current_bet"`
	PlayerCurrentBet int64    `json:"player_current_bet"`
	ToCall           int64    `json:"to_call"`
	Pot              int64    `json:"pot"`
	MinRaise         int64    `json:"min_raise"`
	LegalActions     []string `json:"legal_actions"`
	NumPlayers       int      `json:"num_players"`
	Position         int      `json:"position"`
}

type Decision struct {
	Action string `json:"action"`
	Amount int64  `json:"amount,omitempty"`
}

type Policy interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// NewRequest 根据房间当前状态为 p 构造请求
func NewRequest(room *table.Room, p *table.Player) Request {
	gs := room.GameState
	minRaise := gs.MinRaise
	if minRaise <= 0 {
		minRaise = room.BigBlind
	}
	legal := betting.LegalActions(room, p.ID)
	actions := make([]string, 0, len(legal))
	for _, a := range legal {
		actions = append(actions, string(a))
	}
	return Request{
		PlayerID:         p.ID,
		Hand:             codes(p.Cards),
		PublicCards:      codes(gs.CommunityCards),
		Chips:            p.Chips,
		CurrentBet:       gs.CurrentBet,
		PlayerCurrentBet: p.CurrentBet,
		ToCall:           betting.ToCall(room, p),
		Pot:              gs.Pot,
		MinRaise:         minRaise,
		LegalActions:     actions,
		NumPlayers:       len(room.Players),
		Position:         p.Position,
	}
}

func codes(cards []table.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Code())
	}
	return out
}

// Fallback 安全兜底：能过牌就过牌，否则弃牌
func Fallback(legal []string) Decision {
	for _, a := range legal {
		if a == string(betting.Check) {
			return Decision{Action: a}
		}
	}
	return Decision{Action: string(betting.Fold)}
}

// Validate 检查决策是否在合法动作内，加注必须带金额
func Validate(d Decision, legal []string) error {
	if d.Action == "" {
		return ErrMalformedDecision
	}
	if d.Action == string(betting.Raise) && d.Amount <= 0 {
		return ErrMalformedDecision
	}
	for _, a := range legal {
		if a == d.Action {
			return nil
		}
	}
	return ErrMalformedDecision
}

// ToAction 转成状态机动作
func (d Decision) ToAction(playerID string) betting.Action {
	return betting.Action{
		PlayerID: playerID,
		Type:     betting.ActionType(d.Action),
		Amount:   d.Amount,
	}
}

// DecideOrFallback 询问策略，出错时记录日志并兜底，不向房间抛错
func DecideOrFallback(ctx context.Context, p Policy, req Request, logger *log.Logger) Decision {
	d, err := p.Decide(ctx, req)
	if err != nil {
		fb := Fallback(req.LegalActions)
		logger.Warn("policy failed, falling back", "player", req.PlayerID, "err", err, "action", fb.Action)
		return fb
	}
	return d
}
