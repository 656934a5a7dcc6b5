package ai

import (
	"context"
	"math/rand"
	"sync"

	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/evaluator"
	"HoldemRoom/internal/game/table"
)

// 成牌类型 -> 牌力（0~1）
var categoryStrength = map[evaluator.Category]float64{
	evaluator.HighCard:      0.15,
	evaluator.Pair:          0.45,
	evaluator.TwoPair:       0.65,
	evaluator.ThreeOfAKind:  0.8,
	evaluator.Straight:      0.85,
	evaluator.Flush:         0.88,
	evaluator.FullHouse:     0.93,
	evaluator.FourOfAKind:   0.97,
	evaluator.StraightFlush: 1,
}

// Heuristic 内置策略：未配置外部服务时使用。可被多个房间并发调用
type Heuristic struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewHeuristic(seed int64) *Heuristic {
	return &Heuristic{rnd: rand.New(rand.NewSource(seed))}
}

func (h *Heuristic) float() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rnd.Float64()
}

// Strength 翻牌前按对子/高牌估算，翻牌后按成牌类型
func Strength(hole, board []table.Card) float64 {
	if len(hole) < 2 {
		return 0
	}
	if len(board) > 0 {
		return categoryStrength[evaluator.Evaluate(hole, board).Category]
	}

	hi, lo := hole[0].Rank, hole[1].Rank
	if lo > hi {
		hi, lo = lo, hi
	}
	suited := hole[0].Suit == hole[1].Suit
	switch {
	case hi == lo && hi >= 10:
		return 0.9
	case hi == lo && hi >= 7:
		return 0.7
	case hi == lo:
		return 0.6
	case hi >= table.Queen && lo >= table.Jack:
		return 0.75
	case hi >= table.Queen && suited:
		return 0.65
	case hi >= table.Queen:
		return 0.55
	case hi >= 10 && lo >= 9:
		return 0.5
	}
	return 0.3
}

func (h *Heuristic) Decide(_ context.Context, req Request) (Decision, error) {
	hole, err := parseCodes(req.Hand)
	if err != nil {
		return Decision{}, err
	}
	board, err := parseCodes(req.PublicCards)
	if err != nil {
		return Decision{}, err
	}
	strength := Strength(hole, board)

	legal := make(map[string]bool, len(req.LegalActions))
	for _, a := range req.LegalActions {
		legal[a] = true
	}
	callCost := req.ToCall
	half := max(req.Pot/2, req.MinRaise)
	full := max(req.Pot, req.MinRaise)

	raise := func(step int64) (Decision, bool) {
		if !legal[string(betting.Raise)] || req.Chips < callCost+step {
			return Decision{}, false
		}
		return Decision{Action: string(betting.Raise), Amount: req.CurrentBet + step}, true
	}
	passive := func() Decision {
		switch {
		case legal[string(betting.Check)]:
			return Decision{Action: string(betting.Check)}
		case legal[string(betting.Call)]:
			return Decision{Action: string(betting.Call)}
		}
		return Decision{Action: string(betting.Fold)}
	}
	fold := Decision{Action: string(betting.Fold)}

	var d Decision
	switch {
	case strength > 0.9:
		if legal[string(betting.AllIn)] {
			d = Decision{Action: string(betting.AllIn)}
		} else if r, ok := raise(full); ok {
			d = r
		} else if r, ok := raise(half); ok {
			d = r
		} else {
			d = passive()
		}

	case strength > 0.8:
		if r, ok := raise(full); ok {
			d = r
		} else if r, ok := raise(half); ok {
			d = r
		} else {
			d = passive()
		}

	case strength > 0.6:
		if r, ok := raise(half); ok && h.float() > 0.3 {
			d = r
		} else {
			d = passive()
		}

	case strength > 0.4:
		potOdds := float64(callCost) / float64(req.Pot+callCost+1)
		switch {
		case callCost <= 0:
			d = passive()
		case strength > potOdds+0.1 && legal[string(betting.Call)]:
			d = Decision{Action: string(betting.Call)}
		default:
			d = fold
		}

	default:
		if callCost <= 0 {
			d = passive()
		} else {
			d = fold
		}
	}

	if Validate(d, req.LegalActions) != nil {
		return Fallback(req.LegalActions), nil
	}
	return d, nil
}

func parseCodes(codes []string) ([]table.Card, error) {
	out := make([]table.Card, 0, len(codes))
	for _, code := range codes {
		c, err := table.ParseCode(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
