package betting

import (
	"slices"
	"sort"

	"HoldemRoom/internal/game/evaluator"
	"HoldemRoom/internal/game/table"
)

// buildPots 按投入分层成主池和边池，每层由覆盖该层的在局玩家争夺。
// 没有在局玩家覆盖的层并入下一层，相邻且争夺者相同的层合并
func buildPots(room *table.Room) []table.Pot {
	type stake struct {
		amount int64
		seat   int // -1 for money left by a departed player
	}
	var stakes []stake
	for i, p := range room.Players {
		if p.TotalBetInHand > 0 {
			stakes = append(stakes, stake{p.TotalBetInHand, i})
		}
	}
	for _, d := range room.GameState.DeadBets {
		stakes = append(stakes, stake{d, -1})
	}

	var levels []int64
	seen := make(map[int64]bool)
	for _, s := range stakes {
		if !seen[s.amount] {
			seen[s.amount] = true
			levels = append(levels, s.amount)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []table.Pot
	var carry, prev int64
	for _, level := range levels {
		amount := carry
		var eligible []int
		for _, s := range stakes {
			amount += min(s.amount, level) - min(s.amount, prev)
			if s.seat >= 0 && s.amount >= level && room.Players[s.seat].IsActive {
				eligible = append(eligible, s.seat)
			}
		}
		prev = level
		carry = 0

		switch {
		case len(eligible) == 0 && len(pots) == 0:
			carry = amount
		case len(eligible) == 0:
			pots[len(pots)-1].Amount += amount
		case len(pots) > 0 && slices.Equal(pots[len(pots)-1].Eligible, eligible):
			pots[len(pots)-1].Amount += amount
		default:
			pots = append(pots, table.Pot{Amount: amount, Eligible: eligible})
		}
	}

	if carry > 0 {
		var everyone []int
		for i, p := range room.Players {
			if p.IsActive {
				everyone = append(everyone, i)
			}
		}
		pots = append(pots, table.Pot{Amount: carry, Eligible: everyone})
	}
	return pots
}

// splitPot 分给最好的牌；余数按座位顺序逐个给赢家
func splitPot(pot table.Pot, results map[int]evaluator.Result) map[int]int64 {
	best := -1
	var winners []int
	for _, seat := range pot.Eligible {
		score := results[seat].Score
		switch {
		case score > best:
			best = score
			winners = []int{seat}
		case score == best:
			winners = append(winners, seat)
		}
	}
	sort.Ints(winners)

	out := make(map[int]int64, len(winners))
	if len(winners) == 0 {
		return out
	}
	n := int64(len(winners))
	share, rem := pot.Amount/n, pot.Amount%n
	for i, seat := range winners {
		out[seat] = share
		if int64(i) < rem {
			out[seat]++
		}
	}
	return out
}
