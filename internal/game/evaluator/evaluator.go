// Package evaluator 从 5 到 7 张牌中选出最好的五张并打分。
//
// 分数 = 牌型档位 * 15^5 + 比较点数的 15 进制展开（高位在前）。
// 高档位总是大于低档位，分数相等即平局
package evaluator

import (
	"sort"

	"HoldemRoom/internal/game/table"
)

type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var categoryNames = [...]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

const band = 15 * 15 * 15 * 15 * 15

type Result struct {
	Score    int
	Category Category
	Name     string
	BestFive []table.Card
}

// CategoryOf 从分数还原牌型
func CategoryOf(score int) Category {
	return Category(score / band)
}

// Evaluate 枚举底牌 + 公共牌的所有五张组合取最大，调用方保证至少五张
func Evaluate(hole, community []table.Card) Result {
	all := make([]table.Card, 0, len(hole)+len(community))
	all = append(all, hole...)
	all = append(all, community...)

	best := Result{Score: -1}
	var five [5]table.Card
	n := len(all)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						five = [5]table.Card{all[a], all[b], all[c], all[d], all[e]}
						if r := Eval5(five); r.Score > best.Score {
							best = r
						}
					}
				}
			}
		}
	}
	return best
}

type group struct {
	rank  table.Rank
	cards []table.Card
}

// Eval5 恰好五张
func Eval5(hand [5]table.Card) Result {
	cards := hand[:]
	sorted := make([]table.Card, 5)
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank > sorted[j].Rank })

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	// 按张数再按点数降序分组
	groups := make([]group, 0, 5)
	for _, c := range sorted {
		if len(groups) > 0 && groups[len(groups)-1].rank == c.Rank {
			groups[len(groups)-1].cards = append(groups[len(groups)-1].cards, c)
			continue
		}
		groups = append(groups, group{rank: c.Rank, cards: []table.Card{c}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})

	straightHigh, ordered := straightOf(sorted, len(groups))

	var cat Category
	switch {
	case straightHigh > 0 && flush:
		cat = StraightFlush
	case len(groups[0].cards) == 4:
		cat = FourOfAKind
	case len(groups[0].cards) == 3 && len(groups[1].cards) == 2:
		cat = FullHouse
	case flush:
		cat = Flush
	case straightHigh > 0:
		cat = Straight
	case len(groups[0].cards) == 3:
		cat = ThreeOfAKind
	case len(groups[0].cards) == 2 && len(groups[1].cards) == 2:
		cat = TwoPair
	case len(groups[0].cards) == 2:
		cat = Pair
	default:
		cat = HighCard
	}

	var digits []table.Rank
	best := make([]table.Card, 0, 5)
	if cat == Straight || cat == StraightFlush {
		digits = []table.Rank{straightHigh}
		best = append(best, ordered...)
	} else {
		// 每组一位：先组合点数，再踢脚降序
		for _, g := range groups {
			digits = append(digits, g.rank)
			best = append(best, g.cards...)
		}
	}

	name := cat.String()
	if cat == StraightFlush && straightHigh == table.Ace {
		name = "Royal Flush"
	}
	return Result{
		Score:    int(cat)*band + polynomial(digits),
		Category: cat,
		Name:     name,
		BestFive: best,
	}
}

// straightOf 返回顺子最大牌（A2345 为 5）和按顺序排列的牌；不是顺子返回 0
func straightOf(sorted []table.Card, distinct int) (table.Rank, []table.Card) {
	if distinct != 5 {
		return 0, nil
	}
	if sorted[0].Rank-sorted[4].Rank == 4 {
		return sorted[0].Rank, sorted
	}
	if sorted[0].Rank == table.Ace && sorted[1].Rank == 5 {
		wheel := append(append([]table.Card{}, sorted[1:]...), sorted[0])
		return 5, wheel
	}
	return 0, nil
}

func polynomial(digits []table.Rank) int {
	v := 0
	for i := 0; i < 5; i++ {
		v *= 15
		if i < len(digits) {
			v += int(digits[i])
		}
	}
	return v
}
