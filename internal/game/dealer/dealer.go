package dealer

import (
	"math/rand"

	"HoldemRoom/internal/game/table"
)

const DeckSize = 52

// NewDeck 按花色（红桃、方块、梅花、黑桃）和点数 2..A 生成 52 张牌
func NewDeck() []table.Card {
	deck := make([]table.Card, 0, DeckSize)
	for _, s := range table.Suits {
		for r := table.Rank(2); r <= table.Ace; r++ {
			deck = append(deck, table.Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle Fisher-Yates 洗牌，不修改入参
func Shuffle(deck []table.Card, rnd *rand.Rand) []table.Card {
	out := make([]table.Card, len(deck))
	copy(out, deck)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Dealer 每个房间一个，只在 engine 协程中使用（非并发安全）
type Dealer struct {
	rnd *rand.Rand
}

func NewDealer(seed int64) *Dealer {
	return &Dealer{rnd: rand.New(rand.NewSource(seed))}
}

func (d *Dealer) ShuffledDeck() []table.Card {
	return Shuffle(NewDeck(), d.rnd)
}

// Draw 取顶牌，牌堆为空时 ok 为 false
func Draw(deck []table.Card) (card table.Card, rest []table.Card, ok bool) {
	if len(deck) == 0 {
		return table.Card{}, deck, false
	}
	n := len(deck) - 1
	return deck[n], deck[:n], true
}

// DealHoleCards 按座位顺序每轮一张，给每个在局玩家发两张，返回剩余牌堆
func DealHoleCards(deck []table.Card, players []*table.Player) []table.Card {
	for pass := 0; pass < 2; pass++ {
		for _, p := range players {
			if !p.IsActive {
				continue
			}
			var c table.Card
			c, deck, _ = Draw(deck)
			p.Cards = append(p.Cards, c)
		}
	}
	return deck
}

// DealCommunity 烧一张，翻 n 张
func DealCommunity(deck []table.Card, n int) (burn table.Card, cards []table.Card, rest []table.Card) {
	burn, deck, _ = Draw(deck)
	cards = make([]table.Card, 0, n)
	for i := 0; i < n; i++ {
		var c table.Card
		c, deck, _ = Draw(deck)
		cards = append(cards, c)
	}
	return burn, cards, deck
}
