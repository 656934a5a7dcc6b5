package betting

import (
	"HoldemRoom/internal/game/dealer"
	"HoldemRoom/internal/game/evaluator"
	"HoldemRoom/internal/game/table"
)

// Shuffler 每手提供一副洗好的 52 张牌
type Shuffler interface {
	ShuffledDeck() []table.Card
}

var nextStatus = map[table.Status]table.Status{
	table.StatusPreflop: table.StatusFlop,
	table.StatusFlop:    table.StatusTurn,
	table.StatusTurn:    table.StatusRiver,
	table.StatusRiver:   table.StatusShowdown,
}

var streetCards = map[table.Status]int{
	table.StatusFlop:  3,
	table.StatusTurn:  1,
	table.StatusRiver: 1,
}

func isActive(p *table.Player) bool { return p.IsActive }

func canAct(p *table.Player) bool { return p.IsActive && !p.IsAllIn }

// nextIndex 从 start 开始（含）循环找第一个满足 ok 的座位，没有返回 -1
func nextIndex(room *table.Room, start int, ok func(*table.Player) bool) int {
	n := len(room.Players)
	if n == 0 {
		return -1
	}
	start = ((start % n) + n) % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if ok(room.Players[idx]) {
			return idx
		}
	}
	return -1
}

func countWhere(room *table.Room, ok func(*table.Player) bool) int {
	n := 0
	for _, p := range room.Players {
		if ok(p) {
			n++
		}
	}
	return n
}

// StartHand 移动庄家、重置座位并发牌。
// 有筹码的玩家不足两人时返回 false，房间置为 finished 且不再运行。
// 调用方保证当前没有进行中的牌局
func StartHand(room *table.Room, deck Shuffler) bool {
	n := len(room.Players)
	prev := room.GameState
	dealerIdx := 0
	if n > 0 {
		dealerIdx = (prev.DealerIndex + 1) % n
	}
	room.GameState = table.GameState{
		HandID:             prev.HandID + 1,
		Status:             table.StatusPreflop,
		CurrentPlayerIndex: -1,
		DealerIndex:        dealerIdx,
		SmallBlindIndex:    -1,
		BigBlindIndex:      -1,
		MinRaise:           room.BigBlind,
		CommunityCards:     []table.Card{},
		Deck:               deck.ShuffledDeck(),
		Winners:            []table.Winner{},
	}
	gs := &room.GameState

	for _, p := range room.Players {
		p.Cards = nil
		p.CurrentBet = 0
		p.TotalBetInHand = 0
		p.IsActive = p.Chips > 0
		p.IsFolded = !p.IsActive
		p.IsAllIn = false
		p.HasActed = false
		p.RaiseSeq = 0
	}

	active := countWhere(room, isActive)
	if active < 2 {
		gs.Status = table.StatusFinished
		room.IsGameRunning = false
		return false
	}
	room.IsGameRunning = true

	gs.Deck = dealer.DealHoleCards(gs.Deck, room.Players)

	if active == 2 {
		// 单挑：庄家下小盲
		gs.SmallBlindIndex = nextIndex(room, dealerIdx, isActive)
	} else {
		gs.SmallBlindIndex = nextIndex(room, dealerIdx+1, isActive)
	}
	gs.BigBlindIndex = nextIndex(room, gs.SmallBlindIndex+1, isActive)
	postBlind(room, gs.SmallBlindIndex, room.SmallBlind)
	postBlind(room, gs.BigBlindIndex, room.BigBlind)

	gs.CurrentPlayerIndex = nextIndex(room, gs.BigBlindIndex+1, canAct)
	if gs.CurrentPlayerIndex < 0 || roundOver(room) {
		nextStreet(room)
	}
	return true
}

func postBlind(room *table.Room, idx int, amount int64) {
	gs := &room.GameState
	p := room.Players[idx]
	if amount > p.Chips {
		amount = p.Chips
	}
	commit(gs, p, amount)
	if p.CurrentBet > gs.CurrentBet {
		gs.CurrentBet = p.CurrentBet
	}
}

func advance(room *table.Room) {
	if roundOver(room) {
		nextStreet(room)
		return
	}
	gs := &room.GameState
	next := nextIndex(room, gs.CurrentPlayerIndex+1, canAct)
	if next < 0 {
		nextStreet(room)
		return
	}
	gs.CurrentPlayerIndex = next
}

// roundOver 本街是否已无需行动
func roundOver(room *table.Room) bool {
	gs := &room.GameState
	var active, waiting []*table.Player
	for _, p := range room.Players {
		if !p.IsActive {
			continue
		}
		active = append(active, p)
		if !p.IsAllIn {
			waiting = append(waiting, p)
		}
	}
	if len(active) <= 1 || len(waiting) == 0 {
		return true
	}
	for _, p := range waiting {
		if !p.HasActed || p.CurrentBet != gs.CurrentBet {
			return false
		}
	}
	return true
}

// nextStreet 结束本街进入下一街；能下注的不足两人时直接发完公共牌
func nextStreet(room *table.Room) {
	gs := &room.GameState
	if countWhere(room, isActive) == 1 {
		awardUncontested(room)
		return
	}

	for _, p := range room.Players {
		p.CurrentBet = 0
		p.HasActed = false
		p.RaiseSeq = 0
	}
	gs.CurrentBet = 0
	gs.MinRaise = room.BigBlind
	gs.RaiseSeq = 0

	if gs.Status == table.StatusRiver {
		showdown(room)
		return
	}
	dealStreet(room)

	if countWhere(room, canAct) < 2 {
		runOut(room)
		return
	}
	gs.CurrentPlayerIndex = nextIndex(room, gs.DealerIndex+1, canAct)
}

func dealStreet(room *table.Room) {
	gs := &room.GameState
	gs.Status = nextStatus[gs.Status]
	gs.BettingRound++
	burn, cards, rest := dealer.DealCommunity(gs.Deck, streetCards[gs.Status])
	gs.Deck = rest
	gs.Burned = append(gs.Burned, burn)
	gs.CommunityCards = append(gs.CommunityCards, cards...)
}

// runOut 发完剩余公共牌并结算
func runOut(room *table.Room) {
	gs := &room.GameState
	gs.CurrentPlayerIndex = -1
	for gs.Status != table.StatusRiver {
		dealStreet(room)
	}
	showdown(room)
}

func finish(room *table.Room) {
	gs := &room.GameState
	gs.Status = table.StatusFinished
	gs.CurrentPlayerIndex = -1
	gs.Pot = 0
	room.IsGameRunning = false
}

func awardUncontested(room *table.Room) {
	gs := &room.GameState
	idx := nextIndex(room, 0, isActive)
	w := room.Players[idx]
	w.Chips += gs.Pot
	gs.Winners = append(gs.Winners, table.Winner{
		PlayerID:        w.ID,
		Amount:          gs.Pot,
		HandDescription: "Win",
	})
	finish(room)
}

func showdown(room *table.Room) {
	gs := &room.GameState
	gs.Status = table.StatusShowdown
	gs.CurrentPlayerIndex = -1

	results := make(map[int]evaluator.Result)
	for i, p := range room.Players {
		if p.IsActive {
			results[i] = evaluator.Evaluate(p.Cards, gs.CommunityCards)
		}
	}

	pots := buildPots(room)
	awards := make([]int64, len(room.Players))
	for _, pot := range pots {
		for i, amount := range splitPot(pot, results) {
			awards[i] += amount
		}
	}

	for i, amount := range awards {
		if amount == 0 {
			continue
		}
		p := room.Players[i]
		p.Chips += amount
		r := results[i]
		gs.Winners = append(gs.Winners, table.Winner{
			PlayerID:        p.ID,
			Amount:          amount,
			HandDescription: r.Name,
			WinningHand:     r.BestFive,
		})
	}
	gs.Pots = pots
	finish(room)
}

// RemovePlayer 让 id 离座。牌局中先弃牌，已下的筹码留在池里，轮到他时顺延。
// 座位重新紧排，庄家、盲注、当前行动位随之调整
func RemovePlayer(room *table.Room, id string) error {
	idx := room.PlayerIndex(id)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	gs := &room.GameState
	p := room.Players[idx]
	running := room.IsGameRunning && gs.Status.Betting()
	wasTurn := running && gs.CurrentPlayerIndex == idx

	if running && p.TotalBetInHand > 0 {
		gs.DeadBets = append(gs.DeadBets, p.TotalBetInHand)
	}
	p.IsActive = false
	p.IsFolded = true
	// 底牌收进弃牌堆，保证牌数守恒
	gs.Burned = append(gs.Burned, p.Cards...)
	p.Cards = nil

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	room.Reindex()

	shift := func(i int) int {
		if i > idx {
			return i - 1
		}
		if i == idx {
			return -1
		}
		return i
	}
	if gs.DealerIndex >= idx {
		// 庄家轮转落到离开者的下一位
		gs.DealerIndex--
	}
	gs.SmallBlindIndex = shift(gs.SmallBlindIndex)
	gs.BigBlindIndex = shift(gs.BigBlindIndex)

	switch {
	case !running:
		gs.CurrentPlayerIndex = shift(gs.CurrentPlayerIndex)
	case countWhere(room, isActive) == 1:
		awardUncontested(room)
	case countWhere(room, isActive) == 0:
		finish(room)
	case wasTurn:
		gs.CurrentPlayerIndex = idx - 1
		advance(room)
	default:
		gs.CurrentPlayerIndex = shift(gs.CurrentPlayerIndex)
	}
	return nil
}
