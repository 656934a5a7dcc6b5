package table

import (
	"time"

	"github.com/thoas/go-funk"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPreflop  Status = "preflop"
	StatusFlop     Status = "flop"
	StatusTurn     Status = "turn"
	StatusRiver    Status = "river"
	StatusShowdown Status = "showdown"
	StatusFinished Status = "finished"
)

// Betting 是否处于四条街之一
func (s Status) Betting() bool {
	switch s {
	case StatusPreflop, StatusFlop, StatusTurn, StatusRiver:
		return true
	}
	return false
}

const (
	DefaultMaxPlayers   = 10
	DefaultSmallBlind   = 10
	DefaultBigBlind     = 20
	DefaultInitialChips = 1000
)

// Player 只由所在房间的 engine 修改
type Player struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Chips          int64  `json:"chips"`
	CurrentBet     int64  `json:"currentBet"`
	TotalBetInHand int64  `json:"totalBetInHand"`
	Cards          []Card `json:"cards"`
	IsActive       bool   `json:"isActive"`
	IsFolded       bool   `json:"isFolded"`
	IsAllIn        bool   `json:"isAllIn"`
	IsReady        bool   `json:"isReady"`
	Position       int    `json:"position"`
	HasActed       bool   `json:"hasActed"`
	IsAI           bool   `json:"isAi"`

	// 上次行动时看到的 GameState.RaiseSeq
	RaiseSeq int `json:"-"`
}

type Winner struct {
	PlayerID        string `json:"playerId"`
	Amount          int64  `json:"amount"`
	HandDescription string `json:"handDescription,omitempty"`
	WinningHand     []Card `json:"winningHand,omitempty"`
}

// Pot 一层边池，Eligible 为座位号
type Pot struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"`
}

type GameState struct {
	HandID             uint64   `json:"handId"`
	Status             Status   `json:"status"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	DealerIndex        int      `json:"dealerIndex"`
	SmallBlindIndex    int      `json:"smallBlindIndex"`
	BigBlindIndex      int      `json:"bigBlindIndex"`
	Pot                int64    `json:"pot"`
	CurrentBet         int64    `json:"currentBet"`
	MinRaise           int64    `json:"minRaise"`
	CommunityCards     []Card   `json:"communityCards"`
	Deck               []Card   `json:"-"`
	Burned             []Card   `json:"-"`
	BettingRound       int      `json:"bettingRound"`
	Winners            []Winner `json:"winners"`
	Pots               []Pot    `json:"pots,omitempty"`

	// 本街完整加注次数，不足额全下不计
	RaiseSeq int `json:"-"`
	// 中途离开玩家留在池里的筹码
	DeadBets []int64 `json:"-"`
}

type Room struct {
	ID            string    `json:"id"`
	HostID        string    `json:"hostId"`
	Players       []*Player `json:"players"`
	MaxPlayers    int       `json:"maxPlayers"`
	GameState     GameState `json:"gameState"`
	SmallBlind    int64     `json:"smallBlind"`
	BigBlind      int64     `json:"bigBlind"`
	InitialChips  int64     `json:"initialChips"`
	IsGameRunning bool      `json:"isGameRunning"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Options struct {
	MaxPlayers   int
	SmallBlind   int64
	BigBlind     int64
	InitialChips int64
}

func (o Options) withDefaults() Options {
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	if o.SmallBlind <= 0 {
		o.SmallBlind = DefaultSmallBlind
	}
	if o.BigBlind <= 0 {
		o.BigBlind = DefaultBigBlind
	}
	if o.InitialChips <= 0 {
		o.InitialChips = DefaultInitialChips
	}
	return o
}

// NewRoom 房主坐 0 号位；DealerIndex 从 -1 开始，第一手庄家为 0 号位
func NewRoom(id string, host *Player, opts Options) *Room {
	opts = opts.withDefaults()
	host.Chips = opts.InitialChips
	host.Position = 0
	return &Room{
		ID:           id,
		HostID:       host.ID,
		Players:      []*Player{host},
		MaxPlayers:   opts.MaxPlayers,
		SmallBlind:   opts.SmallBlind,
		BigBlind:     opts.BigBlind,
		InitialChips: opts.InitialChips,
		CreatedAt:    time.Now(),
		GameState: GameState{
			Status:             StatusWaiting,
			CurrentPlayerIndex: -1,
			DealerIndex:        -1,
			SmallBlindIndex:    -1,
			BigBlindIndex:      -1,
		},
	}
}

func (r *Room) PlayerIndex(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) Player(id string) *Player {
	if i := r.PlayerIndex(id); i >= 0 {
		return r.Players[i]
	}
	return nil
}

func (r *Room) CurrentPlayer() *Player {
	i := r.GameState.CurrentPlayerIndex
	if i < 0 || i >= len(r.Players) {
		return nil
	}
	return r.Players[i]
}

// ActivePlayers 仍在争夺底池的玩家，按座位顺序
func (r *Room) ActivePlayers() []*Player {
	return funk.Filter(r.Players, func(p *Player) bool {
		return p.IsActive
	}).([]*Player)
}

func (r *Room) Humans() []*Player {
	return funk.Filter(r.Players, func(p *Player) bool {
		return !p.IsAI
	}).([]*Player)
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// Reindex 让 Position 等于下标
func (r *Room) Reindex() {
	for i, p := range r.Players {
		p.Position = i
	}
}

// 所有筹码 + 未分配的底池
func (r *Room) TotalChips() int64 {
	total := r.GameState.Pot
	for _, p := range r.Players {
		total += p.Chips
	}
	return total
}
