package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"HoldemRoom/internal/ai"
	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/dealer"
	"HoldemRoom/internal/game/table"
	"HoldemRoom/internal/utils"
	"HoldemRoom/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

var (
	ErrStopped          = errors.New("room closed")
	ErrRoomFull         = errors.New("room is full")
	ErrNotHost          = errors.New("only the host can do that")
	ErrHandInProgress   = errors.New("hand in progress")
	ErrNotEnoughPlayers = errors.New("need at least two players with chips")
)

// ---------------------
//       OPTIONS
// ---------------------

type Options struct {
	Hub        websocket.HubInterface
	Deck       betting.Shuffler
	Policy     ai.Policy
	Clock      quartz.Clock
	ThinkDelay time.Duration
	// OnChange 每次房间变化后在房间协程内调用，不能阻塞
	OnChange func(table.Summary)
}

// ---------------------
//       ENGINE
// ---------------------

// Engine 单个房间的执行者：房间状态只在 loop 协程里读写
type Engine struct {
	room       *table.Room
	hub        websocket.HubInterface
	deck       betting.Shuffler
	policy     ai.Policy
	clock      quartz.Clock
	thinkDelay time.Duration
	onChange   func(table.Summary)

	cmds     chan func()
	quit     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc

	// 以下字段只在 loop 协程中访问
	moves   uint64 // 改变行动顺序的操作计数
	pending turn
	timer   *quartz.Timer
	settled uint64 // 已结算的 HandID

	log *log.Logger
}

// turn 标识一次 AI 行动机会，任何一项变化都视为过期
type turn struct {
	hand   uint64
	seat   int
	player string
	moves  uint64
}

func New(room *table.Room, opts Options) *Engine {
	if opts.Deck == nil {
		opts.Deck = dealer.NewDealer(time.Now().UnixNano())
	}
	if opts.Policy == nil {
		opts.Policy = ai.NewHeuristic(time.Now().UnixNano())
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		room:       room,
		hub:        opts.Hub,
		deck:       opts.Deck,
		policy:     opts.Policy,
		clock:      opts.Clock,
		thinkDelay: opts.ThinkDelay,
		onChange:   opts.OnChange,
		cmds:       make(chan func()),
		quit:       make(chan struct{}),
		exited:     make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		log:        utils.Logger("engine").With("room", room.ID),
	}
	go e.loop()
	return e
}

func (e *Engine) ID() string { return e.room.ID }

// 动作循环：按到达顺序逐个执行
func (e *Engine) loop() {
	defer close(e.exited)
	for {
		select {
		case fn := <-e.cmds:
			fn()
		case <-e.quit:
			if e.timer != nil {
				e.timer.Stop()
			}
			return
		}
	}
}

// Do 在房间协程中执行 fn 并等待其完成
func (e *Engine) Do(fn func(room *table.Room)) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn(e.room)
	}
	select {
	case e.cmds <- cmd:
	case <-e.exited:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-e.exited:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Stop 关闭房间，未完成的 AI 思考会被取消
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.cancel()
		close(e.quit)
	})
	<-e.exited
}

// --------------------------
//        房间操作
// --------------------------

// Join 入座；牌局进行中入座的玩家下一手才参与
func (e *Engine) Join(p *table.Player) (table.Room, error) {
	var (
		view table.Room
		err  error
	)
	if doErr := e.Do(func(room *table.Room) {
		if room.Player(p.ID) != nil {
			view = room.ViewFor(p.ID)
			return
		}
		if room.IsFull() {
			err = ErrRoomFull
			return
		}
		e.seat(room, p)
		e.log.Info("player joined", "player", p.ID, "nickname", p.Nickname, "seated", len(room.Players))
		e.broadcastJoined()
		e.changed()
		view = room.ViewFor(p.ID)
	}); doErr != nil {
		return table.Room{}, doErr
	}
	return view, err
}

func (e *Engine) seat(room *table.Room, p *table.Player) {
	p.Chips = room.InitialChips
	p.Position = len(room.Players)
	p.IsActive = false
	p.IsFolded = room.IsGameRunning
	p.Cards = nil
	room.Players = append(room.Players, p)
}

// AddAI 房主添加一个自动玩家
func (e *Engine) AddAI(hostID string) (table.Player, error) {
	var (
		added table.Player
		err   error
	)
	if doErr := e.Do(func(room *table.Room) {
		if room.HostID != hostID {
			err = ErrNotHost
			return
		}
		if room.IsFull() {
			err = ErrRoomFull
			return
		}
		id := uuid.NewString()
		p := &table.Player{
			ID:       "ai-" + id[:8],
			Nickname: fmt.Sprintf("AI %d", len(room.Players)+1),
			IsAI:     true,
			IsReady:  true,
		}
		e.seat(room, p)
		e.log.Info("ai seated", "player", p.ID)
		e.broadcastJoined()
		e.changed()
		added = *p
	}); doErr != nil {
		return table.Player{}, doErr
	}
	return added, err
}

// Leave 离座，返回剩余的真人数量。房主离开时移交给下一位真人
func (e *Engine) Leave(playerID string) (int, error) {
	var (
		humans int
		err    error
	)
	if doErr := e.Do(func(room *table.Room) {
		if err = betting.RemovePlayer(room, playerID); err != nil {
			return
		}
		e.moves++
		humans = len(room.Humans())
		if room.HostID == playerID {
			room.HostID = ""
			if humans > 0 {
				room.HostID = room.Humans()[0].ID
			}
			e.log.Info("host reassigned", "host", room.HostID)
		}
		e.log.Info("player left", "player", playerID, "seated", len(room.Players))
		e.changed()
	}); doErr != nil {
		return 0, doErr
	}
	return humans, err
}

// Start 房主开局。resetChips 为 true 时所有人筹码重置为 initialChips
func (e *Engine) Start(hostID string, initialChips int64, resetChips bool) error {
	var err error
	if doErr := e.Do(func(room *table.Room) {
		switch {
		case room.HostID != hostID:
			err = ErrNotHost
			return
		case room.IsGameRunning:
			err = ErrHandInProgress
			return
		case len(room.Players) < 2:
			err = ErrNotEnoughPlayers
			return
		}
		if initialChips > 0 {
			room.InitialChips = initialChips
		}
		if resetChips {
			for _, p := range room.Players {
				p.Chips = room.InitialChips
			}
		}
		if !e.startHand() {
			err = ErrNotEnoughPlayers
		}
	}); doErr != nil {
		return doErr
	}
	return err
}

// Ready 标记准备；所有人就绪且至少两人入座时自动开下一手
func (e *Engine) Ready(playerID string) error {
	var err error
	if doErr := e.Do(func(room *table.Room) {
		p := room.Player(playerID)
		if p == nil {
			err = betting.ErrPlayerNotFound
			return
		}
		p.IsReady = true
		if !room.IsGameRunning && allReady(room) {
			e.startHand()
			return
		}
		e.changed()
	}); doErr != nil {
		return doErr
	}
	return err
}

func allReady(room *table.Room) bool {
	if len(room.Players) < 2 {
		return false
	}
	for _, p := range room.Players {
		if !p.IsAI && !p.IsReady {
			return false
		}
	}
	return true
}

// Act 处理真人动作；校验失败时房间不变
func (e *Engine) Act(a betting.Action) error {
	var err error
	if doErr := e.Do(func(room *table.Room) {
		if err = betting.ProcessAction(room, a); err != nil {
			e.log.Debug("action rejected", "player", a.PlayerID, "action", a.Type, "amount", a.Amount, "err", err)
			return
		}
		e.moves++
		e.log.Debug("action", "player", a.PlayerID, "action", a.Type, "amount", a.Amount)
		e.changed()
	}); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot 返回房间的深拷贝
func (e *Engine) Snapshot() (table.Room, error) {
	var snap table.Room
	err := e.Do(func(room *table.Room) { snap = room.Snapshot() })
	return snap, err
}

// View 返回 playerID 视角下的房间
func (e *Engine) View(playerID string) (table.Room, error) {
	var v table.Room
	err := e.Do(func(room *table.Room) { v = room.ViewFor(playerID) })
	return v, err
}

// --------------------------
//        内部逻辑
// --------------------------

func (e *Engine) startHand() bool {
	if !betting.StartHand(e.room, e.deck) {
		e.log.Warn("not enough players with chips", "seated", len(e.room.Players))
		e.changed()
		return false
	}
	e.moves++
	gs := e.room.GameState
	e.log.Info("hand started",
		"hand", gs.HandID,
		"dealer", gs.DealerIndex,
		"players", len(e.room.ActivePlayers()))
	e.changed()
	return true
}

// changed 每次变更后：结算日志、广播、大厅通知、调度 AI
func (e *Engine) changed() {
	gs := &e.room.GameState
	if gs.Status == table.StatusFinished && gs.HandID != e.settled {
		e.settled = gs.HandID
		for _, w := range gs.Winners {
			e.log.Info("pot awarded", "hand", gs.HandID, "player", w.PlayerID, "amount", w.Amount, "with", w.HandDescription)
		}
		// 真人需要重新准备
		for _, p := range e.room.Players {
			if !p.IsAI {
				p.IsReady = false
			}
		}
	}
	e.broadcastState()
	if e.onChange != nil {
		e.onChange(e.room.Summary())
	}
	e.scheduleAI()
}

func (e *Engine) humanIDs() []string {
	ids := make([]string, 0, len(e.room.Players))
	for _, p := range e.room.Humans() {
		ids = append(ids, p.ID)
	}
	return ids
}

// 每个真人收到自己视角的状态
func (e *Engine) broadcastState() {
	if e.hub == nil {
		return
	}
	for _, id := range e.humanIDs() {
		e.hub.SendToPlayer(id, websocket.OutgoingMessage{
			Event: "gameStateUpdate",
			Data:  e.room.ViewFor(id),
		})
	}
}

func (e *Engine) broadcastJoined() {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastToPlayers(e.humanIDs(), websocket.OutgoingMessage{
		Event: "playerJoined",
		Data:  e.room.ViewFor("").Players,
	})
}
