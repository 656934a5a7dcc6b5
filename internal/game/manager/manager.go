package manager

import (
	"errors"
	"sync"
	"time"

	"HoldemRoom/internal/ai"
	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/engine"
	"HoldemRoom/internal/game/table"
	"HoldemRoom/internal/utils"
	"HoldemRoom/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotInRoom     = errors.New("not in that room")
	ErrAlreadyInRoom = errors.New("already in another room")
)

// Directory 接收房间摘要（大厅目录），实现不能阻塞
type Directory interface {
	Publish(table.Summary)
	Remove(roomID string)
}

type Options struct {
	Hub        websocket.HubInterface
	Policy     ai.Policy
	Clock      quartz.Clock
	ThinkDelay time.Duration
	Table      table.Options
	Lobby      Directory
	// NewDeck 为每个房间创建洗牌器，为空时按时间取种子
	NewDeck func() betting.Shuffler
}

// GameManager 管理所有对局
type GameManager struct {
	mu           sync.RWMutex
	engines      map[string]*engine.Engine // roomID → engine
	playerToRoom map[string]string         // player id → roomID
	joining      map[string]string         // 正在加入中的 player id → roomID
	opts         Options
	log          *log.Logger
}

func NewGameManager(opts Options) *GameManager {
	return &GameManager{
		engines:      make(map[string]*engine.Engine),
		playerToRoom: make(map[string]string),
		joining:      make(map[string]string),
		opts:         opts,
		log:          utils.Logger("manager"),
	}
}

// CreateRoom 创建房间，host 坐 0 号位
func (m *GameManager) CreateRoom(roomID string, host *table.Player, initialChips int64) (table.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[roomID]; ok {
		return table.Room{}, ErrRoomExists
	}
	if cur, ok := m.playerToRoom[host.ID]; ok && cur != roomID {
		return table.Room{}, ErrAlreadyInRoom
	}
	if _, ok := m.joining[host.ID]; ok {
		return table.Room{}, ErrAlreadyInRoom
	}

	opts := m.opts.Table
	if initialChips > 0 {
		opts.InitialChips = initialChips
	}
	room := table.NewRoom(roomID, host, opts)
	view := room.ViewFor(host.ID)
	m.publish(room.Summary())

	eopts := engine.Options{
		Hub:        m.opts.Hub,
		Policy:     m.opts.Policy,
		Clock:      m.opts.Clock,
		ThinkDelay: m.opts.ThinkDelay,
		OnChange:   m.publish,
	}
	if m.opts.NewDeck != nil {
		eopts.Deck = m.opts.NewDeck()
	}
	m.engines[roomID] = engine.New(room, eopts)
	m.playerToRoom[host.ID] = roomID

	m.log.Info("room created", "room", roomID, "host", host.ID, "rooms", len(m.engines))
	return view, nil
}

// Join 加入已有房间；牌局进行中加入的玩家观战到下一手。
// eng.Join 在锁外执行，joining 防止同一玩家并发加入两个房间
func (m *GameManager) Join(roomID string, p *table.Player) (table.Room, error) {
	m.mu.Lock()
	eng, ok := m.engines[roomID]
	if !ok {
		m.mu.Unlock()
		return table.Room{}, ErrRoomNotFound
	}
	if cur, ok := m.playerToRoom[p.ID]; ok && cur != roomID {
		m.mu.Unlock()
		return table.Room{}, ErrAlreadyInRoom
	}
	if _, ok := m.joining[p.ID]; ok {
		m.mu.Unlock()
		return table.Room{}, ErrAlreadyInRoom
	}
	m.joining[p.ID] = roomID
	m.mu.Unlock()

	view, err := eng.Join(p)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.joining, p.ID)
	if err != nil {
		return table.Room{}, roomErr(err)
	}
	if m.engines[roomID] != eng {
		// 加入期间房间已关闭
		return table.Room{}, ErrRoomNotFound
	}
	m.playerToRoom[p.ID] = roomID
	return view, nil
}

// JoinRoom 房间不存在时创建并成为房主。已在别的房间时先离开
func (m *GameManager) JoinRoom(roomID string, p *table.Player) (table.Room, bool, error) {
	if cur, ok := m.RoomOf(p.ID); ok && cur != roomID {
		if err := m.Leave(p.ID); err != nil && !errors.Is(err, ErrNotInRoom) {
			return table.Room{}, false, err
		}
	}

	for {
		view, err := m.Join(roomID, p)
		if err == nil {
			return view, view.HostID == p.ID, nil
		}
		if !errors.Is(err, ErrRoomNotFound) {
			return table.Room{}, false, err
		}
		view, err = m.CreateRoom(roomID, p, 0)
		if errors.Is(err, ErrRoomExists) {
			// 并发创建，改为加入
			continue
		}
		if err != nil {
			return table.Room{}, false, err
		}
		return view, true, nil
	}
}

// Leave 离开房间；最后一个真人离开时销毁房间
func (m *GameManager) Leave(playerID string) error {
	m.mu.RLock()
	roomID, ok := m.playerToRoom[playerID]
	eng := m.engines[roomID]
	m.mu.RUnlock()
	if !ok || eng == nil {
		return ErrNotInRoom
	}

	humans, err := eng.Leave(playerID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playerToRoom[playerID] == roomID {
		delete(m.playerToRoom, playerID)
	}
	switch {
	case errors.Is(err, betting.ErrPlayerNotFound), errors.Is(err, engine.ErrStopped):
		return nil
	case err != nil:
		return err
	}
	if humans > 0 || m.engines[roomID] != eng {
		return nil
	}
	// 持有写锁时没有并发的 Join，再确认一次
	snap, err := eng.Snapshot()
	if err == nil && len(snap.Humans()) > 0 {
		return nil
	}
	m.destroy(roomID, eng)
	return nil
}

// Disconnect 连接断开等同离开
func (m *GameManager) Disconnect(playerID string) {
	if err := m.Leave(playerID); err != nil && !errors.Is(err, ErrNotInRoom) {
		m.log.Warn("leave on disconnect", "player", playerID, "err", err)
	}
}

// 调用方持有写锁
func (m *GameManager) destroy(roomID string, eng *engine.Engine) {
	delete(m.engines, roomID)
	for pid, rid := range m.playerToRoom {
		if rid == roomID {
			delete(m.playerToRoom, pid)
		}
	}
	eng.Stop()
	if m.opts.Lobby != nil {
		m.opts.Lobby.Remove(roomID)
	}
	m.log.Info("room destroyed", "room", roomID, "rooms", len(m.engines))
}

func (m *GameManager) Get(roomID string) (*engine.Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.engines[roomID]
	return eng, ok
}

func (m *GameManager) RoomOf(playerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.playerToRoom[playerID]
	return id, ok
}

func (m *GameManager) GetByPlayer(playerID string) (*engine.Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.engines[m.playerToRoom[playerID]]
	return eng, ok
}

func (m *GameManager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}

// engineFor 校验 playerID 确实在 roomID 中；roomID 为空时取其所在房间
func (m *GameManager) engineFor(playerID, roomID string) (*engine.Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.playerToRoom[playerID]
	if !ok || (roomID != "" && cur != roomID) {
		return nil, ErrNotInRoom
	}
	eng, ok := m.engines[cur]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return eng, nil
}

// StartGame 仅房主；resetChips 为 true 时所有人筹码重置
func (m *GameManager) StartGame(playerID, roomID string, initialChips int64, resetChips bool) error {
	eng, err := m.engineFor(playerID, roomID)
	if err != nil {
		return err
	}
	return roomErr(eng.Start(playerID, initialChips, resetChips))
}

func (m *GameManager) AddAI(playerID, roomID string) (table.Player, error) {
	eng, err := m.engineFor(playerID, roomID)
	if err != nil {
		return table.Player{}, err
	}
	p, err := eng.AddAI(playerID)
	return p, roomErr(err)
}

func (m *GameManager) PlayerReady(playerID, roomID string) error {
	eng, err := m.engineFor(playerID, roomID)
	if err != nil {
		return err
	}
	return roomErr(eng.Ready(playerID))
}

func (m *GameManager) PlayerAction(playerID, roomID string, action betting.ActionType, amount int64) error {
	eng, err := m.engineFor(playerID, roomID)
	if err != nil {
		return err
	}
	return roomErr(eng.Act(betting.Action{PlayerID: playerID, Type: action, Amount: amount}))
}

// Shutdown 停止所有房间
func (m *GameManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, eng := range m.engines {
		eng.Stop()
		delete(m.engines, id)
	}
	m.playerToRoom = make(map[string]string)
}

func (m *GameManager) publish(s table.Summary) {
	if m.opts.Lobby != nil {
		m.opts.Lobby.Publish(s)
	}
}

func roomErr(err error) error {
	if errors.Is(err, engine.ErrStopped) {
		return ErrRoomNotFound
	}
	return err
}
