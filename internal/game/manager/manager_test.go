package manager

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"HoldemRoom/internal/ai"
	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/dealer"
	"HoldemRoom/internal/game/engine"
	"HoldemRoom/internal/game/table"
	"HoldemRoom/internal/websocket"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHub 实现 HubInterface，记录消息
type mockHub struct {
	mu   sync.Mutex
	sent map[string][]websocket.OutgoingMessage
}

func newMockHub() *mockHub {
	return &mockHub{sent: make(map[string][]websocket.OutgoingMessage)}
}

func (h *mockHub) BroadcastToPlayers(ids []string, msg websocket.OutgoingMessage) {
	for _, id := range ids {
		h.SendToPlayer(id, msg)
	}
}

func (h *mockHub) SendToPlayer(id string, msg websocket.OutgoingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent[id] = append(h.sent[id], msg)
}

func (h *mockHub) ClientByID(string) (*websocket.Client, bool) { return nil, false }

func (h *mockHub) Close() {}

// last 返回 id 收到的最后一条 event 消息
func (h *mockHub) last(id, event string) (map[string]any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.sent[id]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Event == event {
			data, _ := msgs[i].Data.(map[string]any)
			return data, true
		}
	}
	return nil, false
}

type fakeLobby struct {
	mu        sync.Mutex
	published map[string]table.Summary
	removed   []string
}

func (l *fakeLobby) Publish(s table.Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published[s.ID] = s
}

func (l *fakeLobby) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.published, id)
	l.removed = append(l.removed, id)
}

func (l *fakeLobby) get(id string) (table.Summary, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.published[id]
	return s, ok
}

func newManager(t *testing.T, opts table.Options) (*GameManager, *mockHub, *fakeLobby) {
	t.Helper()
	hub := newMockHub()
	lobby := &fakeLobby{published: make(map[string]table.Summary)}
	m := NewGameManager(Options{
		Hub:     hub,
		Policy:  ai.NewHeuristic(1),
		Clock:   quartz.NewMock(t),
		Table:   opts,
		Lobby:   lobby,
		NewDeck: func() betting.Shuffler { return dealer.NewDealer(1) },
	})
	t.Cleanup(m.Shutdown)
	return m, hub, lobby
}

func player(id string) *table.Player {
	return &table.Player{ID: id, Nickname: id}
}

func send(m *GameManager, from, event string, data any) {
	raw, _ := json.Marshal(data)
	m.HandlePlayerMessage(websocket.IncomingMessage{From: from, Event: event, Data: raw})
}

// ✅ 创建房间，重复创建报错
func TestCreateRoom(t *testing.T) {
	m, _, lobby := newManager(t, table.Options{})

	view, err := m.CreateRoom("r1", player("A"), 500)
	require.NoError(t, err)
	assert.Equal(t, "A", view.HostID)
	assert.Equal(t, int64(500), view.Players[0].Chips)
	assert.Equal(t, 1, m.RoomCount())

	_, err = m.CreateRoom("r1", player("B"), 0)
	assert.ErrorIs(t, err, ErrRoomExists)
	_, err = m.CreateRoom("r2", player("A"), 0)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	s, ok := lobby.get("r1")
	require.True(t, ok)
	assert.Equal(t, 1, s.Seated)
}

func TestJoinRoom(t *testing.T) {
	m, _, _ := newManager(t, table.Options{MaxPlayers: 2})

	_, isHost, err := m.JoinRoom("r1", player("A"))
	require.NoError(t, err)
	assert.True(t, isHost)

	view, isHost, err := m.JoinRoom("r1", player("B"))
	require.NoError(t, err)
	assert.False(t, isHost)
	assert.Len(t, view.Players, 2)

	_, _, err = m.JoinRoom("r1", player("C"))
	assert.ErrorIs(t, err, engine.ErrRoomFull)
	_, ok := m.RoomOf("C")
	assert.False(t, ok)

	_, err = m.Join("nope", player("C"))
	assert.ErrorIs(t, err, ErrRoomNotFound)

	eng, ok := m.GetByPlayer("B")
	require.True(t, ok)
	assert.Equal(t, "r1", eng.ID())
}

func TestLeaveReassignsHostAndDestroys(t *testing.T) {
	m, _, lobby := newManager(t, table.Options{})
	_, _, err := m.JoinRoom("r1", player("A"))
	require.NoError(t, err)
	_, _, err = m.JoinRoom("r1", player("B"))
	require.NoError(t, err)
	_, err = m.AddAI("A", "r1")
	require.NoError(t, err)

	require.NoError(t, m.Leave("A"))
	eng, ok := m.Get("r1")
	require.True(t, ok)
	snap, err := eng.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "B", snap.HostID)

	// 只剩 AI 时房间销毁
	require.NoError(t, m.Leave("B"))
	_, ok = m.Get("r1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.RoomCount())
	assert.ErrorIs(t, m.Leave("B"), ErrNotInRoom)

	assert.Eventually(t, func() bool {
		_, ok := lobby.get("r1")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

// 一个房间的命令队列卡住时，不影响其他房间的查询和加入
func TestJoinDoesNotBlockOtherRooms(t *testing.T) {
	m, _, _ := newManager(t, table.Options{})
	_, _, err := m.JoinRoom("r1", player("A"))
	require.NoError(t, err)
	_, _, err = m.JoinRoom("r2", player("B"))
	require.NoError(t, err)

	r1, _ := m.Get("r1")
	busy := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = r1.Do(func(*table.Room) {
			close(busy)
			<-release
		})
	}()
	<-busy

	joined := make(chan error, 1)
	go func() {
		_, err := m.Join("r1", player("C"))
		joined <- err
	}()
	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		_, ok := m.joining["C"]
		return ok
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := m.Get("r2")
		assert.True(t, ok)
		_, err := m.Join("r2", player("D"))
		assert.NoError(t, err)
		// C 还没加入完成，不能同时加入别的房间
		_, err = m.Join("r2", player("C"))
		assert.ErrorIs(t, err, ErrAlreadyInRoom)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registry blocked by a busy room")
	}

	close(release)
	require.NoError(t, <-joined)
	room, ok := m.RoomOf("C")
	require.True(t, ok)
	assert.Equal(t, "r1", room)
}

func TestSwitchRooms(t *testing.T) {
	m, _, _ := newManager(t, table.Options{})
	_, _, err := m.JoinRoom("r1", player("A"))
	require.NoError(t, err)

	_, isHost, err := m.JoinRoom("r2", player("A"))
	require.NoError(t, err)
	assert.True(t, isHost)

	room, ok := m.RoomOf("A")
	require.True(t, ok)
	assert.Equal(t, "r2", room)
	_, ok = m.Get("r1")
	assert.False(t, ok)
}

func TestRequestsNeedMembership(t *testing.T) {
	m, _, _ := newManager(t, table.Options{})
	_, _, err := m.JoinRoom("r1", player("A"))
	require.NoError(t, err)
	_, _, err = m.JoinRoom("r2", player("B"))
	require.NoError(t, err)

	assert.ErrorIs(t, m.PlayerAction("X", "r1", betting.Fold, 0), ErrNotInRoom)
	assert.ErrorIs(t, m.StartGame("B", "r1", 0, true), ErrNotInRoom)
	assert.ErrorIs(t, m.PlayerReady("A", "r2"), ErrNotInRoom)
	_, err = m.AddAI("B", "r1")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestReadyAutoStart(t *testing.T) {
	m, _, lobby := newManager(t, table.Options{})
	_, _, err := m.JoinRoom("r1", player("A"))
	require.NoError(t, err)
	_, err = m.AddAI("A", "r1")
	require.NoError(t, err)

	require.NoError(t, m.PlayerReady("A", "r1"))
	eng, _ := m.Get("r1")
	snap, err := eng.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.IsGameRunning)

	assert.Eventually(t, func() bool {
		s, ok := lobby.get("r1")
		return ok && s.IsGameRunning && s.HandID == 1
	}, time.Second, 5*time.Millisecond)
}

// ✅ 事件入口：加入、开局、行动、回复
func TestHandlePlayerMessage(t *testing.T) {
	m, hub, _ := newManager(t, table.Options{})

	send(m, "A", "joinRoom", map[string]any{"roomId": "r1", "nickname": "alice"})
	res, ok := hub.last("A", "joinRoomResult")
	require.True(t, ok)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, true, res["isHost"])

	send(m, "B", "joinRoom", map[string]any{"roomId": "r1", "nickname": "bob"})
	res, _ = hub.last("B", "joinRoomResult")
	assert.Equal(t, true, res["success"])
	assert.Equal(t, false, res["isHost"])
	_, ok = hub.last("A", "playerJoined")
	assert.True(t, ok)

	send(m, "B", "startGame", map[string]any{"roomId": "r1"})
	res, ok = hub.last("B", "error")
	require.True(t, ok)
	assert.Equal(t, engine.ErrNotHost.Error(), res["message"])

	send(m, "A", "startGame", map[string]any{"roomId": "r1", "initialChips": 2000})
	_, ok = hub.last("A", "gameStateUpdate")
	assert.True(t, ok)

	// 单挑庄家 A 先行动
	send(m, "A", "playerAction", map[string]any{"roomId": "r1", "action": "raise", "amount": 30})
	res, _ = hub.last("A", "actionResult")
	assert.Equal(t, false, res["success"])
	assert.Contains(t, res["message"], "must raise to at least 40")

	send(m, "A", "playerAction", map[string]any{"roomId": "r1", "action": "fold"})
	res, _ = hub.last("A", "actionResult")
	assert.Equal(t, true, res["success"])

	eng, _ := m.Get("r1")
	snap, err := eng.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, table.StatusFinished, snap.GameState.Status)
	assert.Equal(t, int64(4000), snap.TotalChips())
	assert.Equal(t, int64(2010), snap.Player("B").Chips)

	send(m, "A", "leaveRoom", nil)
	_, ok = m.RoomOf("A")
	assert.False(t, ok)
}

func TestHandlePlayerMessageBadInput(t *testing.T) {
	m, hub, _ := newManager(t, table.Options{})

	send(m, "A", "joinRoom", map[string]any{"nickname": "alice"})
	res, ok := hub.last("A", "joinRoomResult")
	require.True(t, ok)
	assert.Equal(t, false, res["success"])

	m.HandlePlayerMessage(websocket.IncomingMessage{From: "A", Event: "playerAction", Data: json.RawMessage(`[1,2]`)})
	res, ok = hub.last("A", "actionResult")
	require.True(t, ok)
	assert.Equal(t, false, res["success"])

	send(m, "A", "dance", nil)
	res, ok = hub.last("A", "error")
	require.True(t, ok)
	assert.Contains(t, res["message"], "unknown event")
}

// ✅ 并发安全：多个房间同时加入、离开
func TestGameManagerConcurrency(t *testing.T) {
	m, _, _ := newManager(t, table.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pid := fmt.Sprintf("p%d", i)
			_, _, err := m.JoinRoom(fmt.Sprintf("r%d", i%5), player(pid))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 5, m.RoomCount())
	for i := 0; i < 5; i++ {
		eng, ok := m.Get(fmt.Sprintf("r%d", i))
		require.True(t, ok)
		snap, err := eng.Snapshot()
		require.NoError(t, err)
		assert.Len(t, snap.Players, 4)
	}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Disconnect(fmt.Sprintf("p%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, m.RoomCount())
}
