package manager

import (
	"strings"

	"HoldemRoom/internal/game/betting"
	"HoldemRoom/internal/game/table"
	"HoldemRoom/internal/websocket"
)

type joinRoomReq struct {
	Nickname string `json:"nickname"`
	RoomID   string `json:"roomId"`
}

type startGameReq struct {
	RoomID       string `json:"roomId"`
	InitialChips int64  `json:"initialChips"`
	// 缺省为 true
	ResetChips *bool `json:"resetChips"`
}

type roomReq struct {
	RoomID string `json:"roomId"`
}

type playerActionReq struct {
	RoomID string             `json:"roomId"`
	Action betting.ActionType `json:"action"`
	Amount int64              `json:"amount"`
}

// HandlePlayerMessage 统一入口（来自 Hub.OnIncoming，在连接的读协程中调用）
func (m *GameManager) HandlePlayerMessage(msg websocket.IncomingMessage) {
	switch msg.Event {

	case "joinRoom":
		var req joinRoomReq
		if err := msg.Bind(&req); err != nil || strings.TrimSpace(req.RoomID) == "" {
			m.reply(msg.From, "joinRoomResult", map[string]any{"success": false, "error": "roomId is required"})
			return
		}
		nickname := strings.TrimSpace(req.Nickname)
		if nickname == "" {
			nickname = "Player"
		}
		room, isHost, err := m.JoinRoom(req.RoomID, &table.Player{ID: msg.From, Nickname: nickname})
		if err != nil {
			m.reply(msg.From, "joinRoomResult", map[string]any{"success": false, "error": err.Error()})
			return
		}
		m.reply(msg.From, "joinRoomResult", map[string]any{
			"success":  true,
			"isHost":   isHost,
			"playerId": msg.From,
			"room":     room,
		})

	case "startGame":
		var req startGameReq
		if err := msg.Bind(&req); err != nil {
			m.replyError(msg.From, err)
			return
		}
		reset := req.ResetChips == nil || *req.ResetChips
		if err := m.StartGame(msg.From, req.RoomID, req.InitialChips, reset); err != nil {
			m.replyError(msg.From, err)
		}

	case "addAi":
		var req roomReq
		if err := msg.Bind(&req); err != nil {
			m.replyError(msg.From, err)
			return
		}
		if _, err := m.AddAI(msg.From, req.RoomID); err != nil {
			m.replyError(msg.From, err)
		}

	case "playerReady":
		var req roomReq
		if err := msg.Bind(&req); err != nil {
			m.replyError(msg.From, err)
			return
		}
		if err := m.PlayerReady(msg.From, req.RoomID); err != nil {
			m.replyError(msg.From, err)
		}

	case "playerAction":
		var req playerActionReq
		if err := msg.Bind(&req); err != nil {
			m.reply(msg.From, "actionResult", map[string]any{"success": false, "message": err.Error()})
			return
		}
		if err := m.PlayerAction(msg.From, req.RoomID, req.Action, req.Amount); err != nil {
			m.reply(msg.From, "actionResult", map[string]any{"success": false, "message": err.Error()})
			return
		}
		m.reply(msg.From, "actionResult", map[string]any{"success": true})

	case "leaveRoom":
		if err := m.Leave(msg.From); err != nil {
			m.replyError(msg.From, err)
		}

	default:
		m.log.Debug("unknown event", "from", msg.From, "event", msg.Event)
		m.reply(msg.From, "error", map[string]any{"message": "unknown event " + msg.Event})
	}
}

func (m *GameManager) reply(playerID, event string, data any) {
	if m.opts.Hub == nil {
		return
	}
	m.opts.Hub.SendToPlayer(playerID, websocket.OutgoingMessage{Event: event, Data: data})
}

func (m *GameManager) replyError(playerID string, err error) {
	m.log.Debug("request rejected", "player", playerID, "err", err)
	m.reply(playerID, "error", map[string]any{"message": err.Error()})
}
