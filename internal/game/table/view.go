package table

// ViewFor 按 viewerID 视角复制房间：他人底牌隐藏，摊牌后仍在局中的才公开
func (r *Room) ViewFor(viewerID string) Room {
	v := *r
	v.GameState = r.GameState.clone()
	v.Players = make([]*Player, len(r.Players))
	reveal := r.GameState.Status == StatusShowdown ||
		(r.GameState.Status == StatusFinished && len(r.GameState.Pots) > 0)
	for i, p := range r.Players {
		cp := *p
		switch {
		case p.ID == viewerID:
			cp.Cards = append([]Card(nil), p.Cards...)
		case reveal && p.IsActive:
			cp.Cards = append([]Card(nil), p.Cards...)
		default:
			cp.Cards = nil
		}
		v.Players[i] = &cp
	}
	return v
}

// Snapshot 深拷贝，可以交给房间协程之外
func (r *Room) Snapshot() Room {
	v := *r
	v.GameState = r.GameState.clone()
	v.GameState.Deck = append([]Card(nil), r.GameState.Deck...)
	v.GameState.Burned = append([]Card(nil), r.GameState.Burned...)
	v.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		cp := *p
		cp.Cards = append([]Card(nil), p.Cards...)
		v.Players[i] = &cp
	}
	return v
}

func (g GameState) clone() GameState {
	c := g
	c.Deck = nil
	c.Burned = nil
	c.CommunityCards = append([]Card(nil), g.CommunityCards...)
	c.Winners = append([]Winner(nil), g.Winners...)
	c.DeadBets = append([]int64(nil), g.DeadBets...)
	c.Pots = make([]Pot, len(g.Pots))
	for i, p := range g.Pots {
		c.Pots[i] = Pot{Amount: p.Amount, Eligible: append([]int(nil), p.Eligible...)}
	}
	return c
}

// Summary 大厅列表条目
type Summary struct {
	ID            string   `json:"id"`
	HostID        string   `json:"hostId"`
	Players       []string `json:"players"`
	Seated        int      `json:"seated"`
	MaxPlayers    int      `json:"maxPlayers"`
	Status        Status   `json:"status"`
	IsGameRunning bool     `json:"isGameRunning"`
	SmallBlind    int64    `json:"smallBlind"`
	BigBlind      int64    `json:"bigBlind"`
	HandID        uint64   `json:"handId"`
}

func (r *Room) Summary() Summary {
	names := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		names = append(names, p.Nickname)
	}
	return Summary{
		ID:            r.ID,
		HostID:        r.HostID,
		Players:       names,
		Seated:        len(r.Players),
		MaxPlayers:    r.MaxPlayers,
		Status:        r.GameState.Status,
		IsGameRunning: r.IsGameRunning,
		SmallBlind:    r.SmallBlind,
		BigBlind:      r.BigBlind,
		HandID:        r.GameState.HandID,
	}
}
