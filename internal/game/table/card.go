package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Suit uint8

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suitNames = [...]string{"hearts", "diamonds", "clubs", "spades"}
var suitSymbols = [...]string{"♥", "♦", "♣", "♠"}

// 建牌顺序
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return "?"
}

func ParseSuit(s string) (Suit, error) {
	for i, name := range suitNames {
		if name == s {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", s)
}

// Rank 2..14，A 最大
type Rank uint8

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

var faceRanks = map[Rank]string{
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func (r Rank) String() string {
	if s, ok := faceRanks[r]; ok {
		return s
	}
	return strconv.Itoa(int(r))
}

func ParseRank(s string) (Rank, error) {
	for r, name := range faceRanks {
		if name == s {
			return r, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	return Rank(n), nil
}

type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string {
	return fmtCard(c)
}

func fmtCard(c Card) string {
	suitStr := "?"
	if int(c.Suit) < len(suitSymbols) {
		suitStr = suitSymbols[c.Suit]
	}
	return c.Rank.String() + suitStr
}

type cardJSON struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// 前端格式 {"suit":"hearts","rank":"10"}
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Suit: c.Suit.String(), Rank: c.Rank.String()})
}

func (c *Card) UnmarshalJSON(b []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s, err := ParseSuit(raw.Suit)
	if err != nil {
		return err
	}
	r, err := ParseRank(raw.Rank)
	if err != nil {
		return err
	}
	c.Suit, c.Rank = s, r
	return nil
}

// Code 花色首字母 + 点数，如 "H10"、"SA"（AI 接口用）
func (c Card) Code() string {
	return string("HDCS"[c.Suit]) + c.Rank.String()
}

// ParseCode 是 Code 的逆
func ParseCode(code string) (Card, error) {
	if len(code) < 2 {
		return Card{}, fmt.Errorf("bad card code %q", code)
	}
	i := strings.IndexByte("HDCS", code[0])
	if i < 0 {
		return Card{}, fmt.Errorf("bad suit in card code %q", code)
	}
	r, err := ParseRank(code[1:])
	if err != nil {
		return Card{}, err
	}
	return Card{Suit: Suit(i), Rank: r}, nil
}
