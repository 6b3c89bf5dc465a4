package main

import "time"

type Move struct {
	X        int         `json:"x"`
	Y        int         `json:"y"`
	Player   PlayerColor `json:"player"`
	Index    int         `json:"index"`
	PlayedAt time.Time   `json:"played_at,omitzero"`
}

func NewMove(x, y int, player PlayerColor) Move {
	return Move{X: x, Y: y, Player: player}
}

func (m Move) IsValid(boardSize int) bool {
	return m.X >= 0 && m.Y >= 0 && m.X < boardSize && m.Y < boardSize
}

func (m Move) Equals(other Move) bool {
	return m.X == other.X && m.Y == other.Y
}
