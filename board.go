package main

import (
	"errors"
	"fmt"
	"time"
)

type Cell int

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

var (
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrOccupied     = errors.New("position occupied")
	ErrEmptyHistory = errors.New("move history is empty")
)

// Board owns the grid and the ordered move history together so the
// stone-count/history invariant cannot drift between two objects.
type Board struct {
	size  int
	cells []Cell
	moves []Move
}

func NewBoard(boardSize int) Board {
	b := Board{}
	b.Reset(boardSize)
	return b
}

func (b *Board) Reset(boardSize int) {
	b.size = boardSize
	b.cells = make([]Cell, boardSize*boardSize)
	b.moves = nil
}

func (b Board) At(x, y int) Cell {
	return b.cells[b.index(x, y)]
}

func (b Board) Get(x, y int) (Cell, error) {
	if !b.InBounds(x, y) {
		return CellEmpty, ErrOutOfBounds
	}
	return b.At(x, y), nil
}

// Set and Remove bypass the history and exist for controlled simulation
// only (hypothetical stones during pattern analysis). Game moves go
// through Apply/Undo.
func (b *Board) Set(x, y int, value Cell) {
	b.cells[b.index(x, y)] = value
}

func (b *Board) Remove(x, y int) {
	b.cells[b.index(x, y)] = CellEmpty
}

func (b *Board) Apply(move Move) error {
	if !b.InBounds(move.X, move.Y) {
		return ErrOutOfBounds
	}
	if b.At(move.X, move.Y) != CellEmpty {
		return ErrOccupied
	}
	move.Index = len(b.moves)
	if move.PlayedAt.IsZero() {
		move.PlayedAt = time.Now()
	}
	b.cells[b.index(move.X, move.Y)] = CellFromPlayer(move.Player)
	b.moves = append(b.moves, move)
	return nil
}

func (b *Board) Undo() (Move, error) {
	if len(b.moves) == 0 {
		return Move{}, ErrEmptyHistory
	}
	last := b.moves[len(b.moves)-1]
	b.moves = b.moves[:len(b.moves)-1]
	b.cells[b.index(last.X, last.Y)] = CellEmpty
	return last, nil
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

func (b Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for _, cell := range b.cells {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (b Board) CountStones() int {
	return b.size*b.size - b.CountEmpty()
}

func (b Board) Size() int {
	return b.size
}

func (b Board) MoveCount() int {
	return len(b.moves)
}

func (b Board) Moves() []Move {
	return append([]Move(nil), b.moves...)
}

func (b Board) LastMove() (Move, bool) {
	if len(b.moves) == 0 {
		return Move{}, false
	}
	return b.moves[len(b.moves)-1], true
}

// Clone is a deep copy: neither the cell grid nor the history is ever
// aliased between the live game and a simulation branch.
func (b Board) Clone() Board {
	clone := Board{size: b.size}
	clone.cells = make([]Cell, len(b.cells))
	copy(clone.cells, b.cells)
	clone.moves = append([]Move(nil), b.moves...)
	return clone
}

// CheckIntegrity reports drift between the grid and the history instead
// of letting it silently corrupt search results.
func (b Board) CheckIntegrity() error {
	if b.CountStones() != len(b.moves) {
		return fmt.Errorf("board has %d stones but history holds %d moves", b.CountStones(), len(b.moves))
	}
	for _, move := range b.moves {
		if !b.InBounds(move.X, move.Y) {
			return fmt.Errorf("history move %d at (%d,%d) is out of bounds", move.Index, move.X, move.Y)
		}
		if b.At(move.X, move.Y) != CellFromPlayer(move.Player) {
			return fmt.Errorf("history move %d at (%d,%d) does not match the grid", move.Index, move.X, move.Y)
		}
	}
	return nil
}

func (b Board) index(x, y int) int {
	return y*b.size + x
}

func (c Cell) String() string {
	switch c {
	case CellBlack:
		return "Black"
	case CellWhite:
		return "White"
	default:
		return "Empty"
	}
}

func CellFromPlayer(player PlayerColor) Cell {
	if player == PlayerBlack {
		return CellBlack
	}
	return CellWhite
}

func PlayerFromCell(cell Cell) (PlayerColor, error) {
	switch cell {
	case CellBlack:
		return PlayerBlack, nil
	case CellWhite:
		return PlayerWhite, nil
	default:
		return PlayerBlack, fmt.Errorf("empty cell has no player")
	}
}
