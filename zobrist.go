package main

import "sync"

// Zobrist hashing keys the search's leaf-evaluation cache. Tables are
// built lazily per board size.
type ZobristTable struct {
	size  int
	cells []uint64
	side  uint64
}

type zobristStore struct {
	mu     sync.Mutex
	tables map[int]*ZobristTable
}

var zobristTables = &zobristStore{tables: make(map[int]*ZobristTable)}

func GetZobrist(size int) *ZobristTable {
	zobristTables.mu.Lock()
	defer zobristTables.mu.Unlock()
	if table, ok := zobristTables.tables[size]; ok {
		return table
	}
	rng := splitmix64{state: uint64(0x9e3779b97f4a7c15) ^ uint64(size)}
	table := &ZobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	table.side = rng.next()
	zobristTables.tables[size] = table
	return table
}

func (z *ZobristTable) stone(x, y int, player PlayerColor) uint64 {
	idx := (y*z.size + x) * 2
	if player == PlayerWhite {
		idx++
	}
	return z.cells[idx]
}

func HashBoard(board Board, toMove PlayerColor) uint64 {
	size := board.Size()
	z := GetZobrist(size)
	var hash uint64
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			player, err := PlayerFromCell(board.At(x, y))
			if err != nil {
				continue
			}
			hash ^= z.stone(x, y, player)
		}
	}
	if toMove == PlayerWhite {
		hash ^= z.side
	}
	return hash
}

// HashAfterMove updates an existing hash incrementally: one stone
// added, side to move flipped.
func HashAfterMove(hash uint64, boardSize int, move Move) uint64 {
	z := GetZobrist(boardSize)
	hash ^= z.stone(move.X, move.Y, move.Player)
	hash ^= z.side
	return hash
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
