package main

import "sync"

type HumanPlayer struct {
	mu         sync.Mutex
	hasPending bool
	pending    Move
}

func NewHumanPlayer() *HumanPlayer {
	return &HumanPlayer{}
}

func (h *HumanPlayer) IsHuman() bool {
	return true
}

func (h *HumanPlayer) SetPendingMove(move Move) {
	h.mu.Lock()
	h.pending = move
	h.hasPending = true
	h.mu.Unlock()
}

func (h *HumanPlayer) HasPendingMove() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hasPending
}

func (h *HumanPlayer) TakePendingMove() Move {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hasPending = false
	return h.pending
}
