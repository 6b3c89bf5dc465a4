package main

import "testing"

func TestHashDistinguishesSideToMove(t *testing.T) {
	board := NewBoard(9)
	board.Apply(NewMove(4, 4, PlayerBlack))
	if HashBoard(board, PlayerBlack) == HashBoard(board, PlayerWhite) {
		t.Fatalf("hash must differ by side to move")
	}
}

func TestHashDistinguishesStoneOwner(t *testing.T) {
	black := NewBoard(9)
	black.Apply(NewMove(4, 4, PlayerBlack))
	white := NewBoard(9)
	white.Apply(NewMove(4, 4, PlayerWhite))
	if HashBoard(black, PlayerBlack) == HashBoard(white, PlayerBlack) {
		t.Fatalf("hash must differ by stone owner")
	}
}

func TestHashAfterMoveMatchesFullRecompute(t *testing.T) {
	board := NewBoard(9)
	board.Apply(NewMove(4, 4, PlayerBlack))
	hash := HashBoard(board, PlayerWhite)

	move := NewMove(5, 4, PlayerWhite)
	if err := board.Apply(move); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	incremental := HashAfterMove(hash, board.Size(), move)
	if full := HashBoard(board, PlayerBlack); incremental != full {
		t.Fatalf("incremental hash %d diverged from recompute %d", incremental, full)
	}
}

func TestHashUndoRoundTrip(t *testing.T) {
	board := NewBoard(9)
	board.Apply(NewMove(4, 4, PlayerBlack))
	before := HashBoard(board, PlayerWhite)

	move := NewMove(5, 4, PlayerWhite)
	board.Apply(move)
	after := HashAfterMove(before, board.Size(), move)
	// Applying the same stone twice cancels out, side flip included.
	if HashAfterMove(after, board.Size(), move) != before {
		t.Fatalf("hash is not self-inverse")
	}
}

func TestTablesAreStablePerSize(t *testing.T) {
	if GetZobrist(9) != GetZobrist(9) {
		t.Fatalf("same size must share one table")
	}
	if GetZobrist(9) == GetZobrist(15) {
		t.Fatalf("different sizes must not share a table")
	}
}
