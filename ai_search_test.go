package main

import (
	"math/rand/v2"
	"testing"
	"time"
)

func newSearchTestContext(rules Rules) *searchContext {
	return &searchContext{
		rules:     rules,
		stats:     &SearchStats{},
		evalCache: newEvalCache(0),
		deadline:  time.Now().Add(5 * time.Second),
		rng:       rand.New(rand.NewPCG(1, 2)),
	}
}

func runningState(settings GameSettings) GameState {
	state := DefaultGameState(settings)
	state.Status = StatusRunning
	return state
}

func mustApply(t *testing.T, board *Board, x, y int, player PlayerColor) {
	t.Helper()
	if err := board.Apply(NewMove(x, y, player)); err != nil {
		t.Fatalf("setup apply (%d,%d) failed: %v", x, y, err)
	}
}

func TestMinimaxTakesImmediateWin(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 11
	rules := NewRules(settings)
	state := runningState(settings)
	state.ToMove = PlayerWhite
	for _, x := range []int{2, 3, 4, 5} {
		mustApply(t, &state.Board, x, 3, PlayerWhite)
	}

	ctx := newSearchTestContext(rules)
	result, err := pickMinimax(state, ctx, 2, StrategyMinimax)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Score != winScore {
		t.Fatalf("expected winning score, got %d", result.Score)
	}
	winning := (result.Move.X == 1 || result.Move.X == 6) && result.Move.Y == 3
	if !winning {
		t.Fatalf("expected the completing move, got (%d,%d)", result.Move.X, result.Move.Y)
	}
}

func TestMinimaxBlocksImmediateLoss(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 11
	rules := NewRules(settings)
	state := runningState(settings)
	state.ToMove = PlayerWhite
	mustApply(t, &state.Board, 1, 5, PlayerWhite)
	for _, x := range []int{2, 3, 4, 5} {
		mustApply(t, &state.Board, x, 5, PlayerBlack)
	}

	ctx := newSearchTestContext(rules)
	result, err := pickMinimax(state, ctx, 2, StrategyMinimax)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Move.X != 6 || result.Move.Y != 5 {
		t.Fatalf("expected the block at (6,5), got (%d,%d)", result.Move.X, result.Move.Y)
	}
}

func TestRandomWeightedStaysLegal(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := runningState(settings)
	mustApply(t, &state.Board, 7, 7, PlayerBlack)
	mustApply(t, &state.Board, 8, 8, PlayerWhite)

	ctx := newSearchTestContext(rules)
	for i := 0; i < 20; i++ {
		result, err := pickRandomWeighted(state, ctx)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !state.Board.IsEmpty(result.Move.X, result.Move.Y) {
			t.Fatalf("random tier produced an illegal move (%d,%d)", result.Move.X, result.Move.Y)
		}
		if result.Strategy != StrategyRandomWeighted {
			t.Fatalf("wrong strategy tag: %s", result.Strategy)
		}
	}
}

func TestSearchBestMoveEmptyBoardOpensCenter(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := runningState(settings)

	ctx := newSearchTestContext(rules)
	result, err := searchBestMove(state, ctx, DifficultyBeginner)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Move.X != 7 || result.Move.Y != 7 {
		t.Fatalf("expected the center opening, got (%d,%d)", result.Move.X, result.Move.Y)
	}
}

func TestSearchProgressIsMonotonicAndEndsAtFull(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 11
	rules := NewRules(settings)
	state := runningState(settings)
	mustApply(t, &state.Board, 5, 5, PlayerBlack)
	mustApply(t, &state.Board, 6, 5, PlayerWhite)
	mustApply(t, &state.Board, 5, 6, PlayerBlack)
	state.ToMove = PlayerWhite

	var reports []SearchProgress
	ctx := newSearchTestContext(rules)
	ctx.onProgress = func(progress SearchProgress) {
		reports = append(reports, progress)
	}
	if _, err := searchBestMove(state, ctx, DifficultyNormal); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(reports) == 0 {
		t.Fatalf("expected at least the completion report")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].Percent < reports[i-1].Percent {
			t.Fatalf("progress regressed from %.2f to %.2f", reports[i-1].Percent, reports[i].Percent)
		}
	}
	if last := reports[len(reports)-1]; last.Percent != 100 {
		t.Fatalf("completed search must report 100, got %.2f", last.Percent)
	}
}

func TestAbortedSearchReturnsNoMove(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := runningState(settings)
	mustApply(t, &state.Board, 7, 7, PlayerBlack)
	state.ToMove = PlayerWhite

	ctx := newSearchTestContext(rules)
	ctx.shouldStop = func() bool { return true }
	if _, err := pickMinimax(state, ctx, 2, StrategyMinimax); err != ErrSearchAborted {
		t.Fatalf("expected ErrSearchAborted, got %v", err)
	}
}

func TestEvalCacheRoundTrip(t *testing.T) {
	cache := newEvalCache(16)
	cache.put(42, -7)
	if value, ok := cache.get(42); !ok || value != -7 {
		t.Fatalf("expected cached -7, got %d %t", value, ok)
	}
	if _, ok := cache.get(43); ok {
		t.Fatalf("unexpected hit for a foreign key")
	}
}

func TestDifficultyBudgetsAndDepths(t *testing.T) {
	budgets := map[Difficulty]time.Duration{
		DifficultyBeginner: 600 * time.Millisecond,
		DifficultyNormal:   1000 * time.Millisecond,
		DifficultyHard:     2000 * time.Millisecond,
		DifficultyHell:     2400 * time.Millisecond,
	}
	for difficulty, want := range budgets {
		if got := difficulty.TimeBudget(); got != want {
			t.Fatalf("%s budget %v, want %v", difficulty, got, want)
		}
	}
	if DifficultyNormal.SearchDepth() != 2 || DifficultyHard.SearchDepth() != 3 {
		t.Fatalf("unexpected search depths")
	}
}

func TestParseDifficultyRoundTrip(t *testing.T) {
	for _, difficulty := range []Difficulty{DifficultyBeginner, DifficultyNormal, DifficultyHard, DifficultyHell} {
		parsed, ok := ParseDifficulty(difficulty.String())
		if !ok || parsed != difficulty {
			t.Fatalf("%s did not round-trip", difficulty)
		}
	}
	if _, ok := ParseDifficulty("nightmare"); ok {
		t.Fatalf("unknown names must not parse")
	}
}
