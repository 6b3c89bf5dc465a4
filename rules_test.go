package main

import "testing"

func testRules(forbidden bool) Rules {
	settings := DefaultGameSettings()
	settings.ForbiddenRules = forbidden
	return NewRules(settings)
}

func TestValidateMoveOrdering(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	board.Apply(NewMove(7, 7, PlayerBlack))

	if verdict := rules.ValidateMove(board, -1, 7, PlayerBlack); verdict.Ok || verdict.Reason != RejectOutOfBounds {
		t.Fatalf("expected out-of-bounds rejection, got %+v", verdict)
	}
	if verdict := rules.ValidateMove(board, 7, 7, PlayerWhite); verdict.Ok || verdict.Reason != RejectOccupied {
		t.Fatalf("expected occupied rejection, got %+v", verdict)
	}
	if verdict := rules.ValidateMove(board, 8, 8, PlayerWhite); !verdict.Ok {
		t.Fatalf("expected clean move to pass, got %+v", verdict)
	}
}

func TestDetectForbiddenOverline(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 8} {
		board.Set(x, 7, CellBlack)
	}
	violations := rules.DetectForbidden(board, 7, 7)
	if len(violations) != 1 || violations[0] != ForbiddenOverline {
		t.Fatalf("expected overline violation, got %v", violations)
	}
	if verdict := rules.ValidateMove(board, 7, 7, PlayerBlack); verdict.Ok || verdict.Reason != RejectForbidden {
		t.Fatalf("expected forbidden rejection for black, got %+v", verdict)
	}
	// The detection is transient; the tested cell stays empty.
	if board.At(7, 7) != CellEmpty {
		t.Fatalf("forbidden detection left a stone behind")
	}
}

func TestDetectForbiddenDoubleThree(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	board.Set(5, 7, CellBlack)
	board.Set(6, 7, CellBlack)
	board.Set(7, 5, CellBlack)
	board.Set(7, 6, CellBlack)
	violations := rules.DetectForbidden(board, 7, 7)
	if len(violations) != 1 || violations[0] != ForbiddenDoubleThree {
		t.Fatalf("expected double-three violation, got %v", violations)
	}
}

func TestDetectForbiddenDoubleFour(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	// Horizontal four blocked on the left, vertical four blocked on top.
	board.Set(4, 7, CellWhite)
	board.Set(5, 7, CellBlack)
	board.Set(6, 7, CellBlack)
	board.Set(8, 7, CellBlack)
	board.Set(7, 4, CellWhite)
	board.Set(7, 5, CellBlack)
	board.Set(7, 6, CellBlack)
	board.Set(7, 8, CellBlack)
	violations := rules.DetectForbidden(board, 7, 7)
	if len(violations) != 1 || violations[0] != ForbiddenDoubleFour {
		t.Fatalf("expected double-four violation, got %v", violations)
	}
}

func TestForbiddenRulesNeverBindWhite(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 8} {
		board.Set(x, 7, CellWhite)
	}
	if verdict := rules.ValidateMove(board, 7, 7, PlayerWhite); !verdict.Ok {
		t.Fatalf("white must not be bound by forbidden rules, got %+v", verdict)
	}
}

func TestForbiddenRulesDisabled(t *testing.T) {
	rules := testRules(false)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 8} {
		board.Set(x, 7, CellBlack)
	}
	if verdict := rules.ValidateMove(board, 7, 7, PlayerBlack); !verdict.Ok {
		t.Fatalf("forbidden rules disabled must allow the overline, got %+v", verdict)
	}
}

func TestCheckWinFive(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 7} {
		board.Set(x, 7, CellBlack)
	}
	win := rules.CheckWin(board, 5, 7, PlayerBlack)
	if !win.IsWin {
		t.Fatalf("expected win for exact five")
	}
	if len(win.WinLine) != 5 {
		t.Fatalf("expected 5-cell win line, got %d", len(win.WinLine))
	}
	if win.WinLine[0].X != 3 || win.WinLine[4].X != 7 {
		t.Fatalf("win line misplaced: %v", win.WinLine)
	}
}

func TestFourInARowIsNotAWinButAnalyzesAsLiveFour(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, y := range []int{5, 6, 7, 8} {
		board.Set(7, y, CellBlack)
	}
	if win := rules.CheckWin(board, 7, 8, PlayerBlack); win.IsWin {
		t.Fatalf("four stones must not win")
	}
	analysis := rules.AnalyzePattern(board, 7, 8, PlayerBlack)
	if analysis.Count(PatternLiveFour) != 1 {
		t.Fatalf("expected one live four, got %d", analysis.Count(PatternLiveFour))
	}
	if ScoreLiveFour != 10000 {
		t.Fatalf("live four score drifted: %d", ScoreLiveFour)
	}
}

func TestCheckWinOverlineIsNotAWinForBlack(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 7, 8} {
		board.Set(x, 7, CellBlack)
	}
	win := rules.CheckWin(board, 5, 7, PlayerBlack)
	if win.IsWin {
		t.Fatalf("black overline must not win under forbidden rules")
	}
	if !win.IsOverline {
		t.Fatalf("expected the overline to be reported")
	}
}

func TestCheckWinOverlineWinsForWhite(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 7, 8} {
		board.Set(x, 7, CellWhite)
	}
	if win := rules.CheckWin(board, 5, 7, PlayerWhite); !win.IsWin {
		t.Fatalf("white overline wins; forbidden rules bind black only")
	}
}

func TestCheckWinPrefersGenuineFiveOverOverline(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	// Horizontal six through (7,7) and a clean vertical five.
	for _, x := range []int{4, 5, 6, 7, 8, 9} {
		board.Set(x, 7, CellBlack)
	}
	for _, y := range []int{3, 4, 5, 6} {
		board.Set(7, y, CellBlack)
	}
	win := rules.CheckWin(board, 7, 7, PlayerBlack)
	if !win.IsWin {
		t.Fatalf("a five in another direction must still win despite the overline")
	}
}

func TestAvailableMovesEmptyBoardIsCenterOnly(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	moves := rules.AvailableMoves(board, PlayerBlack, candidateRange)
	if len(moves) != 1 || moves[0].X != 7 || moves[0].Y != 7 {
		t.Fatalf("expected the single center candidate, got %v", moves)
	}
}

func TestAvailableMovesNeighborhood(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	board.Apply(NewMove(7, 7, PlayerBlack))
	moves := rules.AvailableMoves(board, PlayerWhite, candidateRange)
	if len(moves) != 24 {
		t.Fatalf("expected the 24 cells around the stone, got %d", len(moves))
	}
	for _, move := range moves {
		dx := absInt(move.X - 7)
		dy := absInt(move.Y - 7)
		if dx > candidateRange || dy > candidateRange {
			t.Fatalf("candidate (%d,%d) outside the neighborhood", move.X, move.Y)
		}
		if !board.IsEmpty(move.X, move.Y) {
			t.Fatalf("candidate (%d,%d) is occupied", move.X, move.Y)
		}
	}
}

func TestAvailableMovesClipsAtBoardEdge(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	board.Apply(NewMove(0, 0, PlayerBlack))
	moves := rules.AvailableMoves(board, PlayerWhite, candidateRange)
	if len(moves) != 8 {
		t.Fatalf("corner neighborhood must clip to 8 cells, got %d", len(moves))
	}
}

func TestAvailableMovesExcludesForbiddenCellsForBlack(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{3, 4, 5, 6, 8} {
		board.Apply(NewMove(x, 7, PlayerBlack))
	}
	for _, move := range rules.AvailableMoves(board, PlayerBlack, candidateRange) {
		if move.X == 7 && move.Y == 7 {
			t.Fatalf("forbidden overline cell offered as a candidate")
		}
	}
	found := false
	for _, move := range rules.AvailableMoves(board, PlayerWhite, candidateRange) {
		if move.X == 7 && move.Y == 7 {
			found = true
		}
	}
	if !found {
		t.Fatalf("white must still see the cell black cannot take")
	}
}

func TestEvaluatePositionScoresFive(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	for _, x := range []int{5, 6, 8, 9} {
		board.Set(x, 7, CellBlack)
	}
	if score := rules.EvaluatePosition(board, 7, 7, PlayerBlack); score != ScoreFive {
		t.Fatalf("expected %d for a completing five, got %d", ScoreFive, score)
	}
	if board.At(7, 7) != CellEmpty {
		t.Fatalf("evaluation left a stone behind")
	}
}

func TestEvaluatePositionSumsDirections(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	board.Set(6, 7, CellBlack)
	board.Set(8, 7, CellBlack)
	board.Set(7, 6, CellBlack)
	board.Set(7, 8, CellBlack)
	// Placing at the cross completes a live three in both lines.
	if score := rules.EvaluatePosition(board, 7, 7, PlayerBlack); score != 2*ScoreLiveThree {
		t.Fatalf("expected %d for the double live three, got %d", 2*ScoreLiveThree, score)
	}
}

func TestAnalyzePatternCounts(t *testing.T) {
	rules := testRules(true)
	board := NewBoard(15)
	board.Set(6, 7, CellBlack)
	board.Set(8, 7, CellBlack)
	board.Set(7, 6, CellBlack)
	board.Set(7, 8, CellBlack)
	analysis := rules.AnalyzePattern(board, 7, 7, PlayerBlack)
	if analysis.Count(PatternLiveThree) != 2 {
		t.Fatalf("expected two live threes, got %d", analysis.Count(PatternLiveThree))
	}
	if analysis.Total != 2*ScoreLiveThree {
		t.Fatalf("total %d does not match counted patterns", analysis.Total)
	}
}

func TestIsDraw(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BoardSize = 3
	settings.ForbiddenRules = false
	rules := NewRules(settings)
	board := NewBoard(3)
	if rules.IsDraw(board) {
		t.Fatalf("empty board is not a draw")
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			board.Set(x, y, CellBlack)
		}
	}
	if !rules.IsDraw(board) {
		t.Fatalf("full board is a draw")
	}
}
