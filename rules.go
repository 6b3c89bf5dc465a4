package main

import "fmt"

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectOutOfBounds
	RejectOccupied
	RejectForbidden
)

func (r RejectReason) String() string {
	switch r {
	case RejectOutOfBounds:
		return "out of bounds"
	case RejectOccupied:
		return "occupied"
	case RejectForbidden:
		return "forbidden move"
	default:
		return ""
	}
}

type ForbiddenKind int

const (
	ForbiddenOverline ForbiddenKind = iota
	ForbiddenDoubleThree
	ForbiddenDoubleFour
)

func (k ForbiddenKind) String() string {
	switch k {
	case ForbiddenOverline:
		return "overline"
	case ForbiddenDoubleThree:
		return "double_three"
	case ForbiddenDoubleFour:
		return "double_four"
	default:
		return "unknown"
	}
}

// ValidationResult is a value, never a panic: the search treats
// rejections as ordinary pruning signals.
type ValidationResult struct {
	Ok         bool
	Reason     RejectReason
	Violations []ForbiddenKind
}

type WinResult struct {
	IsWin      bool
	WinLine    []Move
	IsOverline bool
}

type PatternAnalysis struct {
	Counts [patternKindCount]int
	Total  int
}

func (a PatternAnalysis) Count(kind PatternKind) int {
	return a.Counts[kind]
}

// constrainedPlayer is the color the forbidden rules bind. Black, by
// Renju convention.
const constrainedPlayer = PlayerBlack

func (r Rules) ForbiddenRulesEnabled() bool {
	return r.settings.ForbiddenRules
}

func (r Rules) WinLength() int {
	return r.settings.WinLength
}

func (r Rules) BoardSize() int {
	return r.settings.BoardSize
}

// ValidateMove checks rejection reasons in a fixed order: bounds, then
// occupancy, then forbidden shapes (constrained color only, and only
// when the forbidden rules are enabled).
func (r Rules) ValidateMove(board Board, x, y int, player PlayerColor) ValidationResult {
	if !board.InBounds(x, y) {
		return ValidationResult{Reason: RejectOutOfBounds}
	}
	if board.At(x, y) != CellEmpty {
		return ValidationResult{Reason: RejectOccupied}
	}
	if r.settings.ForbiddenRules && player == constrainedPlayer {
		if violations := r.DetectForbidden(board, x, y); len(violations) > 0 {
			return ValidationResult{Reason: RejectForbidden, Violations: violations}
		}
	}
	return ValidationResult{Ok: true}
}

// DetectForbidden classifies a hypothetical constrained-color stone at
// (x,y). Every violated rule is reported so the caller can explain the
// rejection, not just the first one found.
//
// The board is mutated only transiently (set then remove), so no clone
// is needed.
func (r Rules) DetectForbidden(board Board, x, y int) []ForbiddenKind {
	board.Set(x, y, CellFromPlayer(constrainedPlayer))
	defer board.Remove(x, y)

	overlines := 0
	liveThrees := 0
	fours := 0
	for _, dir := range lineDirections {
		switch matchLinePattern(board, x, y, constrainedPlayer, dir) {
		case PatternOverline:
			overlines++
		case PatternLiveThree:
			liveThrees++
		case PatternLiveFour, PatternRushFour:
			fours++
		}
	}

	var violations []ForbiddenKind
	if overlines > 0 {
		violations = append(violations, ForbiddenOverline)
	}
	if liveThrees >= 2 {
		violations = append(violations, ForbiddenDoubleThree)
	}
	if fours >= 2 {
		violations = append(violations, ForbiddenDoubleFour)
	}
	return violations
}

// CheckWin reports whether player owns five contiguous stones through
// (x,y). A run longer than five is an overline, not a win, for the
// constrained color while the forbidden rules are on; validation
// should have rejected the move before it was ever applied, so the
// overline branch here is defensive.
func (r Rules) CheckWin(board Board, x, y int, player PlayerColor) WinResult {
	if !board.InBounds(x, y) {
		return WinResult{}
	}
	target := CellFromPlayer(player)
	sawOverline := false
	for _, dir := range lineDirections {
		run := 1
		run += countContiguous(board, x, y, dir.DX, dir.DY, target)
		run += countContiguous(board, x, y, -dir.DX, -dir.DY, target)
		if run < r.settings.WinLength {
			continue
		}
		if run > r.settings.WinLength && r.settings.ForbiddenRules && player == constrainedPlayer {
			sawOverline = true
			continue
		}
		return WinResult{IsWin: true, WinLine: r.collectWinLine(board, x, y, dir, player)}
	}
	return WinResult{IsOverline: sawOverline}
}

// collectWinLine walks to the most-negative end of the run and takes
// the first WinLength cells from there.
func (r Rules) collectWinLine(board Board, x, y int, dir Direction, player PlayerColor) []Move {
	target := CellFromPlayer(player)
	startX, startY := x, y
	for board.InBounds(startX-dir.DX, startY-dir.DY) && board.At(startX-dir.DX, startY-dir.DY) == target {
		startX -= dir.DX
		startY -= dir.DY
	}
	line := make([]Move, 0, r.settings.WinLength)
	for i := 0; i < r.settings.WinLength; i++ {
		line = append(line, Move{X: startX + i*dir.DX, Y: startY + i*dir.DY, Player: player})
	}
	return line
}

// AvailableMoves returns the candidate cells for player: the single
// center cell on an empty history, otherwise every empty in-bounds cell
// within Chebyshev distance rng of any historical move. Forbidden cells
// are excluded for the constrained color. The full empty board is never
// enumerated; the neighborhood restriction is what keeps search
// tractable.
func (r Rules) AvailableMoves(board Board, player PlayerColor, rng int) []Move {
	size := board.Size()
	if board.MoveCount() == 0 {
		center := size / 2
		return []Move{{X: center, Y: center, Player: player}}
	}
	if rng <= 0 {
		rng = 2
	}
	seen := make([]bool, size*size)
	for _, played := range board.Moves() {
		for dy := -rng; dy <= rng; dy++ {
			for dx := -rng; dx <= rng; dx++ {
				x := played.X + dx
				y := played.Y + dy
				if !board.IsEmpty(x, y) {
					continue
				}
				seen[y*size+x] = true
			}
		}
	}
	moves := make([]Move, 0, 64)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !seen[y*size+x] {
				continue
			}
			if r.settings.ForbiddenRules && player == constrainedPlayer {
				if len(r.DetectForbidden(board, x, y)) > 0 {
					continue
				}
			}
			moves = append(moves, Move{X: x, Y: y, Player: player})
		}
	}
	return moves
}

// EvaluatePosition scores (x,y) from player's own perspective only: the
// sum of the classified pattern scores over the four directions, with
// the stone hypothetically placed.
func (r Rules) EvaluatePosition(board Board, x, y int, player PlayerColor) int {
	if !board.InBounds(x, y) {
		return 0
	}
	occupied := board.At(x, y) != CellEmpty
	if !occupied {
		board.Set(x, y, CellFromPlayer(player))
		defer board.Remove(x, y)
	}
	total := 0
	for _, dir := range lineDirections {
		total += matchLinePattern(board, x, y, player, dir).Score()
	}
	return total
}

// AnalyzePattern classifies all four directions through (x,y) for
// player and returns the per-kind counts with the summed score.
func (r Rules) AnalyzePattern(board Board, x, y int, player PlayerColor) PatternAnalysis {
	analysis := PatternAnalysis{}
	if !board.InBounds(x, y) {
		return analysis
	}
	occupied := board.At(x, y) != CellEmpty
	if !occupied {
		board.Set(x, y, CellFromPlayer(player))
		defer board.Remove(x, y)
	}
	for _, dir := range lineDirections {
		kind := matchLinePattern(board, x, y, player, dir)
		analysis.Counts[kind]++
		analysis.Total += kind.Score()
	}
	return analysis
}

func (r Rules) IsDraw(board Board) bool {
	return board.CountEmpty() == 0
}

func countContiguous(board Board, x, y, dx, dy int, target Cell) int {
	count := 0
	cx := x + dx
	cy := y + dy
	for board.InBounds(cx, cy) && board.At(cx, cy) == target {
		count++
		cx += dx
		cy += dy
	}
	return count
}

func (r Rules) String() string {
	return fmt.Sprintf("Rules{size=%d, win=%d, forbidden=%t}", r.settings.BoardSize, r.settings.WinLength, r.settings.ForbiddenRules)
}
