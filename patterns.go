package main

type Direction struct {
	DX int
	DY int
}

var lineDirections = [4]Direction{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

type PatternKind int

const (
	PatternNone PatternKind = iota
	PatternOverline
	PatternFive
	PatternLiveFour
	PatternRushFour
	PatternLiveThree
	PatternSleepThree
	PatternLiveTwo
	PatternSleepTwo
	patternKindCount
)

const (
	ScoreFive       = 100000
	ScoreOverline   = -100000
	ScoreLiveFour   = 10000
	ScoreRushFour   = 1000
	ScoreLiveThree  = 1000
	ScoreSleepThree = 100
	ScoreLiveTwo    = 100
	ScoreSleepTwo   = 10
)

func (k PatternKind) Score() int {
	switch k {
	case PatternFive:
		return ScoreFive
	case PatternOverline:
		return ScoreOverline
	case PatternLiveFour:
		return ScoreLiveFour
	case PatternRushFour:
		return ScoreRushFour
	case PatternLiveThree:
		return ScoreLiveThree
	case PatternSleepThree:
		return ScoreSleepThree
	case PatternLiveTwo:
		return ScoreLiveTwo
	case PatternSleepTwo:
		return ScoreSleepTwo
	default:
		return 0
	}
}

func (k PatternKind) String() string {
	switch k {
	case PatternOverline:
		return "overline"
	case PatternFive:
		return "five"
	case PatternLiveFour:
		return "live_four"
	case PatternRushFour:
		return "rush_four"
	case PatternLiveThree:
		return "live_three"
	case PatternSleepThree:
		return "sleep_three"
	case PatternLiveTwo:
		return "live_two"
	case PatternSleepTwo:
		return "sleep_two"
	default:
		return "none"
	}
}

type patternTemplate struct {
	kind  PatternKind
	cells string
}

// Templates are matched top to bottom; the order is load-bearing.
// Overline must be checked before five (a six-run contains a five
// substring) and live-four before rush-four (an open four contains two
// rush-four substrings). Tags: '1' own, '0' empty, '2' opponent or edge.
var patternTemplates = [...]patternTemplate{
	{PatternOverline, "111111"},
	{PatternFive, "11111"},
	{PatternLiveFour, "011110"},
	{PatternRushFour, "11110"},
	{PatternRushFour, "01111"},
	{PatternRushFour, "11101"},
	{PatternRushFour, "10111"},
	{PatternLiveThree, "01110"},
	{PatternLiveThree, "011010"},
	{PatternLiveThree, "010110"},
	{PatternSleepThree, "1110"},
	{PatternSleepThree, "0111"},
	{PatternSleepThree, "1101"},
	{PatternSleepThree, "1011"},
	{PatternLiveTwo, "0110"},
	{PatternLiveTwo, "01010"},
	{PatternSleepTwo, "110"},
	{PatternSleepTwo, "011"},
	{PatternSleepTwo, "101"},
}

const (
	patternWindowRadius = 4
	patternWindowSize   = patternWindowRadius*2 + 1
)

// linePatternWindow builds the symmetric ±4 window through (x,y) for
// one direction, tagged relative to player. The center is forced to
// own: the stone is hypothetically placed even when the cell is still
// empty on the caller's board. Off-board cells tag '2' and block
// openness exactly like an opponent stone, never like an empty cell.
func linePatternWindow(board Board, x, y int, player PlayerColor, dir Direction) [patternWindowSize]byte {
	var window [patternWindowSize]byte
	own := CellFromPlayer(player)
	for i := -patternWindowRadius; i <= patternWindowRadius; i++ {
		cx := x + i*dir.DX
		cy := y + i*dir.DY
		value := byte('2')
		if board.InBounds(cx, cy) {
			switch board.At(cx, cy) {
			case CellEmpty:
				value = '0'
			case own:
				value = '1'
			default:
				value = '2'
			}
		}
		window[i+patternWindowRadius] = value
	}
	window[patternWindowRadius] = '1'
	return window
}

// classifyWindow returns the single strongest pattern in the window.
// Matching is substring-style, but only substrings covering the center
// count: the classification is about the hypothetical stone, not about
// unrelated shapes at the window's edge.
func classifyWindow(window [patternWindowSize]byte) PatternKind {
	const center = patternWindowRadius
	for _, tpl := range patternTemplates {
		n := len(tpl.cells)
		for start := 0; start+n <= patternWindowSize; start++ {
			if center < start || center >= start+n {
				continue
			}
			if windowMatchAt(window[:], tpl.cells, start) {
				return tpl.kind
			}
		}
	}
	return PatternNone
}

func windowMatchAt(window []byte, pattern string, start int) bool {
	for i := 0; i < len(pattern); i++ {
		if window[start+i] != pattern[i] {
			return false
		}
	}
	return true
}

// matchLinePattern classifies the line through (x,y) in one direction
// as if player had a stone there.
func matchLinePattern(board Board, x, y int, player PlayerColor, dir Direction) PatternKind {
	return classifyWindow(linePatternWindow(board, x, y, player, dir))
}
