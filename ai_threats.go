package main

type ThreatLevel int

const (
	ThreatNone ThreatLevel = iota
	ThreatModerate
	ThreatSerious
	ThreatCritical
)

func (l ThreatLevel) String() string {
	switch l {
	case ThreatCritical:
		return "critical"
	case ThreatSerious:
		return "serious"
	case ThreatModerate:
		return "moderate"
	default:
		return "none"
	}
}

type threat struct {
	move  Move
	level ThreatLevel
}

// classifyThreats grades every candidate cell by what the opponent
// would get from playing it: critical means an outright win, serious a
// live-four or a double rush-four, moderate a double live-three.
func classifyThreats(board Board, ctx *searchContext, mover PlayerColor) []threat {
	opponent := otherPlayer(mover)
	candidates := ctx.rules.AvailableMoves(board, opponent, candidateRange)
	threats := make([]threat, 0, 4)
	for _, cand := range candidates {
		if ctx.aborted() {
			break
		}
		analysis := ctx.rules.AnalyzePattern(board, cand.X, cand.Y, opponent)
		level := threatLevelFor(analysis, ctx.rules, opponent)
		if level == ThreatNone {
			continue
		}
		threats = append(threats, threat{move: cand, level: level})
	}
	return threats
}

func threatLevelFor(analysis PatternAnalysis, rules Rules, player PlayerColor) ThreatLevel {
	five := analysis.Count(PatternFive)
	if !rules.ForbiddenRulesEnabled() || player != constrainedPlayer {
		// An overline wins outright for the unconstrained color.
		five += analysis.Count(PatternOverline)
	}
	switch {
	case five > 0:
		return ThreatCritical
	case analysis.Count(PatternLiveFour) > 0 || analysis.Count(PatternRushFour) >= 2:
		return ThreatSerious
	case analysis.Count(PatternLiveThree) >= 2:
		return ThreatModerate
	default:
		return ThreatNone
	}
}

// pickThreatMinimax is the Hard tier: if the opponent has a move that
// wins outright, take that cell now and skip deep search entirely.
// Otherwise run minimax at depth 3.
func pickThreatMinimax(state GameState, ctx *searchContext) (SearchResult, error) {
	for _, th := range classifyThreats(state.Board, ctx, state.ToMove) {
		if th.level != ThreatCritical {
			continue
		}
		block := Move{X: th.move.X, Y: th.move.Y, Player: state.ToMove}
		if !ctx.rules.ValidateMove(state.Board, block.X, block.Y, state.ToMove).Ok {
			// The blocking cell is forbidden for us; deep search has
			// to find another defense.
			continue
		}
		score := ctx.rules.EvaluatePosition(state.Board, block.X, block.Y, state.ToMove)
		ctx.stats.Nodes++
		return SearchResult{Move: block, Score: score, Strategy: StrategyThreatMinimax}, nil
	}
	return pickMinimax(state, ctx, DifficultyHard.SearchDepth(), StrategyThreatMinimax)
}

// pickThreatSpace is the Hell tier. It enumerates forcing sequences
// from the classified threats (every critical threat as a length-1
// sequence, every pairwise combination of serious threats as a
// length-2 sequence), plays each sequence out on a cloned board, and
// keeps the highest cumulative pattern score. Only the first move of
// the winning sequence is returned.
//
// This is a bounded heuristic approximation of threat-space search,
// not an exhaustive forcing-move enumeration: chains longer than two
// moves are never considered.
func pickThreatSpace(state GameState, ctx *searchContext) (SearchResult, error) {
	threats := classifyThreats(state.Board, ctx, state.ToMove)
	var critical, serious []threat
	for _, th := range threats {
		switch th.level {
		case ThreatCritical:
			critical = append(critical, th)
		case ThreatSerious:
			serious = append(serious, th)
		}
	}

	sequences := make([][]Move, 0, len(critical)+len(serious)*len(serious)/2)
	for _, th := range critical {
		sequences = append(sequences, []Move{th.move})
	}
	for i := 0; i < len(serious); i++ {
		for j := i + 1; j < len(serious); j++ {
			sequences = append(sequences, []Move{serious[i].move, serious[j].move})
		}
	}
	if len(sequences) == 0 {
		// Nothing forcing on the board; fall back to deep minimax.
		return pickMinimax(state, ctx, DifficultyHell.SearchDepth(), StrategyThreatSpace)
	}
	ctx.stats.EstimatedNodes = int64(len(sequences) * 2)

	bestScore := 0
	var bestFirst Move
	haveBest := false
	for _, sequence := range sequences {
		if ctx.aborted() {
			if haveBest {
				break
			}
			return SearchResult{}, ErrSearchAborted
		}
		if ctx.expired() && haveBest {
			break
		}
		score, ok := scoreForcingSequence(state, ctx, sequence)
		if !ok {
			continue
		}
		if !haveBest || score > bestScore {
			bestScore = score
			bestFirst = sequence[0]
			haveBest = true
		}
		ctx.reportProgress()
	}
	if !haveBest {
		return pickMinimax(state, ctx, DifficultyHell.SearchDepth(), StrategyThreatSpace)
	}
	bestFirst.Player = state.ToMove
	return SearchResult{Move: bestFirst, Score: bestScore, Strategy: StrategyThreatSpace}, nil
}

// scoreForcingSequence plays the mover's stones onto a clone one move
// at a time and accumulates each placement's pattern score.
func scoreForcingSequence(state GameState, ctx *searchContext, sequence []Move) (int, bool) {
	sim := state.Clone()
	mover := state.ToMove
	total := 0
	for _, cell := range sequence {
		move := Move{X: cell.X, Y: cell.Y, Player: mover}
		if !ctx.rules.ValidateMove(sim.Board, move.X, move.Y, mover).Ok {
			return 0, false
		}
		if err := sim.Board.Apply(move); err != nil {
			return 0, false
		}
		ctx.countNode()
		total += ctx.rules.EvaluatePosition(sim.Board, move.X, move.Y, mover)
	}
	return total, true
}
