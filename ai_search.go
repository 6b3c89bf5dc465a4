package main

import (
	"errors"
	"math/rand/v2"
	"sort"
	"time"
)

const (
	winScore       = 100000
	candidateRange = 2

	// Opponent pressure counts into move ordering at a discount, so
	// defensive cells sort high without outranking equal attacks.
	opponentOrderWeight = 0.8

	centralityWeight = 10
)

var (
	ErrSearchBusy    = errors.New("a thinking session is already active")
	ErrSearchAborted = errors.New("search aborted")
	ErrNoCandidates  = errors.New("no candidate moves")
)

type Strategy int

const (
	StrategyRandomWeighted Strategy = iota
	StrategyMinimax
	StrategyThreatMinimax
	StrategyThreatSpace
)

func (s Strategy) String() string {
	switch s {
	case StrategyRandomWeighted:
		return "random_weighted"
	case StrategyMinimax:
		return "minimax"
	case StrategyThreatMinimax:
		return "minimax_threat"
	case StrategyThreatSpace:
		return "threat_space"
	default:
		return "unknown"
	}
}

type Difficulty int

const (
	DifficultyBeginner Difficulty = iota
	DifficultyNormal
	DifficultyHard
	DifficultyHell
)

func (d Difficulty) TimeBudget() time.Duration {
	switch d {
	case DifficultyBeginner:
		return 600 * time.Millisecond
	case DifficultyNormal:
		return 1000 * time.Millisecond
	case DifficultyHard:
		return 2000 * time.Millisecond
	case DifficultyHell:
		return 2400 * time.Millisecond
	default:
		return 1000 * time.Millisecond
	}
}

// SearchDepth is the ply depth for the minimax tiers. Beginner has no
// lookahead and Hell is sequence-bounded rather than ply-bounded.
func (d Difficulty) SearchDepth() int {
	switch d {
	case DifficultyNormal:
		return 2
	case DifficultyHard, DifficultyHell:
		return 3
	default:
		return 0
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyNormal:
		return "normal"
	case DifficultyHard:
		return "hard"
	case DifficultyHell:
		return "hell"
	default:
		return "normal"
	}
}

func ParseDifficulty(raw string) (Difficulty, bool) {
	switch raw {
	case "beginner":
		return DifficultyBeginner, true
	case "normal":
		return DifficultyNormal, true
	case "hard":
		return DifficultyHard, true
	case "hell":
		return DifficultyHell, true
	default:
		return DifficultyNormal, false
	}
}

type SearchResult struct {
	Move     Move          `json:"move"`
	Score    int           `json:"score"`
	Nodes    int64         `json:"nodes"`
	Strategy Strategy      `json:"-"`
	Elapsed  time.Duration `json:"-"`
}

type SearchStats struct {
	Nodes          int64
	EstimatedNodes int64
	Cutoffs        int64
	Start          time.Time
}

type SearchProgress struct {
	Percent float64 `json:"percent"`
	Nodes   int64   `json:"nodes"`
}

// searchContext carries everything a search invocation needs through
// the recursion: rules, deadline, stop signal, stats, progress sink.
// Nothing in here touches the live game (the state passed in is
// always a clone).
type searchContext struct {
	rules      Rules
	stats      *SearchStats
	deadline   time.Time
	shouldStop func() bool
	onProgress func(SearchProgress)
	evalCache  *evalCache
	lastPct    float64
	rng        *rand.Rand
}

func (ctx *searchContext) aborted() bool {
	return ctx.shouldStop != nil && ctx.shouldStop()
}

func (ctx *searchContext) expired() bool {
	return !ctx.deadline.IsZero() && time.Now().After(ctx.deadline)
}

func (ctx *searchContext) countNode() {
	ctx.stats.Nodes++
	if ctx.onProgress == nil || ctx.stats.Nodes%64 != 0 {
		return
	}
	ctx.reportProgress()
}

// reportProgress publishes a monotonically non-decreasing estimate. It
// is advisory only and may finish well short of 100.
func (ctx *searchContext) reportProgress() {
	if ctx.onProgress == nil || ctx.stats.EstimatedNodes <= 0 {
		return
	}
	pct := float64(ctx.stats.Nodes) / float64(ctx.stats.EstimatedNodes) * 100
	if pct > 99 {
		pct = 99
	}
	if pct < ctx.lastPct {
		pct = ctx.lastPct
	}
	ctx.lastPct = pct
	ctx.onProgress(SearchProgress{Percent: pct, Nodes: ctx.stats.Nodes})
}

// searchBestMove dispatches to the strategy for the difficulty tier.
// All strategies see the same candidate universe: AvailableMoves with
// the range-2 neighborhood, center-only on an empty board.
func searchBestMove(state GameState, ctx *searchContext, difficulty Difficulty) (SearchResult, error) {
	start := time.Now()
	if ctx.stats == nil {
		ctx.stats = &SearchStats{}
	}
	ctx.stats.Start = start

	var result SearchResult
	var err error
	switch difficulty {
	case DifficultyBeginner:
		result, err = pickRandomWeighted(state, ctx)
	case DifficultyNormal:
		result, err = pickMinimax(state, ctx, DifficultyNormal.SearchDepth(), StrategyMinimax)
	case DifficultyHard:
		result, err = pickThreatMinimax(state, ctx)
	case DifficultyHell:
		result, err = pickThreatSpace(state, ctx)
	default:
		result, err = pickMinimax(state, ctx, DifficultyNormal.SearchDepth(), StrategyMinimax)
	}
	if err != nil {
		return SearchResult{}, err
	}
	result.Nodes = ctx.stats.Nodes
	result.Elapsed = time.Since(start)
	if ctx.onProgress != nil {
		ctx.onProgress(SearchProgress{Percent: 100, Nodes: ctx.stats.Nodes})
	}
	return result, nil
}

type scoredMove struct {
	move  Move
	score float64
}

// orderedCandidates scores each candidate cell by its own pattern value
// plus the discounted value the opponent would get there, then sorts
// descending. The ordering is what makes alpha-beta cut: without it the
// pruning degrades to nearly full width.
func orderedCandidates(board Board, ctx *searchContext, player PlayerColor) []scoredMove {
	opponent := otherPlayer(player)
	candidates := ctx.rules.AvailableMoves(board, player, candidateRange)
	scored := make([]scoredMove, 0, len(candidates))
	for _, move := range candidates {
		own := ctx.rules.EvaluatePosition(board, move.X, move.Y, player)
		theirs := ctx.rules.EvaluatePosition(board, move.X, move.Y, opponent)
		scored = append(scored, scoredMove{
			move:  move,
			score: float64(own) + opponentOrderWeight*float64(theirs),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

// pickRandomWeighted is the Beginner tier: no lookahead, a weighted
// draw among the top half of the heuristically scored candidates.
func pickRandomWeighted(state GameState, ctx *searchContext) (SearchResult, error) {
	candidates := orderedCandidates(state.Board, ctx, state.ToMove)
	if len(candidates) == 0 {
		return SearchResult{}, ErrNoCandidates
	}
	ctx.stats.EstimatedNodes = int64(len(candidates))
	keep := len(candidates) / 2
	if keep < 1 {
		keep = 1
	}
	pool := candidates[:keep]

	total := 0.0
	weights := make([]float64, len(pool))
	for i, cand := range pool {
		if ctx.aborted() {
			return SearchResult{}, ErrSearchAborted
		}
		ctx.countNode()
		// Shift weights to stay positive; a zero-score cell still
		// deserves a sliver of probability.
		weights[i] = cand.score + 1
		if weights[i] < 1 {
			weights[i] = 1
		}
		total += weights[i]
	}
	draw := ctx.randFloat() * total
	for i, weight := range weights {
		draw -= weight
		if draw <= 0 {
			return SearchResult{Move: pool[i].move, Score: int(pool[i].score), Strategy: StrategyRandomWeighted}, nil
		}
	}
	best := pool[0]
	return SearchResult{Move: best.move, Score: int(best.score), Strategy: StrategyRandomWeighted}, nil
}

func (ctx *searchContext) randFloat() float64 {
	if ctx.rng != nil {
		return ctx.rng.Float64()
	}
	return rand.Float64()
}

// pickMinimax is the Normal tier driver, also reused by Hard and as
// the Hell fallback with depth 3.
func pickMinimax(state GameState, ctx *searchContext, depth int, strategy Strategy) (SearchResult, error) {
	mover := state.ToMove
	candidates := orderedCandidates(state.Board, ctx, mover)
	if len(candidates) == 0 {
		return SearchResult{}, ErrNoCandidates
	}
	estimateSearchNodes(ctx.stats, len(candidates), depth)

	alpha := -winScore * 2
	beta := winScore * 2
	best := SearchResult{Score: alpha, Strategy: strategy}
	haveBest := false
	for _, cand := range candidates {
		if ctx.aborted() {
			if haveBest {
				break
			}
			return SearchResult{}, ErrSearchAborted
		}
		if ctx.expired() && haveBest {
			break
		}
		child := state.Clone()
		applySearchMove(&child, cand.move)
		ctx.countNode()

		var score int
		win := ctx.rules.CheckWin(child.Board, cand.move.X, cand.move.Y, mover)
		switch {
		case win.IsWin:
			score = winScore
		case ctx.rules.IsDraw(child.Board):
			score = 0
		default:
			score = minimaxValue(child, ctx, depth-1, mover, 1, alpha, beta)
		}
		if !haveBest || score > best.Score {
			best.Move = cand.move
			best.Score = score
			haveBest = true
		}
		if score > alpha {
			alpha = score
		}
		ctx.reportProgress()
	}
	if !haveBest {
		return SearchResult{}, ErrSearchAborted
	}
	return best, nil
}

// minimaxValue scores state for mover with alpha-beta pruning. The
// deadline and stop signal are polled at every candidate expansion, not
// just node entry, so a slow subtree cannot pin the worker past its
// budget.
func minimaxValue(state GameState, ctx *searchContext, depth int, mover PlayerColor, depthFromRoot int, alpha, beta int) int {
	if depth <= 0 {
		return evaluateLeaf(state, ctx, mover)
	}
	current := state.ToMove
	maximizing := current == mover
	candidates := orderedCandidates(state.Board, ctx, current)
	if len(candidates) == 0 {
		return evaluateLeaf(state, ctx, mover)
	}

	best := -winScore * 2
	if !maximizing {
		best = winScore * 2
	}
	evaluatedAny := false
	for _, cand := range candidates {
		if ctx.aborted() || ctx.expired() {
			if evaluatedAny {
				return best
			}
			return evaluateLeaf(state, ctx, mover)
		}
		child := state.Clone()
		applySearchMove(&child, cand.move)
		ctx.countNode()

		var score int
		win := ctx.rules.CheckWin(child.Board, cand.move.X, cand.move.Y, current)
		switch {
		case win.IsWin && maximizing:
			score = winScore
		case win.IsWin && !maximizing:
			score = -winScore
		case ctx.rules.IsDraw(child.Board):
			score = 0
		default:
			score = minimaxValue(child, ctx, depth-1, mover, depthFromRoot+1, alpha, beta)
		}
		evaluatedAny = true
		if maximizing {
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best = score
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			ctx.stats.Cutoffs++
			break
		}
	}
	return best
}

// evaluateLeaf sums AnalyzePattern totals over every occupied cell,
// signed by ownership relative to mover, plus a centrality bonus for
// the most recent move. Cached by zobrist hash, since leaves repeat
// heavily across sibling branches.
func evaluateLeaf(state GameState, ctx *searchContext, mover PlayerColor) int {
	hash := HashBoard(state.Board, state.ToMove) ^ uint64(mover+1)
	if ctx.evalCache != nil {
		if cached, ok := ctx.evalCache.get(hash); ok {
			return cached
		}
	}
	total := 0
	for _, move := range state.Board.Moves() {
		score := ctx.rules.AnalyzePattern(state.Board, move.X, move.Y, move.Player).Total
		if move.Player == mover {
			total += score
		} else {
			total -= score
		}
	}
	if last, ok := state.Board.LastMove(); ok {
		size := state.Board.Size()
		center := size / 2
		manhattan := absInt(last.X-center) + absInt(last.Y-center)
		bonus := (size - 1 - manhattan) * centralityWeight
		if last.Player == mover {
			total += bonus
		} else {
			total -= bonus
		}
	}
	if ctx.evalCache != nil {
		ctx.evalCache.put(hash, total)
	}
	return total
}

// applySearchMove advances a cloned simulation state by one ply. The
// move already passed candidate validation; a non-nil error here means
// the clone discipline is broken somewhere.
func applySearchMove(state *GameState, move Move) {
	if err := state.Board.Apply(move); err != nil {
		panic("search applied an invalid move: " + err.Error())
	}
	state.LastMove = move
	state.HasLastMove = true
	state.ToMove = otherPlayer(move.Player)
}

func estimateSearchNodes(stats *SearchStats, rootCandidates, depth int) {
	estimate := int64(rootCandidates)
	branch := int64(rootCandidates)
	if branch > 16 {
		// Ordering plus pruning visits a fraction of the full width
		// below the root; a full-width estimate would freeze the
		// progress bar near zero.
		branch = 16
	}
	for i := 1; i < depth; i++ {
		estimate *= branch
	}
	stats.EstimatedNodes = estimate
}

type evalCacheEntry struct {
	key   uint64
	value int
	ok    bool
}

// evalCache is a fixed-size direct-mapped cache for leaf evaluations,
// local to one search session.
type evalCache struct {
	entries []evalCacheEntry
	mask    uint64
}

func newEvalCache(size int) *evalCache {
	if size <= 0 {
		size = 1 << 14
	}
	// Round up to a power of two for mask indexing.
	n := 1
	for n < size {
		n <<= 1
	}
	return &evalCache{entries: make([]evalCacheEntry, n), mask: uint64(n - 1)}
}

func (c *evalCache) get(key uint64) (int, bool) {
	entry := c.entries[key&c.mask]
	if entry.ok && entry.key == key {
		return entry.value, true
	}
	return 0, false
}

func (c *evalCache) put(key uint64, value int) {
	c.entries[key&c.mask] = evalCacheEntry{key: key, value: value, ok: true}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
