package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type SearchState int32

const (
	SearchIdle SearchState = iota
	SearchThinking
	SearchMoveProduced
	SearchAborted
	SearchFailed
)

func (s SearchState) String() string {
	switch s {
	case SearchThinking:
		return "thinking"
	case SearchMoveProduced:
		return "move_produced"
	case SearchAborted:
		return "aborted"
	case SearchFailed:
		return "failed"
	default:
		return "idle"
	}
}

// AIPlayer runs one thinking session at a time. The session lives on a
// worker goroutine so the orchestrator stays responsive; the session
// state machine is Idle -> Thinking -> {MoveProduced | Aborted |
// Failed}, and only the session itself transitions out of Thinking.
type AIPlayer struct {
	difficulty Difficulty
	log        logrus.FieldLogger

	state      atomic.Int32
	stopSignal atomic.Bool
	moveReady  atomic.Bool
	moveMutex  sync.Mutex
	readyMove  SearchResult
	readyErr   error
	workerDone chan struct{}
}

func NewAIPlayer(difficulty Difficulty, log logrus.FieldLogger) *AIPlayer {
	player := &AIPlayer{difficulty: difficulty, log: log}
	player.state.Store(int32(SearchIdle))
	return player
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) Difficulty() Difficulty {
	return a.difficulty
}

func (a *AIPlayer) State() SearchState {
	return SearchState(a.state.Load())
}

func (a *AIPlayer) IsThinking() bool {
	return a.State() == SearchThinking
}

// CalculateBestMove runs a full search synchronously. It errors with
// ErrSearchBusy if a session is already thinking, ErrSearchAborted on
// cancellation (via StopThinking or ctx), and ErrNoCandidates or an
// internal failure otherwise. Cancellation is a normal terminal state,
// not a fault to surface to the user.
func (a *AIPlayer) CalculateBestMove(ctx context.Context, state GameState, rules Rules, onProgress func(SearchProgress)) (SearchResult, error) {
	if !a.beginSession() {
		return SearchResult{}, ErrSearchBusy
	}
	result, err := a.runSearch(ctx, state, rules, onProgress)
	a.finishSession(err)
	return result, err
}

// StartThinking launches the search on a worker goroutine for the
// Tick loop: poll HasMoveReady, then TakeMove.
func (a *AIPlayer) StartThinking(state GameState, rules Rules, onProgress func(SearchProgress)) {
	if !a.beginSession() {
		return
	}
	a.moveReady.Store(false)
	stateCopy := state.Clone()
	done := make(chan struct{})
	a.workerDone = done
	go func() {
		defer close(done)
		result, err := a.runSearch(context.Background(), stateCopy, rules, onProgress)
		a.moveMutex.Lock()
		a.readyMove = result
		a.readyErr = err
		a.moveMutex.Unlock()
		a.finishSession(err)
		a.moveReady.Store(err == nil)
	}()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() (SearchResult, bool) {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	if !a.moveReady.Load() {
		return SearchResult{}, false
	}
	a.moveReady.Store(false)
	return a.readyMove, a.readyErr == nil
}

// StopThinking aborts the in-flight session. The state flips to
// Aborted before this returns and the worker is drained, so no timer
// or goroutine outlives the call. A session that already finished is
// discarded too: its move was computed for a board the caller is about
// to change, so it must never be harvested after a stop. Safe to call
// repeatedly or with no session running.
func (a *AIPlayer) StopThinking() {
	a.stopSignal.Store(true)
	a.state.CompareAndSwap(int32(SearchThinking), int32(SearchAborted))
	if a.workerDone != nil {
		<-a.workerDone
		a.workerDone = nil
	}
	a.moveReady.Store(false)
}

func (a *AIPlayer) beginSession() bool {
	for {
		current := a.state.Load()
		if SearchState(current) == SearchThinking {
			return false
		}
		if a.state.CompareAndSwap(current, int32(SearchThinking)) {
			a.stopSignal.Store(false)
			return true
		}
	}
}

func (a *AIPlayer) finishSession(err error) {
	next := SearchMoveProduced
	switch {
	case err == ErrSearchAborted:
		next = SearchAborted
	case err != nil:
		next = SearchFailed
	}
	a.state.CompareAndSwap(int32(SearchThinking), int32(next))
}

func (a *AIPlayer) runSearch(ctx context.Context, state GameState, rules Rules, onProgress func(SearchProgress)) (SearchResult, error) {
	// The search only ever works on its own copy. Candidate scoring
	// tries cells with transient writes, and those must never land on
	// a board the caller shares.
	state = state.Clone()
	stats := &SearchStats{Start: time.Now()}
	sctx := &searchContext{
		rules:     rules,
		stats:     stats,
		deadline:  time.Now().Add(a.difficulty.TimeBudget()),
		evalCache: newEvalCache(0),
		shouldStop: func() bool {
			return a.stopSignal.Load() || ctx.Err() != nil
		},
		onProgress: onProgress,
	}
	result, err := searchBestMove(state, sctx, a.difficulty)
	if err == nil && a.stopSignal.Load() {
		// The stop landed between the last poll and completion;
		// aborted sessions never publish a move.
		return SearchResult{}, ErrSearchAborted
	}
	if a.log != nil {
		entry := a.log.WithFields(logrus.Fields{
			"difficulty": a.difficulty.String(),
			"nodes":      stats.Nodes,
			"cutoffs":    stats.Cutoffs,
			"elapsed_ms": time.Since(stats.Start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Debug("search finished without a move")
		} else {
			entry.WithFields(logrus.Fields{
				"strategy": result.Strategy.String(),
				"x":        result.Move.X,
				"y":        result.Move.Y,
				"score":    result.Score,
			}).Debug("search finished")
		}
	}
	return result, err
}
