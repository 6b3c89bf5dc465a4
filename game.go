package main

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Game orchestrates the rule engine, the players, and the search
// sessions. The core stays pure; everything stateful lives here.
type Game struct {
	settings    GameSettings
	rules       Rules
	state       GameState
	history     MoveHistory
	blackPlayer IPlayer
	whitePlayer IPlayer
	turnStart   time.Time
	winReason   string
	log         logrus.FieldLogger
}

func NewGame(settings GameSettings, log logrus.FieldLogger) Game {
	g := Game{log: log}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.stopSearches()
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
	g.winReason = ""
	g.createPlayers()
	g.turnStart = time.Now()
}

func (g *Game) Start() {
	if g.state.Status == StatusNotStarted {
		g.state.Status = StatusRunning
		g.turnStart = time.Now()
	}
}

func (g *Game) Stop() {
	g.stopSearches()
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) Rules() Rules {
	return g.rules
}

func (g *Game) Settings() GameSettings {
	return g.settings
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) WinReason() string {
	return g.winReason
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

// TryApplyMove validates and commits one move for the side to move.
// Rejections come back as a message for the UI; the board is untouched
// on any failure path.
func (g *Game) TryApplyMove(move Move) (bool, string) {
	return g.applyMove(move, HistoryEntry{})
}

func (g *Game) applyMove(move Move, annotation HistoryEntry) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, "game not running"
	}
	verdict := g.rules.ValidateMove(g.state.Board, move.X, move.Y, g.state.ToMove)
	if !verdict.Ok {
		reason := verdict.Reason.String()
		for _, violation := range verdict.Violations {
			reason += " " + violation.String()
		}
		g.state.LastMessage = "Illegal move: " + reason
		return false, g.state.LastMessage
	}
	g.state.LastMessage = ""
	elapsedMs := float64(time.Since(g.turnStart).Milliseconds())
	move.Player = g.state.ToMove
	if err := g.state.Board.Apply(move); err != nil {
		// Validation passed, so this means live-state corruption.
		g.log.WithError(err).Error("apply after successful validation")
		return false, err.Error()
	}
	g.state.LastMove = move
	g.state.HasLastMove = true
	g.state.WinningLine = nil
	g.state.IsOverline = false

	annotation.Move = move
	annotation.Player = move.Player
	annotation.ElapsedMs = elapsedMs
	g.history.Push(annotation)
	g.logMovePlayed(move, elapsedMs, annotation.IsAi)

	win := g.rules.CheckWin(g.state.Board, move.X, move.Y, move.Player)
	switch {
	case win.IsWin:
		g.state.WinningLine = win.WinLine
		g.winReason = "five_in_a_row"
		if move.Player == PlayerBlack {
			g.state.Status = StatusBlackWon
		} else {
			g.state.Status = StatusWhiteWon
		}
		g.log.WithFields(logrus.Fields{"winner": move.Player.String(), "reason": g.winReason}).Info("game over")
	case win.IsOverline:
		// Validation rejects overlines before they are applied; if one
		// still lands here the integrity check below will flag it.
		g.state.IsOverline = true
		g.state.ToMove = otherPlayer(g.state.ToMove)
	case g.rules.IsDraw(g.state.Board):
		g.state.Status = StatusDraw
		g.winReason = "draw"
		g.log.Info("game drawn")
	default:
		g.state.ToMove = otherPlayer(g.state.ToMove)
	}
	if err := g.state.Board.CheckIntegrity(); err != nil {
		g.log.WithError(err).Error("board integrity violated")
	}
	g.turnStart = time.Now()
	return true, ""
}

// UndoLast rolls back the latest committed move. Any in-flight search
// is aborted first so no session ever observes a board it did not
// start from.
func (g *Game) UndoLast() (Move, error) {
	g.stopSearches()
	undone, err := g.state.Board.Undo()
	if err != nil {
		return Move{}, err
	}
	g.history.Pop()
	g.state.ToMove = undone.Player
	g.state.WinningLine = nil
	g.state.IsOverline = false
	g.winReason = ""
	if g.state.Status == StatusBlackWon || g.state.Status == StatusWhiteWon || g.state.Status == StatusDraw {
		g.state.Status = StatusRunning
	}
	if last, ok := g.state.Board.LastMove(); ok {
		g.state.LastMove = last
		g.state.HasLastMove = true
	} else {
		g.state.LastMove = Move{X: -1, Y: -1}
		g.state.HasLastMove = false
	}
	g.turnStart = time.Now()
	return undone, nil
}

// UndoHumanTurn undoes back to the human's previous decision point:
// one move, plus one more when the undone move was an AI reply.
func (g *Game) UndoHumanTurn() (int, error) {
	undone, err := g.UndoLast()
	if err != nil {
		return 0, err
	}
	count := 1
	if player := g.playerForColor(undone.Player); player != nil && !player.IsHuman() {
		if _, err := g.UndoLast(); err == nil {
			count++
		}
	}
	return count, nil
}

// Hint picks the strongest available cell for the side to move by its
// own pattern score. Cheap on purpose: it is a nudge, not a search.
func (g *Game) Hint() (Move, bool) {
	candidates := g.rules.AvailableMoves(g.state.Board, g.state.ToMove, candidateRange)
	if len(candidates) == 0 {
		return Move{}, false
	}
	best := candidates[0]
	bestScore := g.rules.EvaluatePosition(g.state.Board, best.X, best.Y, g.state.ToMove)
	for _, cand := range candidates[1:] {
		score := g.rules.EvaluatePosition(g.state.Board, cand.X, cand.Y, g.state.ToMove)
		if score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return best, true
}

// Tick advances the game loop one step and reports whether a move was
// committed. AI turns run asynchronously: the first tick of a turn
// starts the session, later ticks harvest the result.
func (g *Game) Tick(progressSink func(SearchProgress)) bool {
	if g.state.Status != StatusRunning {
		return false
	}
	player := g.currentPlayer()
	if player == nil {
		return false
	}
	if player.IsHuman() {
		human, ok := player.(*HumanPlayer)
		if ok && human.HasPendingMove() {
			applied, _ := g.TryApplyMove(human.TakePendingMove())
			return applied
		}
		return false
	}
	ai, ok := player.(*AIPlayer)
	if !ok {
		return false
	}
	if ai.HasMoveReady() {
		result, ok := ai.TakeMove()
		if !ok {
			return false
		}
		applied, _ := g.applyMove(result.Move, HistoryEntry{
			IsAi:     true,
			Strategy: result.Strategy,
			Nodes:    result.Nodes,
		})
		return applied
	}
	if !ai.IsThinking() {
		ai.StartThinking(g.state.Clone(), g.rules, progressSink)
	}
	return false
}

func (g *Game) SubmitHumanMove(move Move) bool {
	player := g.currentPlayer()
	if player == nil || !player.IsHuman() {
		return false
	}
	human, ok := player.(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) AiThinking() bool {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok && ai.IsThinking() {
		return true
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok && ai.IsThinking() {
		return true
	}
	return false
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForColor(g.state.ToMove)
}

func (g *Game) playerForColor(color PlayerColor) IPlayer {
	if color == PlayerBlack {
		return g.blackPlayer
	}
	return g.whitePlayer
}

func (g *Game) createPlayers() {
	if g.settings.BlackType == PlayerHuman {
		g.blackPlayer = NewHumanPlayer()
	} else {
		g.blackPlayer = NewAIPlayer(g.settings.BlackDifficulty, g.log)
	}
	if g.settings.WhiteType == PlayerHuman {
		g.whitePlayer = NewHumanPlayer()
	} else {
		g.whitePlayer = NewAIPlayer(g.settings.WhiteDifficulty, g.log)
	}
}

func (g *Game) stopSearches() {
	if ai, ok := g.blackPlayer.(*AIPlayer); ok {
		ai.StopThinking()
	}
	if ai, ok := g.whitePlayer.(*AIPlayer); ok {
		ai.StopThinking()
	}
}

func (g *Game) logMovePlayed(move Move, elapsedMs float64, isAi bool) {
	g.log.WithFields(logrus.Fields{
		"player":     move.Player.String(),
		"x":          move.X,
		"y":          move.Y,
		"move":       g.state.Board.MoveCount(),
		"elapsed_ms": elapsedMs,
		"ai":         isAi,
	}).Info("move played")
}
