package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var ErrReplayNotFound = errors.New("replay not found")

// ReplayStore persists finished games so they can be reviewed later.
// One row per game plus one row per move, keyed by a uuid.
type ReplayStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

type ReplaySummary struct {
	ID         string    `json:"id"`
	FinishedAt time.Time `json:"finished_at"`
	BoardSize  int       `json:"board_size"`
	Winner     string    `json:"winner"`
	WinReason  string    `json:"win_reason"`
	MoveCount  int       `json:"move_count"`
}

type ReplayMove struct {
	Index     int     `json:"index"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Strategy  string  `json:"strategy,omitempty"`
	Nodes     int64   `json:"nodes,omitempty"`
}

type Replay struct {
	ReplaySummary
	ForbiddenRules bool         `json:"forbidden_rules"`
	Moves          []ReplayMove `json:"moves"`
}

const replaySchema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	finished_at TIMESTAMP NOT NULL,
	board_size INTEGER NOT NULL,
	forbidden_rules INTEGER NOT NULL,
	winner TEXT NOT NULL,
	win_reason TEXT NOT NULL,
	move_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS moves (
	game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	player INTEGER NOT NULL,
	elapsed_ms REAL NOT NULL,
	is_ai INTEGER NOT NULL,
	strategy TEXT NOT NULL DEFAULT '',
	nodes INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (game_id, idx)
);
`

func NewReplayStore(path string, log logrus.FieldLogger) (*ReplayStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open replay db: %w", err)
	}
	// modernc sqlite serializes internally but a single writer keeps
	// "database is locked" errors out of the picture.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(replaySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init replay schema: %w", err)
	}
	return &ReplayStore{db: db, log: log}, nil
}

func (s *ReplayStore) Close() error {
	return s.db.Close()
}

func (s *ReplayStore) SaveReplay(settings GameSettings, state GameState, history MoveHistory) (string, error) {
	id := uuid.NewString()
	entries := history.All()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin replay tx: %w", err)
	}
	defer tx.Rollback()

	winReason := ""
	switch state.Status {
	case StatusBlackWon, StatusWhiteWon:
		winReason = "five_in_a_row"
	case StatusDraw:
		winReason = "draw"
	}
	forbidden := 0
	if settings.ForbiddenRules {
		forbidden = 1
	}
	_, err = tx.Exec(
		`INSERT INTO games (id, finished_at, board_size, forbidden_rules, winner, win_reason, move_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), settings.BoardSize, forbidden, state.Status.String(), winReason, len(entries),
	)
	if err != nil {
		return "", fmt.Errorf("insert game: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO moves (game_id, idx, x, y, player, elapsed_ms, is_ai, strategy, nodes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("prepare moves: %w", err)
	}
	defer stmt.Close()
	for i, entry := range entries {
		isAi := 0
		strategy := ""
		if entry.IsAi {
			isAi = 1
			strategy = entry.Strategy.String()
		}
		if _, err := stmt.Exec(id, i, entry.Move.X, entry.Move.Y, playerToInt(entry.Player), entry.ElapsedMs, isAi, strategy, entry.Nodes); err != nil {
			return "", fmt.Errorf("insert move %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit replay: %w", err)
	}
	s.log.WithFields(logrus.Fields{"replay": id, "moves": len(entries)}).Info("replay saved")
	return id, nil
}

func (s *ReplayStore) ListReplays(limit int) ([]ReplaySummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, finished_at, board_size, winner, win_reason, move_count
		 FROM games ORDER BY finished_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	defer rows.Close()

	summaries := []ReplaySummary{}
	for rows.Next() {
		var summary ReplaySummary
		if err := rows.Scan(&summary.ID, &summary.FinishedAt, &summary.BoardSize, &summary.Winner, &summary.WinReason, &summary.MoveCount); err != nil {
			return nil, fmt.Errorf("scan replay: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *ReplayStore) LoadReplay(id string) (Replay, error) {
	var replay Replay
	var forbidden int
	err := s.db.QueryRow(
		`SELECT id, finished_at, board_size, forbidden_rules, winner, win_reason, move_count
		 FROM games WHERE id = ?`, id,
	).Scan(&replay.ID, &replay.FinishedAt, &replay.BoardSize, &forbidden, &replay.Winner, &replay.WinReason, &replay.MoveCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Replay{}, ErrReplayNotFound
	}
	if err != nil {
		return Replay{}, fmt.Errorf("load replay: %w", err)
	}
	replay.ForbiddenRules = forbidden != 0

	rows, err := s.db.Query(
		`SELECT idx, x, y, player, elapsed_ms, is_ai, strategy, nodes
		 FROM moves WHERE game_id = ? ORDER BY idx`, id,
	)
	if err != nil {
		return Replay{}, fmt.Errorf("load replay moves: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var move ReplayMove
		var isAi int
		if err := rows.Scan(&move.Index, &move.X, &move.Y, &move.Player, &move.ElapsedMs, &isAi, &move.Strategy, &move.Nodes); err != nil {
			return Replay{}, fmt.Errorf("scan replay move: %w", err)
		}
		move.IsAi = isAi != 0
		replay.Moves = append(replay.Moves, move)
	}
	return replay, rows.Err()
}

// ReplayBoard rebuilds the final position of a stored game. Moves are
// replayed through the normal board path so the history invariants
// hold on the reconstruction too.
func (r Replay) ReplayBoard() (Board, error) {
	board := NewBoard(r.BoardSize)
	for _, stored := range r.Moves {
		move := NewMove(stored.X, stored.Y, intToPlayer(stored.Player))
		if !move.IsValid(r.BoardSize) {
			return Board{}, fmt.Errorf("replay move %d at (%d,%d) is out of bounds", stored.Index, stored.X, stored.Y)
		}
		if err := board.Apply(move); err != nil {
			return Board{}, fmt.Errorf("replay move %d: %w", stored.Index, err)
		}
	}
	return board, nil
}
