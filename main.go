package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type StatusResponse struct {
	Settings        GameSettingsDTO   `json:"settings"`
	Config          Config            `json:"config"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	BoardSize       int               `json:"board_size"`
	Status          string            `json:"status"`
	History         []historyEntryDTO `json:"history"`
	WinReason       string            `json:"win_reason"`
	WinningLine     []Move            `json:"winning_line"`
	AiThinking      bool              `json:"ai_thinking"`
	LastMessage     string            `json:"last_message"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type GameSettingsDTO struct {
	Mode            string `json:"mode"`
	HumanPlayer     int    `json:"human_player"`
	BoardSize       int    `json:"board_size"`
	ForbiddenRules  bool   `json:"forbidden_rules"`
	BlackDifficulty string `json:"black_difficulty"`
	WhiteDifficulty string `json:"white_difficulty"`
}

type apiMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type historyEntryDTO struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Strategy  string  `json:"strategy,omitempty"`
	Nodes     int64   `json:"nodes,omitempty"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	History         []historyEntryDTO `json:"history"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	BoardSize       int               `json:"board_size"`
	WinReason       string            `json:"win_reason"`
	WinningLine     []Move            `json:"winning_line"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type settingsPayload struct {
	Settings GameSettingsDTO `json:"settings"`
	Config   Config          `json:"config"`
}

type hintResponse struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Found bool `json:"found"`
}

// replayRecorder saves each finished game exactly once. Reset on every
// new game so the next terminal position gets its own row.
type replayRecorder struct {
	mu    sync.Mutex
	store *ReplayStore
	saved bool
	log   logrus.FieldLogger
}

func (r *replayRecorder) Reset() {
	r.mu.Lock()
	r.saved = false
	r.mu.Unlock()
}

func (r *replayRecorder) MaybeSave(controller *GameController) {
	if r.store == nil {
		return
	}
	state := controller.State()
	switch state.Status {
	case StatusBlackWon, StatusWhiteWon, StatusDraw:
	default:
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved {
		return
	}
	history := controller.History()
	if history.Size() == 0 {
		return
	}
	if _, err := r.store.SaveReplay(controller.Settings(), state, history); err != nil {
		r.log.WithError(err).Error("could not save replay")
		return
	}
	r.saved = true
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := LoadConfig(log)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}
	configStore := NewConfigStore(cfg)

	controller := NewGameController(cfg.GameSettings(), log)
	hub := NewHub()
	searchHub := NewSearchFeedHub()

	var replayStore *ReplayStore
	if store, err := NewReplayStore(cfg.ReplayDBPath, log); err != nil {
		log.WithError(err).Warn("replay store disabled")
	} else {
		replayStore = store
		defer replayStore.Close()
	}
	recorder := &replayRecorder{store: replayStore, log: log}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx.Done())
	go searchHub.Run(ctx.Done())

	// The thinking side is sampled on the tick before the session
	// starts; progress callbacks arrive from the worker goroutine.
	var thinkingFor atomic.Int32
	progressSink := func(progress SearchProgress) {
		if !searchHub.HasClients() {
			return
		}
		searchHub.Publish(searchFeedPayload{
			Percent:  progress.Percent,
			Nodes:    progress.Nodes,
			Player:   int(thinkingFor.Load()),
			Thinking: true,
		})
	}

	go func() {
		ticker := time.NewTicker(time.Duration(configStore.Get().TickIntervalMs) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				thinkingFor.Store(int32(playerToInt(controller.State().ToMove)))
				if !controller.Tick(progressSink) {
					continue
				}
				if entry, ok := controller.LatestHistoryEntry(); ok {
					hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}
				}
				hub.broadcastStatus <- controllerStatus(controller, configStore)
				if searchHub.HasClients() {
					searchHub.Publish(searchFeedPayload{Percent: 100, Player: int(thinkingFor.Load()), Thinking: false})
				}
				recorder.MaybeSave(controller)
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller, configStore))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings GameSettingsDTO `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings := settingsFromDTO(payload.Settings, configStore.Get().GameSettings(), log)
		controller.StartGame(settings)
		recorder.Reset()
		writeJSON(w, http.StatusOK, controllerStatus(controller, configStore))
		hub.broadcastReset <- resetFromController(controller)
	})

	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		settings := controller.Settings()
		controller.Reset(settings)
		recorder.Reset()
		writeJSON(w, http.StatusOK, controllerStatus(controller, configStore))
		hub.broadcastReset <- resetFromController(controller)
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettingsDTO `json:"settings"`
			Config   *Config          `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.Config != nil {
			configStore.Update(*payload.Config)
		}
		if payload.Settings != nil {
			settings := settingsFromDTO(*payload.Settings, controller.Settings(), log)
			controller.UpdateSettings(settings, false)
		}
		hub.broadcastSettings <- settingsPayload{
			Settings: controllerSettingsDTO(controller.Settings()),
			Config:   configStore.Get(),
		}
		writeJSON(w, http.StatusOK, controllerStatus(controller, configStore))
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		applied, errMsg := controller.ApplyHumanMove(Move{X: payload.X, Y: payload.Y})
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		if entry, ok := controller.LatestHistoryEntry(); ok {
			hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}
		}
		hub.broadcastStatus <- controllerStatus(controller, configStore)
		recorder.MaybeSave(controller)
		writeJSON(w, http.StatusOK, controllerStatus(controller, configStore))
	})

	r.Post("/api/undo", func(w http.ResponseWriter, r *http.Request) {
		undone, err := controller.Undo()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		hub.broadcastReset <- resetFromController(controller)
		writeJSON(w, http.StatusOK, map[string]any{"undone": undone})
	})

	r.Get("/api/hint", func(w http.ResponseWriter, r *http.Request) {
		move, found := controller.Hint()
		writeJSON(w, http.StatusOK, hintResponse{X: move.X, Y: move.Y, Found: found})
	})

	r.Get("/api/replays", func(w http.ResponseWriter, r *http.Request) {
		if replayStore == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "replay store unavailable"})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		summaries, err := replayStore.ListReplays(limit)
		if err != nil {
			log.WithError(err).Error("list replays")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list replays"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"replays": summaries})
	})

	r.Get("/api/replays/{id}", func(w http.ResponseWriter, r *http.Request) {
		if replayStore == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "replay store unavailable"})
			return
		}
		replay, err := replayStore.LoadReplay(chi.URLParam(r, "id"))
		if errors.Is(err, ErrReplayNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "replay not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("load replay")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load replay"})
			return
		}
		writeJSON(w, http.StatusOK, replay)
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, configStore, w, r)
	})
	r.Get("/ws/search", func(w http.ResponseWriter, r *http.Request) {
		serveSearchFeedWS(searchHub, w, r)
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.WithField("addr", cfg.Addr).Info("backend listening")
	select {
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			log.WithError(err).Error("server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.WithError(closeErr).Error("forced close failed")
		}
	}
	cancel()
	controller.StopGame()
}

func serveWS(hub *Hub, controller *GameController, configStore *ConfigStore, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller, configStore))})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller, configStore))})
		}
	}
}

func controllerStatus(controller *GameController, configStore *ConfigStore) StatusResponse {
	state := controller.State()
	return StatusResponse{
		Settings:        controllerSettingsDTO(controller.Settings()),
		Config:          configStore.Get(),
		NextPlayer:      playerToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		BoardSize:       state.Board.Size(),
		Status:          state.Status.String(),
		History:         historyToDTO(controller.History()),
		WinReason:       controller.WinReason(),
		WinningLine:     append([]Move(nil), state.WinningLine...),
		AiThinking:      controller.AiThinking(),
		LastMessage:     state.LastMessage,
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func settingsFromDTO(dto GameSettingsDTO, base GameSettings, log logrus.FieldLogger) GameSettings {
	settings := base
	switch dto.Mode {
	case "ai_vs_ai":
		settings.BlackType = PlayerAI
		settings.WhiteType = PlayerAI
	case "human_vs_human":
		settings.BlackType = PlayerHuman
		settings.WhiteType = PlayerHuman
	case "ai_vs_human":
		if dto.HumanPlayer == 2 {
			settings.BlackType = PlayerAI
			settings.WhiteType = PlayerHuman
		} else {
			settings.BlackType = PlayerHuman
			settings.WhiteType = PlayerAI
		}
	}
	if dto.BoardSize >= 5 {
		settings.BoardSize = dto.BoardSize
	}
	settings.ForbiddenRules = dto.ForbiddenRules
	if dto.BlackDifficulty != "" {
		if difficulty, ok := ParseDifficulty(dto.BlackDifficulty); ok {
			settings.BlackDifficulty = difficulty
		} else {
			log.WithField("value", dto.BlackDifficulty).Warn("unknown black difficulty")
		}
	}
	if dto.WhiteDifficulty != "" {
		if difficulty, ok := ParseDifficulty(dto.WhiteDifficulty); ok {
			settings.WhiteDifficulty = difficulty
		} else {
			log.WithField("value", dto.WhiteDifficulty).Warn("unknown white difficulty")
		}
	}
	return settings
}

func controllerSettingsDTO(settings GameSettings) GameSettingsDTO {
	mode := "ai_vs_human"
	if settings.BlackType == PlayerAI && settings.WhiteType == PlayerAI {
		mode = "ai_vs_ai"
	} else if settings.BlackType == PlayerHuman && settings.WhiteType == PlayerHuman {
		mode = "human_vs_human"
	}
	humanPlayer := 0
	if settings.BlackType == PlayerHuman {
		humanPlayer = 1
	} else if settings.WhiteType == PlayerHuman {
		humanPlayer = 2
	}
	return GameSettingsDTO{
		Mode:            mode,
		HumanPlayer:     humanPlayer,
		BoardSize:       settings.BoardSize,
		ForbiddenRules:  settings.ForbiddenRules,
		BlackDifficulty: settings.BlackDifficulty.String(),
		WhiteDifficulty: settings.WhiteDifficulty.String(),
	}
}

func playerToInt(player PlayerColor) int {
	if player == PlayerBlack {
		return 1
	}
	return 2
}

func intToPlayer(value int) PlayerColor {
	if value == 2 {
		return PlayerWhite
	}
	return PlayerBlack
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusBlackWon:
		return 1
	case StatusWhiteWon:
		return 2
	default:
		return 0
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	dto := historyEntryDTO{
		X:         entry.Move.X,
		Y:         entry.Move.Y,
		Player:    playerToInt(entry.Player),
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
		Nodes:     entry.Nodes,
	}
	if entry.IsAi {
		dto.Strategy = entry.Strategy.String()
	}
	return dto
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	return resetPayload{
		History:         historyToDTO(controller.History()),
		NextPlayer:      playerToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          state.Status.String(),
		BoardSize:       state.Board.Size(),
		WinReason:       controller.WinReason(),
		WinningLine:     append([]Move(nil), state.WinningLine...),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
