package main

import "testing"

func TestControllerRejectsMoveOnAiTurn(t *testing.T) {
	settings := DefaultGameSettings()
	settings.BlackType = PlayerAI
	settings.WhiteType = PlayerHuman
	controller := NewGameController(settings, testLogger())
	controller.StartGame(settings)

	if applied, _ := controller.ApplyHumanMove(Move{X: 7, Y: 7}); applied {
		t.Fatalf("human move must not apply while the ai is to move")
	}
}

func TestControllerUpdateSettingsWithoutResetKeepsTheBoard(t *testing.T) {
	settings := humanVsHumanSettings()
	controller := NewGameController(settings, testLogger())
	controller.StartGame(settings)
	if applied, msg := controller.ApplyHumanMove(Move{X: 7, Y: 7}); !applied {
		t.Fatalf("move rejected: %s", msg)
	}

	update := settings
	update.WhiteDifficulty = DifficultyHell
	controller.UpdateSettings(update, false)
	if controller.State().Board.MoveCount() != 1 {
		t.Fatalf("settings update without reset must keep the position")
	}
	if controller.Settings().WhiteDifficulty != DifficultyHell {
		t.Fatalf("difficulty update lost")
	}
}

func TestControllerUpdateSettingsWithResetClears(t *testing.T) {
	settings := humanVsHumanSettings()
	controller := NewGameController(settings, testLogger())
	controller.StartGame(settings)
	controller.ApplyHumanMove(Move{X: 7, Y: 7})

	controller.UpdateSettings(settings, true)
	if controller.State().Board.MoveCount() != 0 {
		t.Fatalf("reset update must clear the position")
	}
}

func TestControllerUndoUndoesOneHumanMove(t *testing.T) {
	settings := humanVsHumanSettings()
	controller := NewGameController(settings, testLogger())
	controller.StartGame(settings)
	controller.ApplyHumanMove(Move{X: 7, Y: 7})
	controller.ApplyHumanMove(Move{X: 8, Y: 7})

	undone, err := controller.Undo()
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if undone != 1 {
		t.Fatalf("human vs human undo rolls back one move, got %d", undone)
	}
	if controller.State().Board.MoveCount() != 1 {
		t.Fatalf("board not rewound")
	}
}

func TestControllerLatestHistoryEntry(t *testing.T) {
	settings := humanVsHumanSettings()
	controller := NewGameController(settings, testLogger())
	controller.StartGame(settings)

	if _, ok := controller.LatestHistoryEntry(); ok {
		t.Fatalf("no entry expected before the first move")
	}
	controller.ApplyHumanMove(Move{X: 7, Y: 7})
	entry, ok := controller.LatestHistoryEntry()
	if !ok || entry.Move.X != 7 || entry.Move.Y != 7 || entry.Player != PlayerBlack {
		t.Fatalf("unexpected latest entry: %+v ok=%t", entry, ok)
	}
}
