package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/eiannone/keyboard"

	"github.com/roman-kulish/radio-scanner/internal/scanner"
)

type recordingSender struct {
	commands []scanner.Command
	err      error
}

func (s *recordingSender) Send(_ context.Context, cmd scanner.Command) error {
	s.commands = append(s.commands, cmd)
	return s.err
}

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name   string
		event  keyboard.KeyEvent
		want   scanner.CommandKind
		wantOK bool
	}{
		{"space", keyboard.KeyEvent{Key: keyboard.KeySpace}, scanner.CmdTogglePause, true},
		{"ctrl-c", keyboard.KeyEvent{Key: keyboard.KeyCtrlC}, scanner.CmdQuit, true},
		{"arrow up", keyboard.KeyEvent{Key: keyboard.KeyArrowUp}, scanner.CmdStepUp, true},
		{"arrow left", keyboard.KeyEvent{Key: keyboard.KeyArrowLeft}, scanner.CmdStepDown, true},
		{"q", keyboard.KeyEvent{Rune: 'q'}, scanner.CmdQuit, true},
		{"f", keyboard.KeyEvent{Rune: 'f'}, scanner.CmdForward, true},
		{"R", keyboard.KeyEvent{Rune: 'R'}, scanner.CmdReverse, true},
		{"d", keyboard.KeyEvent{Rune: 'd'}, scanner.CmdDeleteCurrent, true},
		{"s", keyboard.KeyEvent{Rune: 's'}, scanner.CmdStoreCurrent, true},
		{"n", keyboard.KeyEvent{Rune: 'n'}, scanner.CmdLoadDatabase, true},
		{"unmapped", keyboard.KeyEvent{Rune: 'x'}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyCommand(tt.event)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("keyCommand() = %s, %v, want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInput_CyclesDatabases(t *testing.T) {
	ctrl := &recordingSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	in := newInput(ctrl, []string{"AIR", "FREQMAN", "HAM"}, "FREQMAN", logger)

	for i := 0; i < 3; i++ {
		if quit := in.handle(context.Background(), scanner.CmdLoadDatabase); quit {
			t.Fatal("Loading a database must not quit")
		}
	}

	want := []string{"HAM", "AIR", "FREQMAN"}
	if len(ctrl.commands) != len(want) {
		t.Fatalf("Expected %d commands, got %d", len(want), len(ctrl.commands))
	}
	for i, name := range want {
		if ctrl.commands[i].Kind != scanner.CmdLoadDatabase || ctrl.commands[i].Database != name {
			t.Errorf("Command %d: expected load %s, got %+v", i, name, ctrl.commands[i])
		}
	}

	if quit := in.handle(context.Background(), scanner.CmdQuit); !quit {
		t.Error("Expected quit")
	}
}

func TestInput_NoDatabases(t *testing.T) {
	ctrl := &recordingSender{}
	in := newInput(ctrl, nil, "FREQMAN", slog.New(slog.NewTextHandler(io.Discard, nil)))

	in.handle(context.Background(), scanner.CmdLoadDatabase)
	if len(ctrl.commands) != 0 {
		t.Errorf("Expected no command, got %+v", ctrl.commands)
	}
}

func TestInput_Run(t *testing.T) {
	ctrl := &recordingSender{}
	in := newInput(ctrl, nil, "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	keys := make(chan keyboard.KeyEvent, 3)
	keys <- keyboard.KeyEvent{Key: keyboard.KeySpace}
	keys <- keyboard.KeyEvent{Rune: 'x'}
	keys <- keyboard.KeyEvent{Rune: 'q'}

	in.run(context.Background(), keys)

	if len(ctrl.commands) != 2 {
		t.Fatalf("Expected 2 commands, got %+v", ctrl.commands)
	}
	if ctrl.commands[0].Kind != scanner.CmdTogglePause || ctrl.commands[1].Kind != scanner.CmdQuit {
		t.Errorf("Unexpected commands %+v", ctrl.commands)
	}
}
