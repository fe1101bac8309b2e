package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/eiannone/keyboard"

	"github.com/roman-kulish/radio-scanner/internal/scanner"
)

func openKeyboard() (<-chan keyboard.KeyEvent, error) {
	return keyboard.GetKeys(10)
}

func closeKeyboard() {
	_ = keyboard.Close()
}

// keyCommand maps a key press to a command. 'n' cycles to the next database,
// the caller fills in its name.
func keyCommand(ev keyboard.KeyEvent) (scanner.CommandKind, bool) {
	switch ev.Key {
	case keyboard.KeyCtrlC, keyboard.KeyEsc:
		return scanner.CmdQuit, true
	case keyboard.KeySpace:
		return scanner.CmdTogglePause, true
	case keyboard.KeyArrowUp, keyboard.KeyArrowRight:
		return scanner.CmdStepUp, true
	case keyboard.KeyArrowDown, keyboard.KeyArrowLeft:
		return scanner.CmdStepDown, true
	}

	switch ev.Rune {
	case 'q', 'Q':
		return scanner.CmdQuit, true
	case 'p', 'P':
		return scanner.CmdTogglePause, true
	case 'f', 'F':
		return scanner.CmdForward, true
	case 'r', 'R':
		return scanner.CmdReverse, true
	case '+':
		return scanner.CmdStepUp, true
	case '-':
		return scanner.CmdStepDown, true
	case 'd', 'D':
		return scanner.CmdDeleteCurrent, true
	case 's', 'S':
		return scanner.CmdStoreCurrent, true
	case 'n', 'N':
		return scanner.CmdLoadDatabase, true
	}

	return 0, false
}

type sender interface {
	Send(ctx context.Context, cmd scanner.Command) error
}

// input turns key presses into controller commands.
type input struct {
	ctrl      sender
	databases []string
	current   int
	logger    *slog.Logger
}

func newInput(ctrl sender, databases []string, selected string, logger *slog.Logger) *input {
	return &input{
		ctrl:      ctrl,
		databases: databases,
		current:   slices.Index(databases, selected),
		logger:    logger,
	}
}

func (in *input) run(ctx context.Context, keys <-chan keyboard.KeyEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-keys:
			if !ok {
				return
			}
			if ev.Err != nil {
				in.logger.Error(fmt.Sprintf("error reading keyboard: %s", ev.Err.Error()))
				continue
			}

			kind, ok := keyCommand(ev)
			if !ok {
				continue
			}
			if quit := in.handle(ctx, kind); quit {
				return
			}
		}
	}
}

func (in *input) handle(ctx context.Context, kind scanner.CommandKind) (quit bool) {
	cmd := scanner.Command{Kind: kind}
	if kind == scanner.CmdLoadDatabase {
		if len(in.databases) == 0 {
			in.logger.Warn("no databases to switch to")
			return false
		}
		in.current = (in.current + 1) % len(in.databases)
		cmd = scanner.LoadDatabaseCommand(in.databases[in.current])
	}

	err := in.ctrl.Send(ctx, cmd)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return true
	case errors.Is(err, scanner.ErrDuplicate):
		in.logger.Info("frequency already stored")
	default:
		in.logger.Warn(fmt.Sprintf("%s failed: %s", kind, err.Error()))
	}

	return kind == scanner.CmdQuit
}
