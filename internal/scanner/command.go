package scanner

import (
	"github.com/roman-kulish/radio-scanner/internal/freqman"
)

// CommandKind selects the action of a Command.
type CommandKind uint8

const (
	CmdTogglePause CommandKind = iota + 1
	CmdForward
	CmdReverse
	CmdStepUp
	CmdStepDown
	CmdDeleteCurrent
	CmdStoreCurrent
	CmdLoadDatabase
	CmdScanRange
	CmdQuit
)

func (k CommandKind) String() string {
	switch k {
	case CmdTogglePause:
		return "toggle-pause"
	case CmdForward:
		return "forward"
	case CmdReverse:
		return "reverse"
	case CmdStepUp:
		return "step-up"
	case CmdStepDown:
		return "step-down"
	case CmdDeleteCurrent:
		return "delete-current"
	case CmdStoreCurrent:
		return "store-current"
	case CmdLoadDatabase:
		return "load-database"
	case CmdScanRange:
		return "scan-range"
	case CmdQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is a user request handled by the controller loop.
type Command struct {
	Kind CommandKind

	Database string // CmdLoadDatabase

	Min  freqman.Frequency // CmdScanRange
	Max  freqman.Frequency
	Step freqman.Frequency

	done chan error
}

// LoadDatabaseCommand returns a command that loads the named database and
// scans it.
func LoadDatabaseCommand(name string) Command {
	return Command{Kind: CmdLoadDatabase, Database: name}
}

// ScanRangeCommand returns a command that scans low..high in steps of step.
// A zero step uses the step from the settings.
func ScanRangeCommand(low, high, step freqman.Frequency) Command {
	return Command{Kind: CmdScanRange, Min: low, Max: high, Step: step}
}
