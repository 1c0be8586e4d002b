// Package voice turns spoken phrases into drawing commands.
//
// Recognition and synthesis are external services reached through the
// plugin protocol; this package owns the fixed phrase table, the error
// taxonomy for failed listens, and a background listener that hands results
// back to the frame loop through a single-slot channel.
package voice

import "strings"

// Command is a discrete action the drawing session can execute.
type Command int

const (
	CommandNone Command = iota
	CommandClear
	CommandUndo
	CommandRedo
	CommandSave
	CommandExit
)

var commandNames = [...]string{
	CommandNone:  "none",
	CommandClear: "clear",
	CommandUndo:  "undo",
	CommandRedo:  "redo",
	CommandSave:  "save",
	CommandExit:  "exit",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c]
}

// phrases is the spoken vocabulary. Redo has no phrase; it is reachable from
// the keyboard and the tray only.
var phrases = map[string]Command{
	"clear canvas": CommandClear,
	"undo":         CommandUndo,
	"save drawing": CommandSave,
	"exit":         CommandExit,
}

// Normalize lowercases and trims a transcription.
func Normalize(phrase string) string {
	return strings.ToLower(strings.TrimSpace(phrase))
}

// ParseCommand looks up phrase by exact match after normalization.
// Unknown phrases return CommandNone and false.
func ParseCommand(phrase string) (Command, bool) {
	cmd, ok := phrases[Normalize(phrase)]
	return cmd, ok
}

// Phrases returns the recognized vocabulary.
func Phrases() []string {
	out := make([]string, 0, len(phrases))
	for p := range phrases {
		out = append(out, p)
	}
	return out
}
