package models

import "strings"

// CommandType enumerates the commands a seller can send over WhatsApp.
type CommandType string

const (
	CommandAccept   CommandType = "accept"
	CommandReject   CommandType = "reject"
	CommandProgress CommandType = "progress"
	CommandFulfil   CommandType = "fulfil"
	CommandStock    CommandType = "stock"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed seller instruction extracted from WhatsApp text
// or from the id of a tapped reply button.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

var commandAliases = map[string]CommandType{
	"accept":   CommandAccept,
	"reject":   CommandReject,
	"decline":  CommandReject,
	"progress": CommandProgress,
	"start":    CommandProgress,
	"fulfil":   CommandFulfil,
	"fulfill":  CommandFulfil,
	"done":     CommandFulfil,
	"stock":    CommandStock,
	"help":     CommandHelp,
}

// ParseCommand derives a Command from free-form text. Button ids of the form
// "accept:<id>" parse the same as "accept <id>". Ids keep their original case.
func ParseCommand(message string) Command {
	trimmed := strings.TrimSpace(message)
	cmd := Command{Type: CommandUnknown, Raw: message}

	if trimmed == "" {
		return cmd
	}

	if head, rest, ok := strings.Cut(trimmed, ":"); ok && !strings.ContainsAny(head, " \t") {
		trimmed = head + " " + rest
	}

	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if t, ok := commandAliases[head]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}

// ButtonID builds the reply-button id that parses back into cmd with the given argument.
func ButtonID(cmd CommandType, arg string) string {
	return string(cmd) + ":" + arg
}
