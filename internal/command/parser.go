// Package command implements the operator console surface: a small explicit
// grammar over whitespace-delimited tokens, recipient and content resolution,
// and fan-out dispatch.
package command

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedCommand means the action word is not part of the grammar.
	ErrUnrecognizedCommand = errors.New("unrecognized command")

	// ErrInvalidCommand means a known action word with malformed arguments.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrUnresolvedRecipient means the recipient name matched zero or
	// multiple directory entries.
	ErrUnresolvedRecipient = errors.New("unresolved recipient")

	// ErrNoMatchingReply means the content query matched no stored answer.
	ErrNoMatchingReply = errors.New("no matching reply")
)

// Command is the typed result of parsing one operator line.
type Command interface {
	isCommand()
}

// Clear clears the console view; no dispatch.
type Clear struct{}

// SendStored sends the stored answer matching Query to the recipient Name.
type SendStored struct {
	Name  string
	Query string
}

// SendLiteral sends Message verbatim as plain text to the recipient Name.
type SendLiteral struct {
	Name    string
	Message string
}

func (Clear) isCommand()       {}
func (SendStored) isCommand()  {}
func (SendLiteral) isCommand() {}

// Parse turns one line of operator input into a typed command.
//
//	cls | clear
//	env  <name tokens...> <query>       (name = all tokens between action and last)
//	env2 <name token> <name token> <message tokens...>
func Parse(line string) (Command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, ErrUnrecognizedCommand
	}

	switch strings.ToLower(tokens[0]) {
	case "cls", "clear":
		return Clear{}, nil

	case "env":
		if len(tokens) < 3 {
			return nil, fmt.Errorf("%w: 'env' requires a recipient name and a lookup query", ErrInvalidCommand)
		}
		name := strings.TrimSpace(strings.Join(tokens[1:len(tokens)-1], " "))
		query := strings.TrimSpace(tokens[len(tokens)-1])
		if name == "" {
			return nil, fmt.Errorf("%w: recipient name must not be empty", ErrInvalidCommand)
		}
		if query == "" {
			return nil, fmt.Errorf("%w: lookup query must not be empty", ErrInvalidCommand)
		}
		return SendStored{Name: name, Query: query}, nil

	case "env2":
		if len(tokens) < 3 {
			return nil, fmt.Errorf("%w: 'env2' requires a two-word recipient name and a message", ErrInvalidCommand)
		}
		name := strings.TrimSpace(strings.Join(tokens[1:3], " "))
		message := strings.TrimSpace(strings.Join(tokens[3:], " "))
		if name == "" {
			return nil, fmt.Errorf("%w: recipient name must not be empty", ErrInvalidCommand)
		}
		if message == "" {
			return nil, fmt.Errorf("%w: message must not be empty", ErrInvalidCommand)
		}
		return SendLiteral{Name: name, Message: message}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedCommand, tokens[0])
	}
}
