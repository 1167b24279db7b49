package dispatch

import (
	"fmt"
	"time"
)

type ErrorKind int

const (
	InvalidCommand ErrorKind = iota + 1
	SpamDetected
	CommandDoesNotExist
	CommandCooldown
	HandlerError
	HandlerPanic
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCommand:
		return "invalid_command"
	case SpamDetected:
		return "spam_detected"
	case CommandDoesNotExist:
		return "command_does_not_exist"
	case CommandCooldown:
		return "command_cooldown"
	case HandlerError:
		return "handler_error"
	case HandlerPanic:
		return "handler_panic"
	default:
		return "unknown"
	}
}

// Error is a failure the dispatcher reports back to the chatter. Its message
// is the notice text.
type Error struct {
	Kind ErrorKind
	// Text is the raw chat text that triggered the error.
	Text      string
	Command   string
	Remaining time.Duration
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidCommand:
		return fmt.Sprintf("%q, invalid command format", e.Text)
	case SpamDetected:
		return fmt.Sprintf("%q, you are sending commands too quickly", e.Text)
	case CommandDoesNotExist:
		return fmt.Sprintf("%q does not exist, find the list of existing commands with !commands", e.Command)
	case CommandCooldown:
		tenths := ceilTenths(e.Remaining)
		return fmt.Sprintf("%q is on cooldown, wait %d.%d seconds", e.Command, tenths/10, tenths%10)
	case HandlerError:
		return fmt.Sprintf("%q command error: %v, try !help %s", e.Command, e.Err, e.Command)
	case HandlerPanic:
		return fmt.Sprintf("%q command crashed", e.Command)
	default:
		return "unknown dispatch error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ceilTenths rounds d up to whole tenths of a second, never below one tenth,
// so a blocked user is never told to wait 0.0 seconds.
func ceilTenths(d time.Duration) int64 {
	const tenth = 100 * time.Millisecond
	return max(int64((d+tenth-1)/tenth), 1)
}

// PanicError carries a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}
