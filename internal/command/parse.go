package command

import (
	"strings"
	"unicode"
)

const Prefix = '!'

type Kind int

const (
	NotACommand Kind = iota
	InvalidSyntax
	Valid
)

func (k Kind) String() string {
	switch k {
	case NotACommand:
		return "not_a_command"
	case InvalidSyntax:
		return "invalid_syntax"
	case Valid:
		return "valid"
	default:
		return "unknown"
	}
}

type Parsed struct {
	Kind Kind
	Name string
	Args []string
}

// Parse classifies chat text. Every leading '!' of the first token is
// stripped, so "!!ping" names ping. Names are letters, digits and
// underscores and are matched case-sensitively.
func Parse(text string) Parsed {
	text = strings.TrimSpace(text)
	if text == "" || text[0] != Prefix {
		return Parsed{Kind: NotACommand}
	}

	fields := strings.Fields(text)
	name := strings.TrimLeft(fields[0], string(Prefix))
	if name == "" {
		return Parsed{Kind: InvalidSyntax}
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' {
			return Parsed{Kind: InvalidSyntax}
		}
	}
	return Parsed{Kind: Valid, Name: name, Args: fields[1:]}
}
