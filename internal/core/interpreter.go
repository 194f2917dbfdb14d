package core

import (
	"context"
	"strings"
	"unicode"

	"github.com/accordbot/accord/internal/logging"
)

// Interpret inspects a resonance's raw text against the effective command
// prefix and the bot's command table. It returns nil when the message is
// not a command invocation; that is the normal case, not an error.
//
// Prefix detection is split from argument parsing so a command can be
// addressed either as `!ping` or `! ping`.
func Interpret(ctx context.Context, r *Resonance) *Instruction {
	tokens := strings.Fields(r.Content)
	if len(tokens) == 0 {
		return nil
	}

	prefix := r.Client.CommandPrefix(ctx, r)
	if prefix == "" {
		prefix = r.Bot.Config.CommandPrefix
	}
	if prefix == "" || !strings.HasPrefix(tokens[0], prefix) {
		return nil
	}

	// `!ping` carries the command word attached to the prefix; `! ping`
	// carries it as the next token.
	var word string
	rest := tokens[1:]
	skip := 1
	if tokens[0] == prefix {
		if len(rest) == 0 {
			return nil
		}
		word = rest[0]
		rest = rest[1:]
		skip = 2
	} else {
		word = strings.TrimPrefix(tokens[0], prefix)
	}

	command := r.Bot.ResolveCommand(strings.ToLower(word))
	if command == nil {
		logging.Debug("interpreter", "No command for word %q", logging.Truncate(word, 30))
		return nil
	}

	if !command.AllowedIn(r.Client.Type()) {
		logging.Debug("interpreter", "Command %s not allowed in client %s", command.Key(), r.Client.Type())
		return nil
	}

	return &Instruction{
		Command:   command,
		Arguments: ParseArguments(rest),
		Content:   trailingFields(r.Content, skip),
	}
}

// trailingFields returns the raw text after the first n whitespace
// separated fields, keeping the interior spacing of what remains.
func trailingFields(s string, n int) string {
	s = strings.TrimSpace(s)
	for i := 0; i < n; i++ {
		j := strings.IndexFunc(s, unicode.IsSpace)
		if j < 0 {
			return ""
		}
		s = strings.TrimLeftFunc(s[j:], unicode.IsSpace)
	}
	return s
}
