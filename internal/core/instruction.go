package core

import "strings"

// Arguments is the parsed bag of options, flags, and positional tokens
// supplied after a command word.
type Arguments struct {
	Options    map[string]string
	Flags      map[string]bool
	Positional []string
}

// ParseArguments tokenizes POSIX-like arguments: `--flag`, `--key=value`,
// `-k value`, positional remainder collected in order.
func ParseArguments(tokens []string) Arguments {
	args := Arguments{
		Options: make(map[string]string),
		Flags:   make(map[string]bool),
	}
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case strings.HasPrefix(t, "--") && len(t) > 2:
			name := strings.TrimPrefix(t, "--")
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				args.Options[name[:eq]] = name[eq+1:]
			} else {
				args.Flags[name] = true
			}
		case strings.HasPrefix(t, "-") && len(t) > 1:
			name := strings.TrimPrefix(t, "-")
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") {
				args.Options[name] = tokens[i+1]
				i++
			} else {
				args.Flags[name] = true
			}
		default:
			args.Positional = append(args.Positional, t)
		}
	}
	return args
}

// Names lists every supplied option and flag name
func (a Arguments) Names() []string {
	names := make([]string, 0, len(a.Options)+len(a.Flags))
	for name := range a.Options {
		names = append(names, name)
	}
	for name := range a.Flags {
		names = append(names, name)
	}
	return names
}

// Instruction is the parsed command invocation attached to a resonance.
// Immutable once attached.
type Instruction struct {
	Command   *Command
	Arguments Arguments
	// Content is the raw trailing text after the command token
	Content string
}
