// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for modia.
//
// Global flags are stripped first, then the first remaining word selects
// the command. Everything after it is kept in Args.Rest for the command's
// own ArgParser.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdProviders
	CmdRepos
	CmdDB
	CmdMemory
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:       "tui",
	CmdAsk:       "ask",
	CmdChat:      "chat",
	CmdStatus:    "status",
	CmdProviders: "providers",
	CmdRepos:     "repos",
	CmdDB:        "db",
	CmdMemory:    "memory",
	CmdConfig:    "config",
	CmdVersion:   "version",
	CmdHelp:      "help",
}

// String returns the command word.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool
	YAML    bool
	Verbose bool
	Quiet   bool
	Server  string // overrides server.url for this run

	// ask / chat
	Query       string
	ExplainMode bool
	RawMode     bool
	Provider    string
	Model       string

	// Subcommand is the first word after the command, if any.
	Subcommand string

	// Rest is everything after the command word, flags included.
	Rest []string
}

// Format returns the requested output format. --json wins over --yaml.
func (a Args) Format() OutputFormat {
	switch {
	case a.JSON:
		return FormatJSON
	case a.YAML:
		return FormatYAML
	default:
		return FormatText
	}
}

const usageText = `modia - terminal client for the Modia documentation assistant

Usage:
  modia                              Start the TUI (default)
  modia ask "question"               Ask a single question
  modia chat                         Interactive line-mode chat
  modia status, s                    Backend health and session selection
  modia providers [list|use|configure|default|remove]
                                     LLM provider management
  modia repos [list|add|sync]        Source repositories
  modia db [stats|rebuild|search|list|delete]
                                     Knowledge base
  modia memory [show|clear]          Server conversation memory
  modia config [show|get|set|path|keys]
                                     Client configuration
  modia version                      Version information

Ask flags:
  -e, --explain          Ask for an explained answer
  -r, --raw              Print the retrieved sources before the answer
  -p, --provider NAME    Provider for this question only
  -m, --model NAME       Model for this question only

Global flags:
  --json                 Structured output as JSON
  --yaml                 Structured output as YAML
  --server URL           Backend URL for this run
  -v, --verbose          Log diagnostics to stderr
  -q, --quiet            Minimal output

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) into a command and
// its arguments.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	word := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Rest = remaining
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		parsed.Subcommand = strings.ToLower(remaining[0])
	}

	switch word {
	case "tui":
		return CmdTUI, parsed
	case "ask", "a":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed
	case "chat", "repl":
		parseChatArgs(&parsed, remaining)
		return CmdChat, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "providers", "provider", "llm":
		return CmdProviders, parsed
	case "repos", "repo":
		return CmdRepos, parsed
	case "db", "kb":
		return CmdDB, parsed
	case "memory", "mem":
		return CmdMemory, parsed
	case "config", "cfg":
		return CmdConfig, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Subcommand = word
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
// Global flags may appear anywhere on the line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			remaining = append(remaining, args[i:]...)
			return remaining, parsed
		case arg == "--json":
			parsed.JSON = true
		case arg == "--yaml":
			parsed.YAML = true
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "-q" || arg == "--quiet":
			parsed.Quiet = true
		case arg == "--server" && i+1 < len(args):
			i++
			parsed.Server = args[i]
		case strings.HasPrefix(arg, "--server="):
			parsed.Server = strings.TrimPrefix(arg, "--server=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

// parseSessionFlag handles the flags shared by ask and chat. It reports
// how many arguments were consumed (0 when arg is not one of them).
func parseSessionFlag(args *Args, remaining []string, i int) int {
	arg := remaining[i]
	next := func() (string, bool) {
		if i+1 < len(remaining) {
			return remaining[i+1], true
		}
		return "", false
	}

	switch {
	case arg == "-e" || arg == "--explain":
		args.ExplainMode = true
		return 1
	case arg == "-r" || arg == "--raw":
		args.RawMode = true
		return 1
	case arg == "-p" || arg == "--provider":
		if v, ok := next(); ok {
			args.Provider = v
			return 2
		}
		return 1
	case arg == "-m" || arg == "--model":
		if v, ok := next(); ok {
			args.Model = v
			return 2
		}
		return 1
	case strings.HasPrefix(arg, "--provider="):
		args.Provider = strings.TrimPrefix(arg, "--provider=")
		return 1
	case strings.HasPrefix(arg, "--model="):
		args.Model = strings.TrimPrefix(arg, "--model=")
		return 1
	}
	return 0
}

// parseAskArgs parses ask flags; the other words form the question.
// Words after "--" are always part of the question.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	for i := 0; i < len(remaining); {
		if remaining[i] == "--" {
			query = append(query, remaining[i+1:]...)
			break
		}
		if n := parseSessionFlag(args, remaining, i); n > 0 {
			i += n
			continue
		}
		query = append(query, remaining[i])
		i++
	}
	args.Query = strings.Join(query, " ")
	args.Subcommand = ""
}

// parseChatArgs parses chat flags. Anything else is ignored.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); {
		if n := parseSessionFlag(args, remaining, i); n > 0 {
			i += n
			continue
		}
		i++
	}
	args.Subcommand = ""
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// HandleVersion prints version information.
func HandleVersion(app *App, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	return Emit(app.Out, args.Format(), "version", data, func() {
		fmt.Fprintf(app.Out, "modia version %s\n", Version)
		fmt.Fprintf(app.Out, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(app.Out, "  Build date: %s\n", BuildDate)
		fmt.Fprintf(app.Out, "  Go:         %s\n", data.GoVersion)
	})
}

// unknownCommand reports an unrecognized command word with a suggestion.
func unknownCommand(args Args) error {
	err := &ValidationError{
		Field:   "command",
		Value:   args.Subcommand,
		Reason:  "unknown command",
		Example: "modia help",
	}
	if s := SuggestCommand(args.Subcommand); s != "" {
		err.Example = "did you mean 'modia " + s + "'?"
	}
	return err
}
