// Package cli provides the interactive shell for squid.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alizain/squid-sql/internal/config"
	"github.com/alizain/squid-sql/internal/logger"
	"github.com/alizain/squid-sql/pkg/engine"
	"github.com/alizain/squid-sql/pkg/loader"
	"github.com/alizain/squid-sql/pkg/plan"
	"github.com/alizain/squid-sql/pkg/render"
	"github.com/chzyer/readline"
)

const (
	// Version of squid
	Version = "0.1.0"

	// Prompt displayed to users
	Prompt = "squid> "

	// ContinuePrompt while a query document is still open
	ContinuePrompt = "   ... "
)

// REPL implements the Read-Eval-Print Loop for squid.
type REPL struct {
	config   *config.Config
	log      *logger.Logger
	loader   *loader.Loader
	executor *engine.Executor
	out      io.Writer

	format string
	limit  int
}

// NewREPL creates a new REPL instance.
func NewREPL(cfg *config.Config, log *logger.Logger) *REPL {
	ld := loader.New(cfg.Tables.Dir, cfg.Tables.Ext, log.Zap())
	return &REPL{
		config:   cfg,
		log:      log,
		loader:   ld,
		executor: engine.New(ld, log.Zap()),
		out:      os.Stdout,
		format:   cfg.Output.Format,
		limit:    cfg.Query.DefaultLimit,
	}
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	rlConfig := &readline.Config{
		Prompt:          Prompt,
		HistoryFile:     getHistoryFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    r.newCompleter(),
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	r.printWelcome()

	// A query document may span several lines; keep reading until its
	// braces balance.
	var buffer strings.Builder
	inQuery := false

	for {
		if inQuery {
			rl.SetPrompt(ContinuePrompt)
		} else {
			rl.SetPrompt(Prompt)
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if inQuery {
				buffer.Reset()
				inQuery = false
				fmt.Fprintln(r.out, "^C")
				continue
			}
			continue
		} else if err == io.EOF {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if inQuery {
			buffer.WriteString("\n")
			buffer.WriteString(line)
			if !jsonComplete(buffer.String()) {
				continue
			}
			input := buffer.String()
			buffer.Reset()
			inQuery = false
			if r.processCommand(input) == commandExit {
				fmt.Fprintln(r.out, "Goodbye!")
				return nil
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "{") && !jsonComplete(trimmed) {
			buffer.WriteString(trimmed)
			inQuery = true
			continue
		}

		if r.processCommand(trimmed) == commandExit {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
	}
}

type commandResult int

const (
	commandOK commandResult = iota
	commandExit
	commandError
)

// processCommand dispatches one complete line of input.
func (r *REPL) processCommand(input string) commandResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return commandOK
	}

	r.log.Debugw("executing command", "cmd", input)

	if strings.HasPrefix(input, "{") {
		return r.runQuery(input)
	}

	if strings.HasPrefix(input, "\\") {
		return r.handleBackslashCommand(input)
	}

	switch strings.ToLower(input) {
	case "exit", "quit":
		return commandExit
	case "help":
		r.printHelp()
		return commandOK
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\nType \\? for help.\n", input)
		return commandError
	}
}

func (r *REPL) handleBackslashCommand(input string) commandResult {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return commandOK
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "\\q", "\\quit", "\\exit":
		return commandExit

	case "\\?", "\\help":
		r.printHelp()
		return commandOK

	case "\\v", "\\version":
		fmt.Fprintf(r.out, "squid version %s\n", Version)
		return commandOK

	case "\\dt", "\\tables":
		r.listTables()
		return commandOK

	case "\\d", "\\schema":
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: \\schema <table_name>")
			return commandError
		}
		r.describeTable(parts[1])
		return commandOK

	case "\\run", "\\i":
		if len(parts) < 2 {
			fmt.Fprintln(r.out, "Usage: \\run <file>")
			return commandError
		}
		return r.runQueryFile(parts[1])

	case "\\format":
		if len(parts) < 2 {
			fmt.Fprintf(r.out, "Output format: %s (table, csv or json)\n", r.format)
			return commandOK
		}
		return r.setFormat(parts[1])

	case "\\limit":
		if len(parts) < 2 {
			if r.limit == 0 {
				fmt.Fprintln(r.out, "Default limit: off")
			} else {
				fmt.Fprintf(r.out, "Default limit: %d\n", r.limit)
			}
			return commandOK
		}
		return r.setLimit(parts[1])

	case "\\config":
		r.printConfig()
		return commandOK

	case "\\clear":
		fmt.Fprint(r.out, "\033[2J\033[H")
		return commandOK

	default:
		fmt.Fprintf(r.out, "Unknown command: %s\nType \\? for help.\n", cmd)
		return commandError
	}
}

// runQuery parses and executes an inline query document.
func (r *REPL) runQuery(input string) commandResult {
	q, err := plan.Parse([]byte(input))
	if err != nil {
		fmt.Fprintf(r.out, "Plan error: %v\n", err)
		return commandError
	}
	return r.executePlan(q)
}

// runQueryFile executes a query document read from a file.
func (r *REPL) runQueryFile(path string) commandResult {
	q, err := plan.ParseFile(path)
	if err != nil {
		fmt.Fprintf(r.out, "Plan error: %v\n", err)
		return commandError
	}
	return r.executePlan(q)
}

func (r *REPL) executePlan(q *plan.QueryPlan) commandResult {
	// The session default applies only when the document has no limit.
	if q.Limit == nil && r.limit > 0 {
		n := r.limit
		q.Limit = &n
	}

	result, err := r.executor.Execute(q)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return commandError
	}

	if err := render.Write(r.out, r.format, result.Columns, result.Rows, r.config.Output.MaxColWidth); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return commandError
	}
	return commandOK
}

func (r *REPL) setFormat(format string) commandResult {
	format = strings.ToLower(format)
	switch format {
	case "table", "csv", "json":
		r.format = format
		fmt.Fprintf(r.out, "Output format set to %s\n", format)
		return commandOK
	default:
		fmt.Fprintf(r.out, "Unknown format: %s (want table, csv or json)\n", format)
		return commandError
	}
}

func (r *REPL) setLimit(arg string) commandResult {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		fmt.Fprintf(r.out, "Invalid limit: %s (want a non-negative integer)\n", arg)
		return commandError
	}
	r.limit = n
	if n == 0 {
		fmt.Fprintln(r.out, "Default limit: off")
	} else {
		fmt.Fprintf(r.out, "Default limit set to %d\n", n)
	}
	return commandOK
}

// listTables prints the table files found in the tables directory.
func (r *REPL) listTables() {
	tables, err := r.loader.List()
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if len(tables) == 0 {
		fmt.Fprintln(r.out, "No tables found.")
		return
	}
	fmt.Fprintln(r.out, "\nTables:")
	fmt.Fprintln(r.out, "═══════════════════════════════════════")
	for _, t := range tables {
		fmt.Fprintf(r.out, "  %s\n", t)
	}
	fmt.Fprintf(r.out, "\n(%d table(s))\n", len(tables))
}

// describeTable prints column info for a table.
func (r *REPL) describeTable(name string) {
	view, err := r.loader.Table(name)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	prov := view.Provenance()
	fmt.Fprintf(r.out, "\nTable: %s\n", name)
	fmt.Fprintln(r.out, "═══════════════════════════════════")
	fmt.Fprintf(r.out, "%-24s %-10s\n", "Column", "Type")
	fmt.Fprintln(r.out, "───────────────────────────────────")
	for i := 0; i < prov.Len(); i++ {
		c := prov.Column(i)
		fmt.Fprintf(r.out, "%-24s %-10s\n", c.Name, c.Type.String())
	}
	fmt.Fprintln(r.out, "═══════════════════════════════════")
	fmt.Fprintf(r.out, "(%d row(s))\n", view.NumRows())
}

func (r *REPL) printWelcome() {
	fmt.Fprintf(r.out, `
                    _      _
 ___   __ _  _   _ (_)  __| |
/ __| / _' || | | || | / _' |
\__ \| (_| || |_| || || (_| |
|___/ \__, | \__,_||_| \__,_|
         |_|

    squid %s - streaming queries over JSON tables
    Type \? for help, \q to quit
    Tables: %s

`, Version, r.config.Tables.Dir)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, `
squid commands
═══════════════════════════════════════════════════════════

Queries are JSON documents typed at the prompt; they may span
multiple lines and run once the braces balance:

  {"from":   [{"source": {"file": "users"}, "as": "u"}],
   "select": [{"source": {"column": {"name": "id"}}}],
   "limit":  10}

Backslash commands:
  \tables, \dt               List table files
  \schema <table>, \d        Show the columns of a table
  \run <file>, \i            Execute a query document from a file
  \format [table|csv|json]   Show or set the output format
  \limit [n]                 Show or set the default row limit (0 = off)
  \config                    Show configuration
  \clear                     Clear screen
  \version, \v               Show version
  \?, \help                  Show this help
  \q, \quit                  Exit`)
}

func (r *REPL) printConfig() {
	fmt.Fprintln(r.out, "\nCurrent Configuration")
	fmt.Fprintln(r.out, "=====================")
	fmt.Fprintf(r.out, "Tables:\n")
	fmt.Fprintf(r.out, "  Directory:        %s\n", r.config.Tables.Dir)
	fmt.Fprintf(r.out, "  Extension:        %s\n", r.config.Tables.Ext)
	fmt.Fprintf(r.out, "\nOutput:\n")
	fmt.Fprintf(r.out, "  Format:           %s\n", r.format)
	fmt.Fprintf(r.out, "  Max Col Width:    %d\n", r.config.Output.MaxColWidth)
	fmt.Fprintf(r.out, "\nQuery:\n")
	if r.limit == 0 {
		fmt.Fprintf(r.out, "  Default Limit:    off\n")
	} else {
		fmt.Fprintf(r.out, "  Default Limit:    %d\n", r.limit)
	}
	fmt.Fprintf(r.out, "\nLogging:\n")
	fmt.Fprintf(r.out, "  Level:            %s\n", r.config.Log.Level)
	fmt.Fprintf(r.out, "  Format:           %s\n", r.config.Log.Format)
	fmt.Fprintf(r.out, "  Output:           %s\n", r.config.Log.Output)
	fmt.Fprintln(r.out)
}

func getHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.squid_history"
}

// newCompleter creates an auto-completer for the REPL.
func (r *REPL) newCompleter() *readline.PrefixCompleter {
	tableNames := func(string) []string {
		names, err := r.loader.List()
		if err != nil {
			return nil
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("\\tables"),
		readline.PcItem("\\dt"),
		readline.PcItem("\\schema", readline.PcItemDynamic(tableNames)),
		readline.PcItem("\\d", readline.PcItemDynamic(tableNames)),
		readline.PcItem("\\run"),
		readline.PcItem("\\format",
			readline.PcItem("table"),
			readline.PcItem("csv"),
			readline.PcItem("json"),
		),
		readline.PcItem("\\limit"),
		readline.PcItem("\\config"),
		readline.PcItem("\\clear"),
		readline.PcItem("\\version"),
		readline.PcItem("\\help"),
		readline.PcItem("\\q"),
	)
}

// jsonComplete reports whether every brace and bracket opened in s has been
// closed. Braces inside string literals do not count.
func jsonComplete(s string) bool {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
		}
	}
	return depth <= 0 && !inString
}
