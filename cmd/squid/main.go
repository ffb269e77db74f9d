// squid - a streaming query engine over JSON tables
// Main entry point for the CLI

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alizain/squid-sql/internal/cli"
	"github.com/alizain/squid-sql/internal/config"
	"github.com/alizain/squid-sql/internal/logger"
	"github.com/alizain/squid-sql/pkg/engine"
	"github.com/alizain/squid-sql/pkg/loader"
	"github.com/alizain/squid-sql/pkg/plan"
	"github.com/alizain/squid-sql/pkg/render"
	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0"
	buildDate = "dev"
	cfgFile   string
	outFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "squid",
		Short: "squid - streaming queries over JSON tables",
		Long: `squid executes JSON query documents against JSON table files:
filters push down to each source, the sources merge into one stream,
and a limit stops reading early.

Start the interactive shell:
  squid

Run a single query document:
  squid run query.json`,
		Run: runShell,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run <query.json>",
		Short: "Execute a query document and print the result",
		Args:  cobra.ExactArgs(1),
		Run:   runQuery,
	}
	runCmd.Flags().StringVarP(&outFormat, "format", "f", "", "output format (table, csv or json)")
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "explain <query.json>",
		Short: "Show how a query document would execute",
		Args:  cobra.ExactArgs(1),
		Run:   explainQuery,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init [directory]",
		Short: "Create a tables directory with sample tables and a config file",
		Args:  cobra.MaximumNArgs(1),
		Run:   initWorkspace,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("squid %s (built %s)\n", version, buildDate)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger, exiting on failure.
func setup() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	return cfg, log
}

func newExecutor(cfg *config.Config, log *logger.Logger) *engine.Executor {
	ld := loader.New(cfg.Tables.Dir, cfg.Tables.Ext, log.Zap())
	return engine.New(ld, log.Zap())
}

func runShell(cmd *cobra.Command, args []string) {
	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	log.Infow("starting squid",
		"version", version,
		"tables_dir", cfg.Tables.Dir,
	)

	if err := config.ValidateTablesDir(cfg.Tables.Dir); err != nil {
		log.Errorw("tables directory validation failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	repl := cli.NewREPL(cfg, log)
	if err := repl.Run(); err != nil {
		log.Errorw("repl error", "error", err)
		os.Exit(1)
	}
}

func runQuery(cmd *cobra.Command, args []string) {
	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	if err := config.ValidateTablesDir(cfg.Tables.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	q, err := plan.ParseFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plan error: %v\n", err)
		os.Exit(1)
	}
	if q.Limit == nil && cfg.Query.DefaultLimit > 0 {
		n := cfg.Query.DefaultLimit
		q.Limit = &n
	}

	result, err := newExecutor(cfg, log).Execute(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	format := cfg.Output.Format
	if outFormat != "" {
		format = outFormat
	}
	if err := render.Write(os.Stdout, format, result.Columns, result.Rows, cfg.Output.MaxColWidth); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func explainQuery(cmd *cobra.Command, args []string) {
	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	q, err := plan.ParseFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plan error: %v\n", err)
		os.Exit(1)
	}

	ex, err := newExecutor(cfg, log).Explain(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("sources (left varies slower):")
	for _, s := range ex.Sources {
		name := s.Table
		if s.Alias != "" {
			name = fmt.Sprintf("%s as %s", s.Table, s.Alias)
		}
		if s.Pushed != "" {
			fmt.Printf("  %-20s filter: %s\n", name, s.Pushed)
		} else {
			fmt.Printf("  %s\n", name)
		}
	}
	if ex.Residual != "" {
		fmt.Printf("post-merge filter: %s\n", ex.Residual)
	}
	fmt.Printf("columns: %s\n", strings.Join(ex.Columns, ", "))
	if q.Limit != nil {
		fmt.Printf("limit: %d\n", *q.Limit)
	}
}

var sampleTables = []struct {
	name    string
	content string
}{
	{"users", `[
  [["id", "int"], ["name", "str"]],
  [1, "a"],
  [2, "b"]
]
`},
	{"orders", `[
  [["user_id", "int"], ["amount", "int"]],
  [1, 10],
  [1, 20],
  [2, 30]
]
`},
}

func initWorkspace(cmd *cobra.Command, args []string) {
	dir := "./tables"
	if len(args) > 0 {
		dir = args[0]
	}

	fmt.Printf("Initializing squid workspace in: %s\n", dir)

	if err := config.InitTablesDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, sample := range sampleTables {
		path := filepath.Join(dir, sample.name+loader.DefaultExt)
		if _, err := os.Stat(path); err == nil {
			// Never clobber existing data.
			continue
		}
		if err := os.WriteFile(path, []byte(sample.content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not write sample table %s: %v\n", sample.name, err)
			continue
		}
		fmt.Printf("Created sample table: %s\n", path)
	}

	cfgPath := "squid.yaml"
	if err := config.WriteDefault(cfgPath, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create config file: %v\n", err)
	} else {
		fmt.Printf("Created config file: %s\n", cfgPath)
	}

	fmt.Println("Workspace initialized successfully!")
	fmt.Println("Start the shell with: squid")
}
