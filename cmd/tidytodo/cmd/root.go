// Package cmd implements the tidytodo command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tidytodo/internal/utils"
)

// Build information, set at build time via -ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds per-invocation settings. Zero values fall back to the
// config file and its defaults.
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	ConfigPath   string // Path to config file (empty uses the XDG default)
	Backend      string // Storage backend override
	StoragePath  string // Storage path override
	ViewsPath    string // Views directory override
	Stdin        io.Reader
	// IsTerminal reports whether the TUI can take over the terminal.
	// Nil checks whether stdin and stdout are TTYs.
	IsTerminal func() bool

	// tracking is set once a command has loaded the config file
	tracking *trackingSettings
}

func (c *Config) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	// Flags mutate the config, so each run works on its own copy
	run := Config{}
	if cfg != nil {
		run = *cfg
	}
	cfg = &run
	rootCmd := NewTidyTodo(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	started := time.Now()
	err := rootCmd.Execute()
	trackCommand(rootCmd, args, cfg, time.Since(started), err)

	if err != nil {
		if containsJSONFlag(args) || cfg.OutputFormat == "json" {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewTidyTodo creates the root command with injectable IO
func NewTidyTodo(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	root := &cobra.Command{
		Use:     "tidytodo",
		Short:   "A personal task manager",
		Long:    "tidytodo keeps tasks and categories in local storage and offers a CLI and a terminal UI.",
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyGlobalFlags(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cfg, stdout) {
				return cmd.Help()
			}
			return runTUI(cmd, cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	root.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	root.PersistentFlags().Bool("json", false, "Output in JSON format")
	root.PersistentFlags().String("config", "", "Path to config file")
	root.PersistentFlags().String("backend", "", "Storage backend (sqlite, file, memory)")
	root.PersistentFlags().String("path", "", "Storage path (database file or directory)")

	root.AddCommand(newTaskCmd(stdout, cfg))
	root.AddCommand(newCategoryCmd(stdout, cfg))
	root.AddCommand(newViewCmd(stdout, cfg))
	root.AddCommand(newExportCmd(stdout, cfg))
	root.AddCommand(newImportCmd(stdout, cfg))
	root.AddCommand(newInfoCmd(stdout, cfg))
	root.AddCommand(newMigrateCmd(stdout, cfg))
	root.AddCommand(newRemindCmd(stdout, cfg))
	root.AddCommand(newStatsCmd(stdout, cfg))
	root.AddCommand(newTUICmd(stdout, cfg))
	root.AddCommand(newVersionCmd(stdout))

	return root
}

// applyGlobalFlags copies persistent flags into cfg
func applyGlobalFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if noPrompt, _ := flags.GetBool("no-prompt"); noPrompt {
		cfg.NoPrompt = true
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if jsonOutput, _ := flags.GetBool("json"); jsonOutput {
		cfg.OutputFormat = "json"
	}
	if path, _ := flags.GetString("config"); path != "" {
		cfg.ConfigPath = path
	}
	if backendName, _ := flags.GetString("backend"); backendName != "" {
		cfg.Backend = backendName
	}
	if path, _ := flags.GetString("path"); path != "" {
		cfg.StoragePath = path
	}
	utils.SetVerboseMode(cfg.Verbose)
}

func isTerminal(cfg *Config, stdout io.Writer) bool {
	if cfg.IsTerminal != nil {
		return cfg.IsTerminal()
	}
	out, ok := stdout.(*os.File)
	if !ok {
		return false
	}
	in, ok := cfg.stdin().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(out.Fd())) && term.IsTerminal(int(in.Fd()))
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(stdout, "tidytodo\n  Version: %s\n  Commit:  %s\n  Built:   %s\n", Version, Commit, BuildDate)
			return nil
		},
	}
}

type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
	Result     string `json:"result"`
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}
	if ews, ok := err.(*utils.ErrorWithSuggestion); ok {
		response.Error = ews.Err.Error()
		response.Suggestion = ews.Suggestion
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}

// writeJSON marshals v on one line
func writeJSON(stdout io.Writer, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

func printResult(stdout io.Writer, cfg *Config, code string) {
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, code)
	}
}

// confirm asks a yes/no question unless prompts are disabled, in which case it answers yes
func confirm(cfg *Config, stdout io.Writer, prompt string) bool {
	if cfg.NoPrompt {
		return true
	}
	return utils.PromptYesNoWithReader(prompt, cfg.stdin(), stdout)
}
