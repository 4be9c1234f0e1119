package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/config"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/observability/slogobs"
)

// app holds the state shared by subcommands once flags are parsed.
type app struct {
	cfgFile      string
	outputFormat string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fncall",
		Short: "Validated structured extraction with forced function calls",
		Long: `fncall drives a chat-completions model (OpenAI or any compatible server)
into answering with a forced function call, validates the arguments against
a JSON Schema derived from a Go type and re-prompts the model with the
validation errors until the answer is valid or the retry budget is spent.

The extract command applies this to the first table of a web page.`,
		Version:       version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(
		&a.cfgFile, "config", "", "config file (default: ./fncall.yaml or ~/.fncall/fncall.yaml)",
	)
	root.PersistentFlags().StringVarP(
		&a.outputFormat, "output", "o", string(outputYAML), "output format: yaml or json",
	)

	root.AddCommand(
		newExtractCmd(a),
		newSchemaCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and sets up logging. Commands that need a
// configuration call it first.
func (a *app) load(cmd *cobra.Command) error {
	if _, err := parseOutputFormat(a.outputFormat); err != nil {
		return err
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) output(cmd *cobra.Command, data any) error {
	format, err := parseOutputFormat(a.outputFormat)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), format, data)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, err := slogobs.ParseLogLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slogobs.NewHandler(&slogobs.HandlerOptions{
		Format: slogobs.ParseFormat(cfg.Format),
		Level:  level,
		Output: w,
	}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fncall %s\n", version)
			fmt.Fprintf(out, "  Go:     %s\n", goVersion())
			fmt.Fprintf(out, "  Commit: %s\n", commit)
		},
	}
}
