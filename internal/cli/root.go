// Package cli implements the cobra commands of the gridslicer binary.
//
// Each subcommand (export, detect, layers) lives in its own file. This file
// holds the root command, global flags, logger setup and exit code handling.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/setanarut/gridslicer"
)

// Global flags, bound to persistent flags on the root command.
var (
	jsonOutput bool
	verbose    bool

	logger *zap.Logger
)

// Set by main from ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// ExitCode is the process exit status for a failed command.
type ExitCode int

const (
	ExitSuccess         ExitCode = 0
	ExitGeneralError    ExitCode = 1
	ExitConfigError     ExitCode = 2
	ExitDetectionFailed ExitCode = 3
	ExitBadSaveDir      ExitCode = 4
)

// CLIError carries an exit code alongside the message shown to the user.
type CLIError struct {
	Code    ExitCode
	Message string
	Err     error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CLIError) Unwrap() error { return e.Err }

func wrapError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// exitCodeFor classifies slicer errors.
func exitCodeFor(err error) ExitCode {
	switch {
	case errors.Is(err, gridslicer.ErrDetectionFailed):
		return ExitDetectionFailed
	case errors.Is(err, gridslicer.ErrSaveDirectory):
		return ExitBadSaveDir
	default:
		return ExitGeneralError
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridslicer",
		Short: "Slice a layered sprite sheet into per-cell images",
		Long: `gridslicer reads a layered image whose "Grid" layer draws the cell
separators, and writes every non-empty cell to its own PNG named after the
layer that contributes its pixels.

Documents can be OpenRaster archives (.ora, as saved by GIMP or Krita),
YAML stack files listing one PNG per layer, or a single raster.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else {
				config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewDetectCommand())
	rootCmd.AddCommand(NewLayersCommand())
	return rootCmd
}

// Execute runs rootCmd and exits with the code carried by the error.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *CLIError
		if errors.As(err, &cliErr) {
			printError(os.Stderr, cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}
		printError(os.Stderr, err.Error(), nil)
		os.Exit(int(ExitGeneralError))
	}
}

func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{"message": message}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
		return
	}
	fmt.Fprintf(w, "Error: %s\n", message)
}

func log() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
