package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/circuitgo/internal/app"
	"github.com/vk/circuitgo/modules/image"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("circuitgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
circuitgo - A typed dataflow graph engine: nodes, ports and live propagation.

Usage:
  circuitgo [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a graph snapshot (.json, .yaml, .yml or .hcl).

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph snapshot.")
	gFlag := flagSet.String("g", "", "Path to the graph snapshot (shorthand).")
	listenPortFlag := flagSet.Int("listen-port", 0, "Port for the UI bridge, /health and /metrics. 0 evaluates the graph once and exits.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	saveFlag := flagSet.String("save", "", "Write the graph to this path on exit. The extension selects the format.")
	modelFlag := flagSet.String("openai-model", "dall-e-2", "OpenAI model used by image edit nodes.")
	editTimeoutFlag := flagSet.Duration("edit-timeout", image.DefaultTimeout, "Timeout of one image edit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		GraphPath:   path,
		SavePath:    *saveFlag,
		ListenPort:  *listenPortFlag,
		LogFormat:   strings.ToLower(*logFormatFlag),
		LogLevel:    strings.ToLower(*logLevelFlag),
		OpenAIModel: *modelFlag,
		EditTimeout: *editTimeoutFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
