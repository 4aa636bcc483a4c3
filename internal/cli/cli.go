package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/splithcl/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("splithcl", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
splithcl - Assemble a settings namespace split across HCL fragments.

Usage:
  splithcl [options] [ROOT_FILE]

Arguments:
  ROOT_FILE
    Path to the root settings fragment. Fragments it includes are spliced
    into one shared namespace, exactly as if their text were inlined.

Options:
`)
		flagSet.PrintDefaults()
	}

	fileFlag := flagSet.String("file", "", "Path to the root settings fragment.")
	fFlag := flagSet.String("f", "", "Path to the root settings fragment (shorthand).")
	searchFlag := flagSet.String("search-paths", "", "Comma-separated roots for dotted fragment references.")
	formatFlag := flagSet.String("format", "json", "Output format. Options: 'json' or 'yaml'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *fileFlag != "" {
		path = *fileFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var searchPaths []string
	for _, p := range strings.Split(*searchFlag, ",") {
		if p = strings.TrimSpace(p); p != "" {
			searchPaths = append(searchPaths, p)
		}
	}

	config, err := app.NewConfig(app.Config{
		RootFile:    path,
		SearchPaths: searchPaths,
		Format:      strings.ToLower(*formatFlag),
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
