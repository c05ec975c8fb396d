package cli

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/jsonform/internal/app"
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

const long = `jsonform - resolve a declarative JSON form against a values document.

Loads a field tree (JSON or YAML), binds it to the values, applies array
operations and assignments in that order, optionally validates, and prints
the resolved tree as JSON.`

// flags holds the raw flag values of one Parse call.
type flags struct {
	fields    string
	values    string
	set       []string
	add       []string
	remove    []string
	validate  bool
	logFormat string
	logLevel  string
}

// newCommand builds the root command. run receives the validated config.
func newCommand(output io.Writer, run func(*app.Config)) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "jsonform [options] [FIELDS_PATH]",
		Short:         "Resolve a declarative JSON form",
		Long:          long,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := f.fields
			if path == "" && len(args) > 0 {
				path = args[0]
			}
			slog.Debug("Fields path determined.", "path", path)
			if path == "" {
				slog.Debug("No fields path provided, printing usage and exiting.")
				return cmd.Help()
			}

			logFormat := strings.ToLower(f.logFormat)
			if logFormat != "text" && logFormat != "json" {
				return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
			}
			logLevel := strings.ToLower(f.logLevel)
			switch logLevel {
			case "debug", "info", "warn", "error":
				// valid
			default:
				return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
			}
			slog.Debug("CLI parameter validation complete.")

			config, err := app.NewConfig(app.Config{
				FieldsPath: path,
				ValuesPath: f.values,
				Set:        f.set,
				Add:        f.add,
				Remove:     f.remove,
				Validate:   f.validate,
				LogFormat:  logFormat,
				LogLevel:   logLevel,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			run(config)
			return nil
		},
	}
	cmd.SetOut(output)
	cmd.SetErr(output)

	fs := cmd.Flags()
	fs.StringVarP(&f.fields, "fields", "f", "", "Path to the field tree (.json, .yaml or .yml).")
	fs.StringVarP(&f.values, "values", "v", "", "Path to the initial values document (.json, .yaml or .yml).")
	fs.StringArrayVar(&f.set, "set", nil, "Assign a value: key.path=value. The value is parsed as JSON, falling back to a string. Repeatable.")
	fs.StringArrayVar(&f.add, "add", nil, "Insert an array element: key.path or key.path@index. Repeatable.")
	fs.StringArrayVar(&f.remove, "remove", nil, "Remove an array element: key.path@index. Repeatable.")
	fs.BoolVar(&f.validate, "validate", false, "Run all registered validators and exit with status 1 when a field is invalid.")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var config *app.Config
	cmd := newCommand(output, func(c *app.Config) { config = c })
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		// help was printed
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
