package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Refused request or failed store operation
	ExitCommandError = 2 // Command error (bad flags, unreadable config or schema)
)

// ExitError carries the exit code a command wants the process to end with.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set when the message was already written to the user.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError come from cobra itself (unknown flags, wrong arg counts) and are
// command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// IsReported reports whether err was already printed by the command.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON document every command prints with --format json.
type CLIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success prints data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Success(message string, data interface{}, text func(w io.Writer)) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Message: message,
			Data:    data,
		})
	}

	if text != nil {
		text(f.Writer)
		return nil
	}
	if message != "" {
		fmt.Fprintln(f.Writer, message)
	}
	return nil
}

// Fail prints message and returns an already reported ExitError with code.
func (f *OutputFormatter) Fail(code int, message string, err error, data interface{}) error {
	resp := CLIResponse{Status: "error", Message: message, Data: data}
	if err != nil {
		resp.Error = err.Error()
	}

	if f.JSON() {
		json.NewEncoder(f.Writer).Encode(resp)
	} else {
		fmt.Fprintln(f.Writer, message)
		if err != nil && f.Verbose {
			fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", err)
		}
	}

	exitErr := WrapExitError(code, message, err)
	exitErr.Reported = true
	return exitErr
}

// VerboseLog writes to ErrWriter so JSON output stays clean.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
