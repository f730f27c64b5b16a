// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for CLI commands.
//
// Commands return errors and never print them; main hands the error to
// HandleError, which renders it in the requested format, and exits with
// GetExitCode.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates an invalid configuration file or value
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitBackendError indicates the backend answered with an error
	ExitBackendError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed subcommand with context.
type CommandError struct {
	Command string // e.g. "repos"
	Action  string // e.g. "sync"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError is bad user input on the command line.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// NotFoundError is a named resource the backend does not know.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(name, usage string) error {
	return &ValidationError{Field: name, Reason: "required argument missing", Example: usage}
}

// ErrUnknownSubcommand reports a subcommand word that is not recognized.
func ErrUnknownSubcommand(command, sub string, valid []string) error {
	return &ValidationError{
		Field:   command + " subcommand",
		Value:   sub,
		Reason:  "unknown subcommand",
		Example: fmt.Sprintf("modia %s %v", command, valid),
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError renders err. Text goes to errOut; structured formats go to
// out so they can be piped together with successful responses.
func DisplayError(out, errOut io.Writer, err error, format OutputFormat, command string) {
	if err == nil {
		return
	}
	if format != FormatText {
		resp := NewErrorResponse(command, err)
		resp.Data = errorDetails(err)
		_ = resp.Write(out, format)
		return
	}

	fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(errOut, DimStyle.Render(hint))
	}
}

// HandleError displays err and returns it unchanged.
func HandleError(app *App, err error, format OutputFormat, command string) error {
	if err == nil {
		return nil
	}
	DisplayError(app.Out, app.Err, err, format, command)
	return err
}

func errorHint(err error) string {
	switch {
	case api.IsOffline(err):
		return "Is the backend running? Check server.url with: modia config get server.url"
	case errors.Is(err, controller.ErrOperationInFlight), errors.Is(err, api.ErrBusy):
		return "Another sync or rebuild is running. Try again in a few seconds."
	}
	return ""
}

// errorDetails describes err for structured output.
func errorDetails(err error) map[string]interface{} {
	out := map[string]interface{}{"error_type": errorType(err)}

	var cmdErr *CommandError
	var valErr *ValidationError
	var nfErr *NotFoundError
	var clientErr *api.ClientError
	switch {
	case errors.As(err, &valErr):
		out["field"] = valErr.Field
		out["value"] = valErr.Value
		out["reason"] = valErr.Reason
		if valErr.Example != "" {
			out["example"] = valErr.Example
		}
	case errors.As(err, &nfErr):
		out["resource"] = nfErr.Resource
		out["id"] = nfErr.ID
	case errors.As(err, &cmdErr):
		out["command"] = cmdErr.Command
		out["action"] = cmdErr.Action
		out["reason"] = cmdErr.Reason
	}
	if errors.As(err, &clientErr) {
		if clientErr.StatusCode != 0 {
			out["status_code"] = clientErr.StatusCode
		}
		if clientErr.Detail != "" {
			out["detail"] = clientErr.Detail
		}
	}
	return out
}

func errorType(err error) string {
	var valErr *ValidationError
	var ctrlValErr *controller.ValidationError
	var cfgErrs config.ValidateErrors
	var nfErr *NotFoundError
	var ttyErr *TTYRequiredError
	var clientErr *api.ClientError
	var cmdErr *CommandError

	switch {
	case errors.As(err, &valErr), errors.As(err, &ctrlValErr), errors.As(err, &ttyErr):
		return "validation_error"
	case errors.As(err, &cfgErrs):
		return "config_error"
	case errors.As(err, &nfErr):
		return "not_found_error"
	case errors.As(err, &clientErr):
		return clientErr.Type.String()
	case errors.As(err, &cmdErr):
		return "command_error"
	default:
		return "generic_error"
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

// GetExitCode maps an error to the process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var valErr *ValidationError
	var ctrlValErr *controller.ValidationError
	var ttyErr *TTYRequiredError
	if errors.As(err, &valErr) || errors.As(err, &ctrlValErr) || errors.As(err, &ttyErr) {
		return ExitUsageError
	}

	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	if errors.As(err, &cfgErrs) || errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) || api.StatusCode(err) == 404 {
		return ExitNotFoundError
	}

	if errors.Is(err, api.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}
	if api.IsOffline(err) {
		return ExitNetworkError
	}
	if api.StatusCode(err) != 0 || errors.Is(err, api.ErrBusy) || errors.Is(err, controller.ErrOperationInFlight) {
		return ExitBackendError
	}
	return ExitGeneralError
}
