// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"errors"
	"fmt"

	"github.com/jeranaias/modia-tui/internal/api"
)

// Sentinel errors for easy checking.
var (
	// ErrSendInFlight rejects a chat send while another one is pending.
	ErrSendInFlight = errors.New("a message is already being sent")
	// ErrOperationInFlight rejects an admin operation while another runs.
	ErrOperationInFlight = errors.New("another operation is in progress")
	// ErrUnknownAction is returned by Dispatch for unregistered names.
	ErrUnknownAction = errors.New("unknown action")
)

// ValidationError reports missing user input. It is raised before any
// request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// failureText renders a refresh failure for a panel field: the backend's
// detail when it sent one, otherwise what failed and why.
func failureText(err error, what string) string {
	if d := api.Detail(err); d != "" {
		return d
	}
	if code := api.StatusCode(err); code != 0 {
		return fmt.Sprintf("%s (HTTP %d)", what, code)
	}
	return fmt.Sprintf("%s: %v", what, err)
}
