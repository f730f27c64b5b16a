// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller implements the Modia chat client controller.
//
// The Controller is front-end agnostic: the TUI, the line REPL and the
// one-shot CLI all drive it through the same methods or through the named
// action table returned by Actions. It holds:
//
//   - the chat transcript and the status indicator (ready, busy, error, offline)
//   - the session preferences (explain/raw toggles, applied provider/model)
//   - the settings panel state (provider/model selectors, repo list, DB stats)
//   - the bounded operations log and step progress
//
// # Error Model
//
// Chat failures are shown in the reply entry as "Error: <detail>". Admin
// operations (save key, add repo, sync, rebuild) run through RunOp, which
// logs "Error: <message>" and sets the error status. FetchRagSources and
// CheckHealth never fail; they return degraded results. Missing user input
// is a ValidationError, logged before any request.
//
// # Concurrency
//
// Chat sends are serialized (ErrSendInFlight), as are admin operations
// (ErrOperationInFlight). Within a send the sources listing is fetched
// before the question is asked.
package controller
