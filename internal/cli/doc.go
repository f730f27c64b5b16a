// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// modia.
//
// Every command runs against an App, which carries the configuration, the
// backend client, the durable preference store and the I/O streams, so
// commands can be driven from tests with buffers.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	if cmd == cli.CmdTUI {
//	    // start the Bubble Tea program
//	}
//	app := cli.NewApp(cfg, client, prefs)
//	if err := cli.Execute(ctx, app, cmd, args); err != nil {
//	    cli.HandleError(app, err, args.Format(), cmd.String())
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - ask: one question, answer on stdout
//   - chat: line-mode REPL with slash commands
//   - status: backend health and the applied model
//   - providers, repos, db, memory: backend administration
//   - config: client configuration
//
// All commands accept --json and --yaml for scripting.
package cli
