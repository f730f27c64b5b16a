// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat
// front ends.
//
// Every command maps onto a named controller action, so the TUI and the
// REPL share one vocabulary:
//
//	/explain /raw /clear         conversation toggles
//	/provider /model /apply      model selection
//	/key <api_key> [base_url]    provider credentials
//	/repo add <url> /sync        source repositories
//	/rebuild /stats /search      knowledge base
//	/memory /forget              server-side conversation memory
//
// # Usage
//
//	reg := commands.NewRegistry()
//	res := commands.NewParser(reg).Parse(input)
//	if res.IsCommand {
//	    return commands.Execute(ctx, res)
//	}
package commands
