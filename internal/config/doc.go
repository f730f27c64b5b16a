// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for modia.
//
// Supports both TOML and JSON configuration formats, with defaults,
// .env files, environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: backend URL, timeout and client-side rate limit
//   - ChatConfig: top_k and initial explain/raw toggles
//   - StorageConfig: preference store, REPL history and log file paths
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MODIA_*), including ./.env and ~/.modia/.env
//   - ~/.modia/config.toml
//   - ~/.modia/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil && cfg == nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.Server.URL)
//
// Dot-notation access backs the "modia config" command:
//
//	cfg.Set("server.url", "http://10.0.0.5:8000")
//	v, _ := cfg.Get("chat.top_k")
package config
