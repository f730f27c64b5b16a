// modia - A terminal client for the Modia documentation assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/cli"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/session"
	"github.com/jeranaias/modia-tui/internal/storage"
	"github.com/jeranaias/modia-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

// run wires the application together and returns the exit code, so
// deferred cleanup happens before the process exits.
func run() int {
	cmd, args := cli.Parse()

	cfg, err := config.Load()
	if cfg == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitConfigError
	}
	if err != nil && !args.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if args.Server != "" {
		cfg.Server.URL = args.Server
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: --server: %v\n", err)
			return cli.ExitUsageError
		}
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Server.URL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		UserAgent:         "modia-tui/" + Version,
	})

	prefs, closePrefs := openPrefs(cfg)
	defer closePrefs()

	if cmd == cli.CmdTUI {
		return runTUI(cfg, client, prefs, args)
	}
	return runCLI(cfg, client, prefs, cmd, args)
}

// runCLI executes a one-shot command and returns the exit code.
func runCLI(cfg *config.Config, client *api.Client, prefs storage.Prefs, cmd cli.Command, args cli.Args) int {
	log.SetFlags(log.LstdFlags)
	if args.Verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	// Ctrl+C cancels the running request; chat handles it per question.
	ctx := context.Background()
	if cmd != cli.CmdChat {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	app := cli.NewApp(cfg, client, prefs)
	if err := cli.Execute(ctx, app, cmd, args); err != nil {
		_ = cli.HandleError(app, err, args.Format(), cmd.String())
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// runTUI runs the full-screen interface until the user quits.
func runTUI(cfg *config.Config, client *api.Client, prefs storage.Prefs, args cli.Args) int {
	if f, err := openLog(cfg.Storage.LogPath); err == nil {
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	log.Printf("STARTUP | version=%s server=%s", Version, cfg.Server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	explain := cfg.Chat.ExplainDefault || args.ExplainMode
	raw := cfg.Chat.RawDefault || args.RawMode
	ctrl := controller.New(controller.Options{
		Client: client,
		Prefs:  session.New(prefs, explain, raw),
		TopK:   cfg.Chat.TopK,
	})
	defer ctrl.Wait()

	m := chat.New(chat.Options{
		Controller: ctrl,
		Config:     cfg,
		Context:    ctx,
		OnConfig: func(c *config.Config) {
			client.SetBaseURL(c.Server.URL)
			client.SetTimeout(c.Timeout())
			client.SetRateLimit(c.Server.RequestsPerSecond)
		},
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if path, err := config.ConfigPathTOML(); err == nil {
		go func() {
			err := config.Watch(ctx, path, func(c *config.Config) {
				p.Send(chat.ConfigReloadedMsg{Config: c})
			})
			if err != nil {
				log.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", path, err)
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running modia: %v\n", err)
		return cli.ExitGeneralError
	}
	log.Printf("SHUTDOWN | clean")
	return cli.ExitSuccess
}

// openPrefs opens the durable preference store. When the database cannot
// be opened the selection lives in memory for this run.
func openPrefs(cfg *config.Config) (storage.Prefs, func()) {
	if cfg.Storage.PrefsPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.PrefsPath), 0700); err == nil {
			store, err := storage.Open(cfg.Storage.PrefsPath)
			if err == nil {
				return store, func() { _ = store.Close() }
			}
			log.Printf("PREFS_OPEN_FAILED | path=%s error=%v", cfg.Storage.PrefsPath, err)
		}
	}
	return storage.NewMemoryStore(), func() {}
}

// openLog sends the standard logger to path, owner-only.
func openLog(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return tea.LogToFile(path, "modia")
}
