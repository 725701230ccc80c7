package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/marcin-skalski/prwatch/internal/auth"
	"github.com/marcin-skalski/prwatch/internal/config"
	"github.com/marcin-skalski/prwatch/internal/daemon"
	"github.com/marcin-skalski/prwatch/internal/logging"
	"github.com/marcin-skalski/prwatch/internal/store"
	"github.com/marcin-skalski/prwatch/internal/tui"
)

type RunCmd struct {
	NoTUI bool `help:"Disable the terminal UI and log to stderr instead"`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	// Auto-detect TUI capability
	enableTUI := !c.NoTUI && os.Getenv("PRWATCH_TUI") != "0" &&
		isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	logger, err := logging.SetupLogger(cfg.LogFile, cfg.Log.Level, enableTUI)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer logging.CloseFile()

	session := auth.NewSession(cfg.APIBaseURL, auth.NewFileStore(cfg.CredentialsFile), logger)
	if _, err := session.Restore(); err != nil {
		return err
	}

	cache, err := store.Open(cfg.CacheFile, logger)
	if err != nil {
		return err
	}
	defer cache.Close()

	d := daemon.New(cfg, session, cache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !enableTUI {
		logger.Info("prwatch starting (headless)", "config", cli.Config, "strategy", cfg.Strategy)
		return d.Run(ctx)
	}

	// TUI mode: daemon in the background, UI in the foreground.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("prwatch daemon starting", "config", cli.Config, "strategy", cfg.Strategy)
		if err := d.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("daemon error", "err", err)
			errCh <- err
		}
	}()

	m := tui.NewModel(d, cfg.TUI.RefreshInterval)
	p := tea.NewProgram(m, tea.WithReportFocus())

	go func() {
		if err := <-errCh; err != nil {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
