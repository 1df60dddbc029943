package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jai2010/CollabCanvas/internal/config"
	"github.com/jai2010/CollabCanvas/internal/session"
	"github.com/jai2010/CollabCanvas/internal/transport"
	"github.com/jai2010/CollabCanvas/internal/ui"
)

func run(ctx context.Context, cfg *config.Config) error {
	logger, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting collabcanvas", "version", releaseVersion, "endpoint", cfg.Endpoint)

	dialer := transport.NewDialer(cfg.Endpoint,
		transport.WithLogger(logger),
		transport.WithHandshakeTimeout(cfg.HandshakeTimeout),
	)

	g, err := ui.NewGUI(ui.Options{
		Width:      cfg.Canvas.Width,
		Height:     cfg.Canvas.Height,
		CellWidth:  cfg.Canvas.CellWidth,
		CellHeight: cfg.Canvas.CellHeight,
		Animation:  cfg.Canvas.Animation,
		Window:     cfg.Canvas.Window,
	}, logger)
	if err != nil {
		return fmt.Errorf("GUI creation: %w", err)
	}
	defer g.Close()

	s := session.New(session.DialerFunc(dialer),
		session.WithLogger(logger),
		session.WithSurface(cfg.Surface()),
		session.WithListOptions(cfg.ListOptions()),
		session.WithLocalEcho(cfg.Canvas.LocalEcho),
		session.WithOnChange(g.Refresh),
	)
	defer s.Leave()

	if err := g.Init(s); err != nil {
		return fmt.Errorf("GUI initialization: %w", err)
	}

	go func() {
		<-ctx.Done()
		g.Quit()
	}()

	if err := g.MainLoop(ctx); err != nil {
		return fmt.Errorf("GUI MainLoop: %w", err)
	}

	logger.Info("stopped")

	return nil
}
