package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/lox/handreplay/internal/config"
	"github.com/lox/handreplay/internal/equity"
	"github.com/lox/handreplay/internal/pipeline"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" default:"handreplay.hcl" help:"HCL configuration file, defaults apply when missing"`
	LogLevel string `help:"Override the configured log level (debug, info, warn, error)"`
	Workers  int    `help:"Override the configured worker count"`

	Stdin  io.Reader `kong:"-"`
	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}

func (g *Globals) stderr() io.Writer {
	if g.Stderr != nil {
		return g.Stderr
	}
	return os.Stderr
}

func (g *Globals) stdin() io.Reader {
	if g.Stdin != nil {
		return g.Stdin
	}
	return os.Stdin
}

// setup loads the config, applies flag overrides and builds the logger.
func (g *Globals) setup() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Workers > 0 {
		cfg.Workers = g.Workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewWithOptions(g.stderr(), log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return cfg, logger, nil
}

func (g *Globals) pipeline(cfg *config.Config, logger *log.Logger) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Workers:          cfg.Workers,
		MinFragmentBytes: cfg.MinFragmentBytes,
		Logger:           logger,
	})
}

func equityOptions(cfg *config.Config) equity.Options {
	return equity.Options{
		Iterations: cfg.Equity.Iterations,
		Timeout:    cfg.EquityTimeout(),
		Seed:       cfg.Equity.Seed,
	}
}

// readInput concatenates the named files, or reads stdin when there are
// none or the only name is "-".
func (g *Globals) readInput(files []string) (string, error) {
	if len(files) == 0 || (len(files) == 1 && files[0] == "-") {
		b, err := io.ReadAll(g.stdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	parts := make([]string, 0, len(files))
	for _, name := range files {
		b, err := os.ReadFile(filepath.Clean(name))
		if err != nil {
			return "", err
		}
		parts = append(parts, string(b))
	}
	return strings.Join(parts, "\n\n"), nil
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
