package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/sysreport/internal/config"
	"github.com/Dicklesworthstone/sysreport/internal/probe"
	"github.com/Dicklesworthstone/sysreport/internal/report"
	"github.com/Dicklesworthstone/sysreport/internal/sampler"
	"github.com/Dicklesworthstone/sysreport/internal/ui"
)

func main() {
	cfg := config.FromEnv(nil)
	log := newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	styled := cfg.Color && term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(context.Background(), cfg, log, os.Stdout, styled); err != nil {
		log.Fatal("no report possible", zap.Error(err))
	}
}

// run performs the single pass: two timed refreshes, probes, assembly, output.
// Only an unreadable counter subsystem is an error; everything else renders inline.
func run(ctx context.Context, cfg config.Config, log *zap.Logger, w io.Writer, styled bool) error {
	snap, err := sampler.Collect(ctx, sampler.New(log), cfg.CPUInterval)
	if err != nil {
		return fmt.Errorf("sampling system counters: %w", err)
	}

	adapter := probe.NewAdapter(probe.ExecRunner{Timeout: cfg.ProbeTimeout}, cfg, log)
	asm := report.NewAssembler(adapter, probe.NewOwnerResolver(log), cfg, log)
	rep := asm.Build(ctx, snap, time.Now())

	if err := ui.Render(w, rep, ui.Options{Format: cfg.Output, Styled: styled}); err != nil {
		// Output trouble is not a data-source failure; the exit code stays 0.
		log.Warn("writing report", zap.Error(err))
	}
	return nil
}

// newLogger logs to stderr so stdout carries only the report.
func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	log, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
