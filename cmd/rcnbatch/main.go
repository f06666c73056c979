package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	arg "github.com/alexflint/go-arg"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	var a args
	arg.MustParse(&a)
	if err := run(&a); err != nil {
		log.Fatal(err)
	}
}

func run(a *args) error {
	fs := afero.NewOsFs()
	cfg, err := a.experiment(fs)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if a.Pgo != "" {
		stop, err := startProfile(a.Pgo)
		if err != nil {
			return err
		}
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	x := &experiment{cfg: cfg, fs: fs, log: logger, out: os.Stdout, progress: true}
	if a.List {
		return x.list(ctx)
	}
	if err := x.run(ctx); err != nil {
		logger.Debug("experiment failed", zap.Error(err))
		return err
	}
	return nil
}
