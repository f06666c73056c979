package main

import (
	"context"
	"log"

	arg "github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/datasets/mnist"
	"github.com/neurlang/rcnbatch/parallel"
)

type args struct {
	Src     string `arg:"--src" default:"/tmp/mnist" help:"directory holding the four .gz files"`
	Dst     string `arg:"--dst" default:"data/MNIST" help:"data_dir to create"`
	Workers int    `arg:"--workers" help:"0 for all CPUs"`
	NoCheck bool   `arg:"--no_check" help:"skip the sha256 check of the files"`
}

func main() {
	var a args
	arg.MustParse(&a)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(context.Background(), afero.NewOsFs(), a, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, fs afero.Fs, a args, logger *zap.Logger) error {
	d, err := mnist.Load(fs, a.Src, !a.NoCheck)
	if err != nil {
		return err
	}
	n, err := mnist.Export(ctx, fs, d, a.Dst, parallel.Workers(a.Workers), logger)
	if err != nil {
		return err
	}
	logger.Info("data_dir ready",
		zap.String("dir", a.Dst),
		zap.String("images", humanize.Comma(int64(n))),
		zap.Int("training", d.Train.Len()),
		zap.Int("testing", d.Infer.Len()))
	return nil
}
