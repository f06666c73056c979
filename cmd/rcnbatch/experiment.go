package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/checkpoint"
	"github.com/neurlang/rcnbatch/config"
	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/datasets/imagedir"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/inference"
	"github.com/neurlang/rcnbatch/learning"
	"github.com/neurlang/rcnbatch/model"
	"github.com/neurlang/rcnbatch/parallel"
	"github.com/neurlang/rcnbatch/trainer"
)

type experiment struct {
	cfg      config.Experiment
	fs       afero.Fs
	log      *zap.Logger
	out      io.Writer
	progress bool

	// frame overrides the canonical frame when non zero
	frame [2]int
}

func (x *experiment) store() *imagedir.Store {
	s := imagedir.New(x.fs, x.cfg.WorkerCount(), x.log)
	if x.frame != [2]int{} {
		s = s.WithFrame(x.frame[0], x.frame[1])
	}
	return s
}

func (x *experiment) trainOptions() imagedir.Options {
	per := x.cfg.TrainPerClass()
	return imagedir.Options{PerClass: &per, Seed: x.cfg.Seed, Window: x.cfg.Window}
}

func (x *experiment) run(ctx context.Context) error {
	if !x.cfg.TestOnly && x.cfg.TestDir == "" {
		if err := x.train(ctx); err != nil {
			return err
		}
	}
	m, err := model.Load(x.fs, x.cfg.ModelFile)
	if err != nil {
		return err
	}
	x.log.Info("model loaded", zap.String("path", x.cfg.ModelFile), zap.String("run", m.RunID), zap.Int("templates", m.Len()))

	dir, opts := filepath.Join(x.cfg.DataDir, "testing"), imagedir.Options{PerClass: x.cfg.TestPerClass(), Seed: x.cfg.Seed}
	if x.cfg.TestDir != "" {
		dir, opts = x.cfg.TestDir, imagedir.Options{}
	}
	samples, err := x.store().Load(ctx, dir, opts)
	if err != nil {
		return err
	}
	_, err = x.evaluate(ctx, m, samples)
	return err
}

func (x *experiment) train(ctx context.Context) error {
	samples, err := x.store().Load(ctx, filepath.Join(x.cfg.DataDir, "training"), x.trainOptions())
	if err != nil {
		return err
	}
	if classes := countLabels(samples); classes != x.cfg.ClassCount {
		return errors.Input("found %d classes in %s, configured class_count is %d", classes, x.cfg.DataDir, x.cfg.ClassCount)
	}

	ckpt := checkpoint.NewDirStore(x.fs, x.cfg.CheckpointDir, x.log)
	start := x.cfg.StartBatch
	if x.cfg.Resume {
		if start, err = trainer.Resume(ctx, ckpt, len(samples), x.cfg.BatchSize); err != nil {
			return err
		}
	}
	batches, err := trainer.Plan(len(samples), x.cfg.BatchSize)
	if err != nil {
		return err
	}

	fmt.Fprintf(x.out, "Training on %s images in %d batches, starting at batch %d\n",
		humanize.Comma(int64(len(samples))), len(batches), start)
	var bar *pb.ProgressBar
	if x.progress {
		bar = pb.New(len(batches)).SetWriter(x.out).Start()
	}
	tr := &trainer.Trainer{
		Store:     ckpt,
		Workers:   x.cfg.WorkerCount(),
		BatchSize: x.cfg.BatchSize,
		Log:       x.log,
		RunID:     uuid.NewString(),
		OnBatch: func(trainer.Batch, trainer.Source) {
			if bar != nil {
				bar.Increment()
			}
		},
	}
	began := time.Now()
	results, err := tr.Run(ctx, samples, start, parallel.Bind(learning.Train, x.cfg.TrainParams()))
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(x.out, "Training used %s\n", time.Since(began).Round(time.Millisecond))

	m, rep, err := model.Aggregate(results, x.cfg.ClassCount, x.cfg.Policy(), x.log)
	if err != nil {
		return err
	}
	m.RunID = tr.RunID
	size, err := model.Save(x.fs, x.cfg.ModelFile, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(x.out, "Model of %s templates written to %s (%s), %d failed, %d skipped, %d substituted\n",
		humanize.Comma(int64(m.Len())), x.cfg.ModelFile, humanize.Bytes(uint64(size)),
		len(rep.Failed), len(rep.Skipped), len(rep.Substituted))
	return nil
}

func (x *experiment) evaluate(ctx context.Context, m *model.AggregatedModel, samples []datasets.Sample) (*inference.Report, error) {
	fmt.Fprintf(x.out, "Testing on %s images...\n", humanize.Comma(int64(len(samples))))
	ev := inference.Evaluator{Workers: x.cfg.WorkerCount(), Log: x.log}
	rep, err := ev.Evaluate(ctx, m, samples, inference.Infer, x.cfg.InferenceParams())
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(x.out, "Testing used %s\n", rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(x.out, "Total test accuracy = %.4f (%s of %s correct, mean score %.3f)\n",
		rep.Accuracy, humanize.Comma(int64(rep.Correct)), humanize.Comma(int64(rep.Total)), rep.MeanScore)
	return rep, nil
}

// list prints the training files the configuration selects
func (x *experiment) list(ctx context.Context) error {
	files, err := x.store().Files(ctx, filepath.Join(x.cfg.DataDir, "training"), x.trainOptions())
	if err != nil {
		return err
	}
	for i, f := range files {
		mark := ""
		if !x.cfg.Window.Contains(i) {
			mark = " (outside window)"
		}
		fmt.Fprintf(x.out, "%d\t%s\t%s%s\n", i, f.Label, f.Path, mark)
	}
	return nil
}

func countLabels(samples []datasets.Sample) int {
	seen := make(map[string]struct{})
	for _, s := range samples {
		seen[s.Label] = struct{}{}
	}
	return len(seen)
}
