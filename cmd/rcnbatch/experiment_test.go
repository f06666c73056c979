package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	arg "github.com/alexflint/go-arg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/neurlang/rcnbatch/checkpoint"
	"github.com/neurlang/rcnbatch/config"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/model"
)

// bar draws a bright horizontal or vertical bar at offset
func bar(t *testing.T, vertical bool, offset int) []byte {
	img := image.NewGray(image.Rect(0, 0, 28, 28))
	for y := 0; y < 28; y++ {
		for x := 0; x < 28; x++ {
			p := y
			if vertical {
				p = x
			}
			if p >= offset && p < offset+6 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataDir(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	for _, split := range []string{"training", "testing"} {
		for i, offset := range []int{8, 11, 14} {
			name := string(rune('a' + i))
			require.NoError(t, afero.WriteFile(fs, filepath.Join("data", split, "0", name+".png"), bar(t, false, offset), 0o644))
			require.NoError(t, afero.WriteFile(fs, filepath.Join("data", split, "1", name+".png"), bar(t, true, offset), 0o644))
		}
	}
	return fs
}

func testExperiment(t *testing.T, fs afero.Fs, mutate func(*config.Experiment)) (*experiment, *bytes.Buffer) {
	cfg := config.Default()
	cfg.DataDir = "data"
	cfg.ModelFile = "out/model.rcnb"
	cfg.CheckpointDir = "out/ckpt"
	cfg.ClassCount = 2
	cfg.TrainSize = 6
	cfg.TestSize = 4
	cfg.BatchSize = 4
	cfg.Parallel = true
	cfg.Workers = 2
	cfg.PoolShape = 5
	mutate(&cfg)
	require.NoError(t, cfg.Validate())
	var out bytes.Buffer
	return &experiment{cfg: cfg, fs: fs, log: zaptest.NewLogger(t), out: &out, frame: [2]int{28, 6}}, &out
}

func TestExperimentTrainAndTest(t *testing.T) {
	ctx := context.Background()
	fs := dataDir(t)

	x, out := testExperiment(t, fs, func(*config.Experiment) {})
	require.NoError(t, x.run(ctx))
	require.Contains(t, out.String(), "Training on 6 images in 2 batches, starting at batch 0")
	require.Contains(t, out.String(), "Total test accuracy = ")

	m, err := model.Load(fs, "out/model.rcnb")
	require.NoError(t, err)
	require.Equal(t, 6, m.Len())
	require.Equal(t, 6, m.SampleCount)
	require.Equal(t, 2, m.ClassCount)
	require.NotEmpty(t, m.RunID)

	keys, err := checkpoint.NewDirStore(fs, "out/ckpt", nil).List(ctx)
	require.NoError(t, err)
	require.Equal(t, []checkpoint.Key{{Start: 0, End: 4}, {Start: 4, End: 6}}, keys)

	// a finished run resumes past its last batch, restoring everything
	x, out = testExperiment(t, fs, func(e *config.Experiment) { e.Resume = true })
	require.NoError(t, x.run(ctx))
	require.Contains(t, out.String(), "starting at batch 2")

	again, err := model.Load(fs, "out/model.rcnb")
	require.NoError(t, err)
	require.NotEqual(t, m.RunID, again.RunID)
	again.RunID = m.RunID
	require.Equal(t, m, again)

	// retraining from scratch collides with the existing checkpoints
	x, _ = testExperiment(t, fs, func(*config.Experiment) {})
	require.True(t, errors.IsPersistence(x.run(ctx)))
}

func TestExperimentTestOnly(t *testing.T) {
	ctx := context.Background()
	fs := dataDir(t)

	x, _ := testExperiment(t, fs, func(e *config.Experiment) { e.TestOnly = true })
	require.True(t, errors.IsPersistence(x.run(ctx)), "no model yet")

	x, _ = testExperiment(t, fs, func(*config.Experiment) {})
	require.NoError(t, x.train(ctx))

	x, out := testExperiment(t, fs, func(e *config.Experiment) { e.TestOnly, e.FullTestSet = true, true })
	require.NoError(t, x.run(ctx))
	require.Contains(t, out.String(), "Testing on 6 images")
	require.NotContains(t, out.String(), "Training on")

	x, out = testExperiment(t, fs, func(e *config.Experiment) { e.TestDir = "data/testing/1" })
	require.Error(t, x.run(ctx), "class dir holds no classes")

	x, out = testExperiment(t, fs, func(e *config.Experiment) { e.TestDir = "data/testing" })
	require.NoError(t, x.run(ctx))
	require.Contains(t, out.String(), "Testing on 6 images")
}

func TestExperimentClassCountMismatch(t *testing.T) {
	x, _ := testExperiment(t, dataDir(t), func(e *config.Experiment) { e.ClassCount, e.TrainSize = 3, 6 })
	require.True(t, errors.IsInput(x.train(context.Background())))
}

func TestExperimentList(t *testing.T) {
	x, out := testExperiment(t, dataDir(t), func(e *config.Experiment) { e.Window.Start = 2 })
	require.NoError(t, x.list(context.Background()))
	require.Contains(t, out.String(), "(outside window)")
	require.Contains(t, out.String(), "data/training/1/")
}

func TestArgsOverrideConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "exp.yaml", []byte("train_size: 100\nseed: 9\nparallel: true\n"), 0o644))

	path, seed, policy := "exp.yaml", int64(11), "skip"
	a := args{Config: &path, Seed: &seed, FailurePolicy: &policy}
	e, err := a.experiment(fs)
	require.NoError(t, err)
	require.Equal(t, 100, e.TrainSize)
	require.Equal(t, int64(11), e.Seed)
	require.True(t, e.Parallel)
	require.Equal(t, model.PolicySkip, e.Policy())

	var parsed args
	p, err := arg.NewParser(arg.Config{}, &parsed)
	require.NoError(t, err)
	require.NoError(t, p.Parse([]string{"--pool_shapes", "7", "--test_dir", "imgs", "--train_size", "0"}))
	e, err = parsed.experiment(fs)
	require.NoError(t, err, "test_dir runs need no training set")
	require.Equal(t, 7, e.PoolShape)
	require.Equal(t, [2]int{7, 7}, e.InferenceParams().PoolShape)
	require.Error(t, p.Parse([]string{"--pool_shape", "7"}))

	bad := -3
	a = args{BatchSize: &bad}
	_, err = a.experiment(fs)
	require.True(t, errors.IsInput(err))
}
