package main

import (
	"github.com/spf13/afero"

	"github.com/neurlang/rcnbatch/config"
)

// args are the command line flags. Only flags given explicitly override the
// configuration file, hence the pointers.
type args struct {
	Config *string `arg:"--config" help:"YAML experiment configuration"`

	TrainSize     *int     `arg:"--train_size" help:"number of training examples"`
	TestSize      *int     `arg:"--test_size" help:"number of testing examples"`
	ClassCount    *int     `arg:"--class_count" help:"number of classes"`
	FullTestSet   *bool    `arg:"--full_test_set" help:"test on every test image"`
	PoolShape     *int     `arg:"--pool_shapes" help:"pool shape"`
	PerturbFactor *float64 `arg:"--perturb_factor" help:"perturbation factor"`
	NumCandidates *int     `arg:"--num_candidates" help:"templates refined per test image"`
	Iterations    *int     `arg:"--iterations" help:"refinement rounds per candidate"`

	DataDir       *string `arg:"--data_dir" help:"data input dir"`
	ModelFile     *string `arg:"--model_file" help:"model filepath"`
	CheckpointDir *string `arg:"--checkpoint_dir" help:"batch checkpoint dir"`
	TestDir       *string `arg:"--test_dir" help:"evaluate the model on this class partitioned dir; class dir names must equal the numeric class, they are not taken modulo 10"`

	Seed     *int64 `arg:"--seed" help:"seed for sampling the training and testing sets"`
	Parallel *bool  `arg:"--parallel" help:"parallelize over multiple CPUs"`
	Workers  *int   `arg:"--workers" help:"worker count when parallel, 0 for all CPUs"`
	Verbose  *bool  `arg:"--verbose" help:"debug logging"`
	TestOnly *bool  `arg:"--test_only" help:"use the saved model, test only"`

	BatchSize     *int    `arg:"--batch_size" help:"training samples per checkpoint"`
	StartBatch    *int    `arg:"--start_batch" help:"first batch to train, earlier ones are read from checkpoints"`
	Resume        *bool   `arg:"--resume" help:"start at the first batch without a checkpoint"`
	WindowStart   *int    `arg:"--window_start" help:"first training sample position to decode"`
	WindowEnd     *int    `arg:"--window_end" help:"training sample position to stop decoding at"`
	FailurePolicy *string `arg:"--failure_policy" help:"fail, skip or substitute samples that trained to nothing"`

	List bool   `arg:"--list" help:"print the selected training files and exit"`
	Pgo  string `arg:"--pgo" help:"write a CPU profile to this file"`
}

func (args) Description() string {
	return "rcnbatch trains and tests the edge template image classifier"
}

// experiment resolves the configuration: defaults, then the file, then flags
func (a *args) experiment(fs afero.Fs) (config.Experiment, error) {
	e := config.Default()
	if a.Config != nil {
		var err error
		if e, err = config.Load(fs, *a.Config); err != nil {
			return e, err
		}
	}
	set(&e.TrainSize, a.TrainSize)
	set(&e.TestSize, a.TestSize)
	set(&e.ClassCount, a.ClassCount)
	set(&e.FullTestSet, a.FullTestSet)
	set(&e.PoolShape, a.PoolShape)
	set(&e.PerturbFactor, a.PerturbFactor)
	set(&e.NumCandidates, a.NumCandidates)
	set(&e.Iterations, a.Iterations)
	set(&e.DataDir, a.DataDir)
	set(&e.ModelFile, a.ModelFile)
	set(&e.CheckpointDir, a.CheckpointDir)
	set(&e.TestDir, a.TestDir)
	set(&e.Seed, a.Seed)
	set(&e.Parallel, a.Parallel)
	set(&e.Workers, a.Workers)
	set(&e.Verbose, a.Verbose)
	set(&e.TestOnly, a.TestOnly)
	set(&e.BatchSize, a.BatchSize)
	set(&e.StartBatch, a.StartBatch)
	set(&e.Resume, a.Resume)
	set(&e.Window.Start, a.WindowStart)
	set(&e.Window.End, a.WindowEnd)
	set(&e.FailurePolicy, a.FailurePolicy)
	return e, e.Validate()
}

func set[T any](dst *T, flag *T) {
	if flag != nil {
		*dst = *flag
	}
}
