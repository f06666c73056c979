// Package config holds the experiment configuration: the YAML file format,
// its defaults and validation.
package config

import (
	"bytes"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/inference"
	"github.com/neurlang/rcnbatch/learning"
	"github.com/neurlang/rcnbatch/model"
)

// Experiment describes one train and test run
type Experiment struct {
	// TrainSize and TestSize are total sample counts, split evenly over the classes
	TrainSize   int  `yaml:"train_size"`
	TestSize    int  `yaml:"test_size"`
	ClassCount  int  `yaml:"class_count"`
	FullTestSet bool `yaml:"full_test_set"`

	PoolShape     int     `yaml:"pool_shape"`
	PerturbFactor float64 `yaml:"perturb_factor"`
	NumCandidates int     `yaml:"num_candidates"`
	Iterations    int     `yaml:"iterations"`

	DataDir       string `yaml:"data_dir"`
	ModelFile     string `yaml:"model_file"`
	CheckpointDir string `yaml:"checkpoint_dir"`
	TestDir       string `yaml:"test_dir,omitempty"`

	Seed     int64 `yaml:"seed"`
	Parallel bool  `yaml:"parallel"`
	Workers  int   `yaml:"workers"`
	Verbose  bool  `yaml:"verbose"`
	TestOnly bool  `yaml:"test_only"`

	BatchSize     int             `yaml:"batch_size"`
	StartBatch    int             `yaml:"start_batch"`
	Resume        bool            `yaml:"resume"`
	Window        datasets.Window `yaml:"window"`
	FailurePolicy string          `yaml:"failure_policy"`
}

// Default returns the configuration used when nothing else is given
func Default() Experiment {
	p := inference.DefaultParams()
	return Experiment{
		TrainSize:     20,
		TestSize:      20,
		ClassCount:    10,
		PoolShape:     p.PoolShape[0],
		PerturbFactor: p.Features.PerturbFactor,
		NumCandidates: p.NumCandidates,
		Iterations:    p.Iterations,
		DataDir:       "data/MNIST",
		ModelFile:     "default_model.rcnb",
		CheckpointDir: "temp_model",
		Seed:          5,
		BatchSize:     100,
		FailurePolicy: model.PolicyFail.String(),
	}
}

// Load reads the configuration at path over the defaults. Unknown keys are
// an error.
func Load(fs afero.Fs, path string) (Experiment, error) {
	e := Default()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return e, errors.WrapInput(err, "reading config %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil && !errors.Is(err, io.EOF) {
		return e, errors.WrapInput(err, "parsing config %s", path)
	}
	return e, nil
}

// Marshal renders e as YAML
func (e Experiment) Marshal() ([]byte, error) {
	return yaml.Marshal(e)
}

// Validate checks the configuration is usable
func (e Experiment) Validate() error {
	var problems []string
	if e.ClassCount <= 0 {
		problems = append(problems, "class_count must be positive")
	}
	if !e.TestOnly && e.TestDir == "" && e.TrainSize < e.ClassCount {
		problems = append(problems, "train_size must be at least class_count")
	}
	if !e.FullTestSet && e.TestDir == "" && e.TestSize < e.ClassCount {
		problems = append(problems, "test_size must be at least class_count")
	}
	if e.PoolShape <= 0 {
		problems = append(problems, "pool_shape must be positive")
	}
	if e.PerturbFactor <= 0 {
		problems = append(problems, "perturb_factor must be positive")
	}
	if e.NumCandidates <= 0 {
		problems = append(problems, "num_candidates must be positive")
	}
	if e.Iterations <= 0 {
		problems = append(problems, "iterations must be positive")
	}
	if e.BatchSize <= 0 {
		problems = append(problems, "batch_size must be positive")
	}
	if e.StartBatch < 0 {
		problems = append(problems, "start_batch must not be negative")
	}
	if e.Resume && e.StartBatch > 0 {
		problems = append(problems, "resume and start_batch are exclusive")
	}
	if e.Window.Start < 0 || e.Window.End < 0 || (e.Window.End > 0 && e.Window.End <= e.Window.Start) {
		problems = append(problems, "window must be empty or satisfy 0 <= start < end")
	}
	if e.Workers < 0 {
		problems = append(problems, "workers must not be negative")
	}
	if e.ModelFile == "" {
		problems = append(problems, "model_file is required")
	}
	if !e.TestOnly && e.TestDir == "" && e.CheckpointDir == "" {
		problems = append(problems, "checkpoint_dir is required for training")
	}
	if _, err := model.ParsePolicy(e.FailurePolicy); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return errors.Input("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TrainPerClass is the number of training samples drawn from every class
func (e Experiment) TrainPerClass() int {
	return e.TrainSize / e.ClassCount
}

// TestPerClass is the number of test samples drawn from every class, nil
// when the whole test set is used
func (e Experiment) TestPerClass() *int {
	if e.FullTestSet {
		return nil
	}
	n := e.TestSize / e.ClassCount
	return &n
}

// WorkerCount resolves the worker count: 1 unless Parallel, then Workers
// with 0 meaning every core
func (e Experiment) WorkerCount() int {
	if !e.Parallel {
		return 1
	}
	return e.Workers
}

// Policy is the parsed failure policy
func (e Experiment) Policy() model.Policy {
	p, _ := model.ParsePolicy(e.FailurePolicy)
	return p
}

// InferenceParams are the inference hyperparameters of the experiment
func (e Experiment) InferenceParams() inference.Params {
	p := inference.DefaultParams()
	p.PoolShape = [2]int{e.PoolShape, e.PoolShape}
	p.NumCandidates = e.NumCandidates
	p.Iterations = e.Iterations
	p.Features = e.TrainParams()
	return p
}

// TrainParams are the training hyperparameters of the experiment
func (e Experiment) TrainParams() learning.HyperParameters {
	h := learning.Default()
	h.PerturbFactor = e.PerturbFactor
	return h
}
