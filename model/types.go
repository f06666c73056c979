// Package model holds the per-sample training outputs, the aggregated model
// artifact built from them and the policy deciding what happens to samples
// whose training produced nothing.
package model

import (
	"github.com/neurlang/rcnbatch/errors"
)

// FeatureResponse is one detected feature: its type F at row R, column C
type FeatureResponse struct {
	F int32 `msgpack:"f"`
	R int32 `msgpack:"r"`
	C int32 `msgpack:"c"`
}

// EdgeFactor constrains the displacement between features I and J to Radius
type EdgeFactor struct {
	I      int32   `msgpack:"i"`
	J      int32   `msgpack:"j"`
	Radius float32 `msgpack:"radius"`
}

// Graph is the structure graph over the feature responses of one template
type Graph struct {
	Nodes int32      `msgpack:"nodes"`
	Edges [][2]int32 `msgpack:"edges"`
}

// TrainingOutput is the trained template of one sample
type TrainingOutput struct {
	Frcs        []FeatureResponse `msgpack:"frcs"`
	EdgeFactors []EdgeFactor      `msgpack:"edge_factors"`
	Graph       Graph             `msgpack:"graph"`
}

// Empty reports whether training found nothing to build a template from
func (o TrainingOutput) Empty() bool {
	return len(o.Frcs) == 0
}

// Result is either a TrainingOutput or a TrainingFailure marker
type Result struct {
	Output  TrainingOutput
	Failure *errors.TrainingFailure
}

// Succeeded wraps a usable output
func Succeeded(o TrainingOutput) Result {
	return Result{Output: o}
}

// Failed marks the sample at index as failed
func Failed(index int, reason string) Result {
	return Result{Failure: &errors.TrainingFailure{Index: index, Reason: reason}}
}

// ResultOf turns a raw output into a Result, marking empty outputs as failures
func ResultOf(index int, o TrainingOutput) Result {
	if o.Empty() {
		return Failed(index, "no feature responses")
	}
	return Succeeded(o)
}

// Failed reports whether r is a failure marker
func (r Result) Failed() bool {
	return r.Failure != nil
}

// AggregatedModel is the persisted artifact: three index aligned sequences
// plus what evaluation needs to map a template back to its class.
type AggregatedModel struct {
	RunID       string              `msgpack:"run_id"`
	Frcs        [][]FeatureResponse `msgpack:"frcs"`
	EdgeFactors [][]EdgeFactor      `msgpack:"edge_factors"`
	Graphs      []Graph             `msgpack:"graphs"`

	// Indices[i] is the training sample position template i came from
	Indices []int `msgpack:"indices"`

	// SampleCount is the number of training samples, ClassCount the number of classes
	SampleCount int `msgpack:"sample_count"`
	ClassCount  int `msgpack:"class_count"`
}

// Len returns the number of templates
func (m *AggregatedModel) Len() int {
	return len(m.Frcs)
}

// Template reassembles template i
func (m *AggregatedModel) Template(i int) TrainingOutput {
	return TrainingOutput{Frcs: m.Frcs[i], EdgeFactors: m.EdgeFactors[i], Graph: m.Graphs[i]}
}

// TemplatesPerClass is the training sample count divided by the class count
func (m *AggregatedModel) TemplatesPerClass() (int, error) {
	if m.ClassCount <= 0 {
		return 0, errors.Input("model has class count %d", m.ClassCount)
	}
	tpc := m.SampleCount / m.ClassCount
	if tpc == 0 {
		return 0, errors.Input("model has %d samples for %d classes", m.SampleCount, m.ClassCount)
	}
	return tpc, nil
}

// ClassOf maps a winning template to its class by integer division of the
// template's sample position by the templates per class.
func (m *AggregatedModel) ClassOf(winner int) (int, error) {
	if winner < 0 || winner >= len(m.Indices) {
		return 0, errors.Errorf("winner %d outside model of %d templates", winner, len(m.Indices))
	}
	tpc, err := m.TemplatesPerClass()
	if err != nil {
		return 0, err
	}
	return m.Indices[winner] / tpc, nil
}

func (m *AggregatedModel) validate() error {
	n := len(m.Frcs)
	if len(m.EdgeFactors) != n || len(m.Graphs) != n || len(m.Indices) != n {
		return errors.Errorf("misaligned model: %d frcs, %d edge factors, %d graphs, %d indices",
			n, len(m.EdgeFactors), len(m.Graphs), len(m.Indices))
	}
	return nil
}
