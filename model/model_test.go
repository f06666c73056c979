package model

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neurlang/rcnbatch/errors"
)

// output builds a distinguishable template for sample n
func output(n int32) TrainingOutput {
	return TrainingOutput{
		Frcs:        []FeatureResponse{{F: n, R: n + 1, C: n + 2}},
		EdgeFactors: []EdgeFactor{{I: 0, J: n, Radius: float32(n) / 2}},
		Graph:       Graph{Nodes: n + 1, Edges: [][2]int32{{0, n}}},
	}
}

func TestAggregateAlignment(t *testing.T) {
	results := []Result{Succeeded(output(0)), Succeeded(output(1)), Succeeded(output(2))}
	m, rep, err := Aggregate(results, 3, PolicyFail, nil)
	require.NoError(t, err)
	require.Empty(t, rep.Failed)

	require.Equal(t, [][]FeatureResponse{output(0).Frcs, output(1).Frcs, output(2).Frcs}, m.Frcs)
	require.Equal(t, [][]EdgeFactor{output(0).EdgeFactors, output(1).EdgeFactors, output(2).EdgeFactors}, m.EdgeFactors)
	require.Equal(t, []Graph{output(0).Graph, output(1).Graph, output(2).Graph}, m.Graphs)
	require.Equal(t, []int{0, 1, 2}, m.Indices)
	require.Equal(t, 3, m.SampleCount)
	require.Equal(t, 3, m.Len())
	require.Equal(t, output(1), m.Template(1))
}

func TestAggregateEmpty(t *testing.T) {
	_, _, err := Aggregate(nil, 10, PolicyFail, nil)
	require.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestAggregatePolicies(t *testing.T) {
	mixed := []Result{Succeeded(output(0)), ResultOf(1, TrainingOutput{}), Succeeded(output(2))}
	firstFailed := []Result{ResultOf(0, TrainingOutput{}), Succeeded(output(1))}

	t.Run("fail", func(t *testing.T) {
		_, rep, err := Aggregate(mixed, 1, PolicyFail, nil)
		require.Error(t, err)
		require.Equal(t, []int{1}, rep.Failed)
	})

	t.Run("substitute", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		m, rep, err := Aggregate(mixed, 1, PolicySubstitute, zap.New(core))
		require.NoError(t, err)
		require.Equal(t, []int{1}, rep.Substituted)
		require.Equal(t, output(0), m.Template(1))
		require.Equal(t, []int{0, 1, 2}, m.Indices)
		require.Equal(t, 1, logs.FilterField(zap.Int("index", 1)).Len())
	})

	t.Run("substitute with failed first sample", func(t *testing.T) {
		_, rep, err := Aggregate(firstFailed, 1, PolicySubstitute, nil)
		require.Error(t, err)
		require.Equal(t, []int{0}, rep.Failed)
	})

	t.Run("skip", func(t *testing.T) {
		m, rep, err := Aggregate(mixed, 1, PolicySkip, nil)
		require.NoError(t, err)
		require.Equal(t, []int{1}, rep.Skipped)
		require.Equal(t, 2, m.Len())
		require.Equal(t, []int{0, 2}, m.Indices)
		require.Equal(t, 3, m.SampleCount)
		require.Equal(t, output(2), m.Template(1))
	})

	t.Run("skip everything", func(t *testing.T) {
		_, _, err := Aggregate([]Result{Failed(0, "x")}, 1, PolicySkip, nil)
		require.Error(t, err)
	})
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{PolicyFail, PolicySkip, PolicySubstitute} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
	_, err := ParsePolicy("retry")
	require.True(t, errors.IsInput(err))
}

func TestClassOf(t *testing.T) {
	m := &AggregatedModel{SampleCount: 100, ClassCount: 10, Indices: make([]int, 100)}
	for i := range m.Indices {
		m.Indices[i] = i
	}
	c, err := m.ClassOf(23)
	require.NoError(t, err)
	require.Equal(t, 2, c)

	_, err = m.ClassOf(100)
	require.Error(t, err)

	// skipped entries keep their original positions
	m.Indices = []int{0, 5, 29}
	c, err = m.ClassOf(2)
	require.NoError(t, err)
	require.Equal(t, 2, c)

	m.ClassCount = 0
	_, err = m.TemplatesPerClass()
	require.True(t, errors.IsInput(err))

	m.ClassCount = 200
	_, err = m.TemplatesPerClass()
	require.True(t, errors.IsInput(err))
}

func TestSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	m, _, err := Aggregate([]Result{Succeeded(output(1)), Succeeded(output(2))}, 2, PolicyFail, nil)
	require.NoError(t, err)
	m.RunID = "run"

	n, err := Save(fs, "models/default.rcnb", m)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	back, err := Load(fs, "models/default.rcnb")
	require.NoError(t, err)
	require.Equal(t, m, back)

	_, err = Load(fs, "models/missing.rcnb")
	require.True(t, errors.IsPersistence(err))

	_, err = Save(afero.NewReadOnlyFs(fs), "models/other.rcnb", m)
	require.True(t, errors.IsPersistence(err))

	m.Graphs = m.Graphs[:1]
	_, err = Save(fs, "models/bad.rcnb", m)
	require.Error(t, err)
}
