package model

import (
	"github.com/spf13/afero"

	"github.com/neurlang/rcnbatch/blob"
	"github.com/neurlang/rcnbatch/errors"
)

// Save persists m as a single blob named name and returns its size
func Save(fs afero.Fs, name string, m *AggregatedModel) (int, error) {
	if err := m.validate(); err != nil {
		return 0, err
	}
	n, err := blob.Write(fs, name, blob.KindModel, m)
	if err != nil {
		return 0, errors.Persistence(name, err)
	}
	return n, nil
}

// Load reads the model artifact named name
func Load(fs afero.Fs, name string) (*AggregatedModel, error) {
	var m AggregatedModel
	if err := blob.Read(fs, name, blob.KindModel, &m); err != nil {
		return nil, errors.Persistence(name, err)
	}
	if err := m.validate(); err != nil {
		return nil, errors.Persistence(name, err)
	}
	return &m, nil
}
