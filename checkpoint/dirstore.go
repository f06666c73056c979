package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/blob"
	"github.com/neurlang/rcnbatch/errors"
)

// DirStore keeps one blob file per checkpoint in a directory
type DirStore struct {
	fs  afero.Fs
	dir string
	log *zap.Logger
}

// NewDirStore returns a store rooted at dir on fs
func NewDirStore(fs afero.Fs, dir string, log *zap.Logger) *DirStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirStore{fs: fs, dir: dir, log: log}
}

func (s *DirStore) path(k Key) string {
	return filepath.Join(s.dir, k.Name())
}

// Put implements Store
func (s *DirStore) Put(ctx context.Context, c *Checkpoint) error {
	k := c.Key()
	name := s.path(k)
	if len(c.Outputs) != k.Len() {
		return errors.Persistence(name, errors.Errorf("%d outputs for a batch of %d", len(c.Outputs), k.Len()))
	}
	if _, err := s.fs.Stat(name); err == nil {
		return errors.Persistence(name, os.ErrExist)
	} else if !os.IsNotExist(err) {
		return errors.Persistence(name, err)
	}
	size, err := blob.Write(s.fs, name, blob.KindCheckpoint, c)
	if err != nil {
		return errors.Persistence(name, err)
	}
	s.log.Debug("checkpoint written", zap.String("path", name), zap.Int("bytes", size))
	return nil
}

// Get implements Store
func (s *DirStore) Get(ctx context.Context, k Key) (*Checkpoint, error) {
	name := s.path(k)
	var c Checkpoint
	if err := blob.Read(s.fs, name, blob.KindCheckpoint, &c); err != nil {
		return nil, errors.Persistence(name, err)
	}
	if c.Key() != k || len(c.Outputs) != k.Len() {
		return nil, errors.Persistence(name, errors.Errorf("checkpoint covers %v with %d outputs", c.Key(), len(c.Outputs)))
	}
	return &c, nil
}

// List implements Store. Files that are not checkpoints are ignored.
func (s *DirStore) List(ctx context.Context) ([]Key, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Persistence(s.dir, err)
	}
	var keys []Key
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if k, ok := ParseName(e.Name()); ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Start != keys[j].Start {
			return keys[i].Start < keys[j].Start
		}
		return keys[i].End < keys[j].End
	})
	return keys, nil
}
