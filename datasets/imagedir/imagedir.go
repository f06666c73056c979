// Package imagedir loads labeled image samples from a class partitioned
// directory: one subdirectory per class label, image files inside.
package imagedir

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/hash"
	"github.com/neurlang/rcnbatch/parallel"
)

// noise are files operating systems drop into directories
var noise = []string{".DS_Store", "Thumbs.db", "desktop.ini"}

// Options select which files Load reads
type Options struct {
	// PerClass draws exactly this many files per class, uniformly with
	// replacement. Nil loads every file in lexicographic order.
	PerClass *int

	// Seed seeds the draw, once per Load
	Seed int64

	// Window limits decoding to a range of positions in the enumeration.
	// Samples outside it are returned as placeholders. The zero Window
	// decodes everything.
	Window datasets.Window
}

// File is one selected file and its class label
type File struct {
	Path  string
	Label string
}

// Store reads samples from a filesystem
type Store struct {
	fs      afero.Fs
	workers int
	size    int
	pad     int
	log     *zap.Logger
}

// New returns a store decoding with the given number of workers into
// canonical rasters.
func New(fs afero.Fs, workers int, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		fs:      fs,
		workers: workers,
		size:    datasets.CanonicalSize,
		pad:     datasets.CanonicalPad,
		log:     log,
	}
}

// WithFrame overrides the canonical rescale size and padding
func (s *Store) WithFrame(size, pad int) *Store {
	c := *s
	c.size, c.pad = size, pad
	return &c
}

// Files enumerates the selected files without decoding them
func (s *Store) Files(ctx context.Context, directory string, opts Options) ([]File, error) {
	st, err := s.fs.Stat(directory)
	if err != nil {
		return nil, errors.WrapInput(err, "can't find data dir %q", directory)
	}
	if !st.IsDir() {
		return nil, errors.Input("data dir %q is not a directory", directory)
	}
	if opts.PerClass != nil && *opts.PerClass < 0 {
		return nil, errors.Input("negative samples per class %d", *opts.PerClass)
	}

	s.removeNoise(directory)
	classes, err := s.list(directory, true)
	if err != nil {
		return nil, errors.WrapInput(err, "listing %q", directory)
	}

	seq := hash.NewSequence(opts.Seed)
	var files []File
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(directory, class)
		s.removeNoise(dir)
		names, err := s.list(dir, false)
		if err != nil {
			return nil, errors.WrapInput(err, "listing class %q", class)
		}
		if opts.PerClass == nil {
			for _, name := range names {
				files = append(files, File{Path: filepath.Join(dir, name), Label: class})
			}
			continue
		}
		if len(names) == 0 && *opts.PerClass > 0 {
			return nil, errors.Input("class %q has no files to draw from", class)
		}
		for _, i := range seq.Choose(*opts.PerClass, len(names)) {
			files = append(files, File{Path: filepath.Join(dir, names[i]), Label: class})
		}
	}
	return files, nil
}

// Load enumerates, selects and decodes samples. The result preserves the
// selection order: classes lexicographically, then files in draw order.
func (s *Store) Load(ctx context.Context, directory string, opts Options) ([]datasets.Sample, error) {
	files, err := s.Files(ctx, directory, opts)
	if err != nil {
		return nil, err
	}
	type job struct {
		pos  int
		file File
	}
	jobs := make([]job, len(files))
	for i, f := range files {
		jobs[i] = job{pos: i, file: f}
	}
	samples, err := parallel.Map(ctx, s.workers, jobs, func(ctx context.Context, j job) (datasets.Sample, error) {
		if !opts.Window.Contains(j.pos) {
			return datasets.Sample{Label: j.file.Label, Placeholder: true}, nil
		}
		img, err := s.decode(j.file.Path)
		if err != nil {
			return datasets.Sample{}, err
		}
		return datasets.Sample{Image: img, Label: j.file.Label}, nil
	})
	if err != nil {
		return nil, err
	}
	var placeholders int
	for _, smp := range samples {
		if smp.Placeholder {
			placeholders++
		}
	}
	fields := []zap.Field{
		zap.String("dir", directory),
		zap.Int("samples", len(samples)),
	}
	if !opts.Window.All() {
		fields = append(fields,
			zap.Int("window_start", opts.Window.Start),
			zap.Int("window_end", opts.Window.End),
			zap.Int("placeholders", placeholders))
	}
	s.log.Debug("loaded samples", fields...)
	return samples, nil
}

func (s *Store) decode(path string) (datasets.Raster, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return datasets.Raster{}, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return datasets.Raster{}, errors.Wrapf(err, "decoding %s", path)
	}
	return datasets.Canonicalize(img, s.size, s.pad), nil
}

// list returns the sorted visible entry names of dir, either directories
// or regular files.
func (s *Store) list(dir string, dirs bool) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || isNoise(e.Name()) || e.IsDir() != dirs {
			continue
		}
		if !dirs && !e.Mode().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isNoise(name string) bool {
	for _, n := range noise {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// removeNoise deletes OS generated files; failures don't matter
func (s *Store) removeNoise(dir string) {
	for _, name := range noise {
		p := filepath.Join(dir, name)
		if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			s.log.Debug("could not remove noise file", zap.String("path", p), zap.Error(err))
		}
	}
}
