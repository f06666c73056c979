package mnist

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/parallel"
)

type item struct {
	path  string
	image *[ImgSize * ImgSize]byte
}

// Export writes every image of d as a PNG under dst/training/<label>/ and
// dst/testing/<label>/, the layout imagedir reads. It returns the number of
// images written.
func Export(ctx context.Context, fs afero.Fs, d *Dataset, dst string, workers int, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var items []item
	for split, s := range map[string]*Set{"training": &d.Train, "testing": &d.Infer} {
		for i := range s.Images {
			items = append(items, item{
				path:  filepath.Join(dst, split, fmt.Sprint(s.Labels[i]), fmt.Sprintf("%05d.png", i)),
				image: &s.Images[i],
			})
		}
		for label := 0; label < 10; label++ {
			if err := fs.MkdirAll(filepath.Join(dst, split, fmt.Sprint(label)), 0o755); err != nil {
				return 0, err
			}
		}
	}
	_, err := parallel.Map(ctx, workers, items, func(_ context.Context, it item) (struct{}, error) {
		img := &image.Gray{Pix: it.image[:], Stride: ImgSize, Rect: image.Rect(0, 0, ImgSize, ImgSize)}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, afero.WriteFile(fs, it.path, buf.Bytes(), 0o644)
	})
	if err != nil {
		return 0, err
	}
	log.Info("mnist exported", zap.String("dir", dst), zap.Int("images", len(items)))
	return len(items), nil
}
