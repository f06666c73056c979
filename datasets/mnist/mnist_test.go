package mnist

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/rcnbatch/datasets/imagedir"
	"github.com/neurlang/rcnbatch/errors"
)

func gz(t *testing.T, header []uint32, body []byte) []byte {
	var raw bytes.Buffer
	for _, h := range header {
		require.NoError(t, binary.Write(&raw, binary.BigEndian, h))
	}
	raw.Write(body)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func split(t *testing.T, fs afero.Fs, dir, img, val string, labels []byte) {
	pix := make([]byte, len(labels)*ImgSize*ImgSize)
	for i := range labels {
		for j := 0; j < ImgSize*ImgSize; j++ {
			pix[i*ImgSize*ImgSize+j] = byte(i * 40)
		}
	}
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, img), gz(t, []uint32{imagesMagic, uint32(len(labels)), ImgSize, ImgSize}, pix), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, val), gz(t, []uint32{labelsMagic, uint32(len(labels))}, labels), 0o644))
}

func fixture(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	split(t, fs, "/tmp/mnist", trainSetImg, trainSetVal, []byte{3, 1, 3})
	split(t, fs, "/tmp/mnist", inferSetImg, inferSetVal, []byte{7, 0})
	return fs
}

func TestLoad(t *testing.T) {
	fs := fixture(t)
	d, err := Load(fs, "/tmp/mnist", false)
	require.NoError(t, err)
	require.Equal(t, 3, d.Train.Len())
	require.Equal(t, 2, d.Infer.Len())
	require.Equal(t, []byte{3, 1, 3}, d.Train.Labels)
	require.Equal(t, byte(80), d.Train.Images[2][ImgSize*ImgSize-1])

	_, err = Load(fs, "/tmp/mnist", true)
	require.True(t, errors.IsInput(err), "digest")

	_, err = Load(fs, "/nowhere", false)
	require.True(t, errors.IsInput(err))
}

func TestLoadCorrupt(t *testing.T) {
	fs := fixture(t)
	require.NoError(t, afero.WriteFile(fs, "/tmp/mnist/"+trainSetVal, gz(t, []uint32{labelsMagic, 5}, []byte{1}), 0o644))
	_, err := Load(fs, "/tmp/mnist", false)
	require.True(t, errors.IsInput(err), "truncated")

	require.NoError(t, afero.WriteFile(fs, "/tmp/mnist/"+trainSetImg, []byte("plain"), 0o644))
	_, err = Load(fs, "/tmp/mnist", false)
	require.True(t, errors.IsInput(err), "not gzip")
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	fs := fixture(t)
	d, err := Load(fs, "/tmp/mnist", false)
	require.NoError(t, err)

	n, err := Export(ctx, fs, d, "data", 2, nil)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	ok, err := afero.Exists(fs, "data/training/3/00002.png")
	require.NoError(t, err)
	require.True(t, ok)

	samples, err := imagedir.New(fs, 2, nil).WithFrame(ImgSize, 0).Load(ctx, "data/training", imagedir.Options{})
	require.NoError(t, err)
	require.Len(t, samples, 3)
	require.Equal(t, "1", samples[0].Label)
	require.Equal(t, uint8(40), samples[0].Image.At(5, 5))
	require.Equal(t, "3", samples[1].Label)
}
