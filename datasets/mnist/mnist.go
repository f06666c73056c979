// Package mnist reads the gzipped IDX files of the MNIST handwritten digit
// dataset and exports them as a class partitioned image directory.
package mnist

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/neurlang/rcnbatch/errors"
)

// ImgSize is the side of an MNIST image
const ImgSize = 28

const (
	inferSetImg = "t10k-images-idx3-ubyte.gz"
	inferSetVal = "t10k-labels-idx1-ubyte.gz"
	trainSetImg = "train-images-idx3-ubyte.gz"
	trainSetVal = "train-labels-idx1-ubyte.gz"
)

// digests of the published files
var digests = map[string]string{
	inferSetImg: "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6",
	inferSetVal: "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6",
	trainSetImg: "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609",
	trainSetVal: "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c",
}

const (
	imagesMagic = 0x00000803
	labelsMagic = 0x00000801
)

// Set is one split of the dataset
type Set struct {
	Images [][ImgSize * ImgSize]byte
	Labels []byte
}

// Len is the number of images
func (s *Set) Len() int {
	return len(s.Labels)
}

// Dataset holds both splits
type Dataset struct {
	Train Set
	Infer Set
}

// Load reads the four dataset files from dir. With verify, files whose
// sha256 differs from the published one are rejected.
func Load(fs afero.Fs, dir string, verify bool) (*Dataset, error) {
	var d Dataset
	var err error
	if d.Train.Images, err = readImages(fs, filepath.Join(dir, trainSetImg), verify); err != nil {
		return nil, err
	}
	if d.Train.Labels, err = readLabels(fs, filepath.Join(dir, trainSetVal), verify); err != nil {
		return nil, err
	}
	if d.Infer.Images, err = readImages(fs, filepath.Join(dir, inferSetImg), verify); err != nil {
		return nil, err
	}
	if d.Infer.Labels, err = readLabels(fs, filepath.Join(dir, inferSetVal), verify); err != nil {
		return nil, err
	}
	for _, s := range []*Set{&d.Train, &d.Infer} {
		if len(s.Images) != len(s.Labels) {
			return nil, errors.Input("mnist in %s has %d images but %d labels", dir, len(s.Images), len(s.Labels))
		}
	}
	return &d, nil
}

// open ungzips the file at path, checking its digest when verify is set
func open(fs afero.Fs, path string, verify bool) ([]byte, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.WrapInput(err, "cannot read mnist file")
	}
	if verify {
		if sum := fmt.Sprintf("%x", sha256.Sum256(raw)); sum != digests[filepath.Base(path)] {
			return nil, errors.Input("file hash for file '%s' is incorrect", path)
		}
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.WrapInput(err, "gzip file '%s'", path)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.WrapInput(err, "buffering file '%s'", path)
	}
	return data, nil
}

func readImages(fs afero.Fs, path string, verify bool) ([][ImgSize * ImgSize]byte, error) {
	data, err := open(fs, path, verify)
	if err != nil {
		return nil, err
	}
	if len(data) < 16 || binary.BigEndian.Uint32(data) != imagesMagic {
		return nil, errors.Input("'%s' is not an idx3 image file", path)
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	rows, cols := binary.BigEndian.Uint32(data[8:]), binary.BigEndian.Uint32(data[12:])
	if rows != ImgSize || cols != ImgSize {
		return nil, errors.Input("'%s' holds %dx%d images", path, rows, cols)
	}
	data = data[16:]
	if len(data) != count*ImgSize*ImgSize {
		return nil, errors.Input("'%s' is truncated: %d images declared, %d bytes present", path, count, len(data))
	}
	set := make([][ImgSize * ImgSize]byte, count)
	for i := range set {
		copy(set[i][:], data[i*ImgSize*ImgSize:])
	}
	return set, nil
}

func readLabels(fs afero.Fs, path string, verify bool) ([]byte, error) {
	data, err := open(fs, path, verify)
	if err != nil {
		return nil, err
	}
	if len(data) < 8 || binary.BigEndian.Uint32(data) != labelsMagic {
		return nil, errors.Input("'%s' is not an idx1 label file", path)
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	if len(data)-8 != count {
		return nil, errors.Input("'%s' is truncated: %d labels declared, %d present", path, count, len(data)-8)
	}
	return data[8:], nil
}
