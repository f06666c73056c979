// Package blob implements the versioned binary envelope every persisted
// record is stored in.
//
// Layout: 4 byte magic "RCNB", 2 byte big endian format version, 1 byte
// record kind, then a snappy compressed msgpack payload.
package blob

import (
	"bytes"
	"encoding/binary"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/neurlang/rcnbatch/errors"
)

// Magic prefixes every blob
const Magic = "RCNB"

// Version is the current format version
const Version uint16 = 1

const headerSize = len(Magic) + 2 + 1

// Kind identifies the record type stored in a blob
type Kind uint8

const (
	// KindCheckpoint is one batch of training outputs
	KindCheckpoint Kind = 1
	// KindModel is an aggregated model artifact
	KindModel Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindCheckpoint:
		return "checkpoint"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

var (
	// ErrMagic means the data is not a blob
	ErrMagic = errors.New("blob: bad magic")
	// ErrVersion means the blob was written by an unsupported format version
	ErrVersion = errors.New("blob: unsupported version")
	// ErrKind means the blob holds a different record type than requested
	ErrKind = errors.New("blob: unexpected kind")
)

// Marshal encodes v as a blob of the given kind
func Marshal(kind Kind, v interface{}) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", kind)
	}
	var buf bytes.Buffer
	buf.Grow(headerSize + snappy.MaxEncodedLen(len(payload)))
	buf.WriteString(Magic)
	var hdr [3]byte
	binary.BigEndian.PutUint16(hdr[:2], Version)
	hdr[2] = byte(kind)
	buf.Write(hdr[:])
	buf.Write(snappy.Encode(nil, payload))
	return buf.Bytes(), nil
}

// Unmarshal decodes a blob of the given kind into v
func Unmarshal(data []byte, kind Kind, v interface{}) error {
	if len(data) < headerSize || string(data[:len(Magic)]) != Magic {
		return ErrMagic
	}
	hdr := data[len(Magic):headerSize]
	if version := binary.BigEndian.Uint16(hdr[:2]); version != Version {
		return errors.Wrapf(ErrVersion, "got %d, want %d", version, Version)
	}
	if got := Kind(hdr[2]); got != kind {
		return errors.Wrapf(ErrKind, "got %s, want %s", got, kind)
	}
	payload, err := snappy.Decode(nil, data[headerSize:])
	if err != nil {
		return errors.Wrapf(err, "decompressing %s", kind)
	}
	return errors.WrapfOrNil(msgpack.Unmarshal(payload, v), "decoding %s", kind)
}

// Write stores v at name. The data is written to a temporary file in the
// same directory, synced, then renamed over name, so a crash never leaves
// a truncated blob behind.
func Write(fs afero.Fs, name string, kind Kind, v interface{}) (int, error) {
	data, err := Marshal(kind, v)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(name)+".tmp")
	if err != nil {
		return 0, err
	}
	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fs.Rename(tmp.Name(), name)
	}
	if err != nil {
		fs.Remove(tmp.Name())
		return 0, err
	}
	return len(data), nil
}

// Read loads the blob at name into v
func Read(fs afero.Fs, name string, kind Kind, v interface{}) error {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return err
	}
	return Unmarshal(data, kind, v)
}
