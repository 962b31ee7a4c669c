package fileutil

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ReadFile reads path from fs and transparently decompresses gzip and zstd
// content.
func ReadFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	data, err = Decompress(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", path)
	}
	return data, nil
}

// Decompress checks the magic bytes of data and decompresses it if needed.
// Uncompressed data is returned as is.
func Decompress(data []byte) ([]byte, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer r.Close()

		decompressed, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "decompress gzip data")
		}
		return decompressed, nil
	}

	// zstd magic: 0x28, 0xb5, 0x2f, 0xfd
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "create zstd reader")
		}
		defer r.Close()

		decompressed, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "decompress zstd data")
		}
		return decompressed, nil
	}

	return data, nil
}
