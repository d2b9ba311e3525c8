package fetch

import (
	"bytes"
	"compress/gzip"
	"io"

	"epgmerge/internal/services"
)

// Decompress expands a gzip-compressed payload. Corrupt or non-gzip data is
// reported as services.ErrDecode.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "fetch", "decompress", "not a gzip stream", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "fetch", "decompress", "truncated gzip stream", err)
	}
	return out, nil
}
