package csv2jsonl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names a stream codec applied to the input before decoding text.
type Compression uint8

const (
	// CompressionAuto detects the codec from the stream's magic bytes.
	CompressionAuto Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZstd
	CompressionLZ4
	CompressionS2
)

var (
	// ErrUnknownCompression is returned for codec names that are not supported.
	ErrUnknownCompression = errors.New("csv2jsonl: unknown compression")

	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
	// S2 and Snappy framed streams open with a stream identifier chunk.
	magicS2     = []byte{0xff, 0x06, 0x00, 0x00, 'S', '2', 's', 'T', 'w', 'O'}
	magicSnappy = []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
)

var compressionNames = map[Compression]string{
	CompressionAuto: "auto",
	CompressionNone: "none",
	CompressionGzip: "gzip",
	CompressionZstd: "zstd",
	CompressionLZ4:  "lz4",
	CompressionS2:   "s2",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps a codec name to a Compression. Matching ignores case.
func ParseCompression(name string) (Compression, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range compressionNames {
		if n == name {
			return c, nil
		}
	}
	if name == "snappy" {
		return CompressionS2, nil
	}
	return CompressionAuto, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
}

// DetectCompression inspects the leading bytes of a stream for a known codec.
func DetectCompression(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(prefix, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(prefix, magicLZ4):
		return CompressionLZ4
	case bytes.HasPrefix(prefix, magicS2), bytes.HasPrefix(prefix, magicSnappy):
		return CompressionS2
	default:
		return CompressionNone
	}
}

// NewDecompressingReader returns a stream of the uncompressed bytes of r and
// the codec in effect. CompressionAuto peeks at r without consuming it.
// Closing the result releases decoder resources but not r.
func NewDecompressingReader(r io.Reader, c Compression) (io.ReadCloser, Compression, error) {
	br := bufio.NewReaderSize(r, defaultBufferSize)
	if c == CompressionAuto {
		prefix, err := br.Peek(len(magicS2))
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, c, err
		}
		c = DetectCompression(prefix)
	}

	switch c {
	case CompressionNone:
		return io.NopCloser(br), c, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, c, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), c, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(br)), c, nil
	case CompressionS2:
		return io.NopCloser(s2.NewReader(br)), c, nil
	default:
		return nil, c, fmt.Errorf("%w: %v", ErrUnknownCompression, c)
	}
}
