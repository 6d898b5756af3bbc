package csv2jsonl

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ErrInvalidDelimiter is returned for delimiters that would break tokenizing.
var ErrInvalidDelimiter = errors.New("csv2jsonl: invalid delimiter")

// Option configures a Converter.
type Option func(*Converter) error

// WithDelimiter sets the field delimiter. Tab mode, if enabled, still wins.
func WithDelimiter(b byte) Option {
	return func(c *Converter) error {
		switch b {
		case 0, '"', '\r', '\n':
			return fmt.Errorf("%w: %q", ErrInvalidDelimiter, b)
		}
		c.delimiter = b
		return nil
	}
}

// WithTabs forces the tab delimiter regardless of WithDelimiter.
func WithTabs() Option {
	return func(c *Converter) error {
		c.tabs = true
		return nil
	}
}

// WithMode sets the inference mode.
func WithMode(m Mode) Option {
	return func(c *Converter) error {
		c.mode = m
		return nil
	}
}

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(c *Converter) error {
		if f.Indented && f.Width < 0 {
			return fmt.Errorf("csv2jsonl: negative indent %d", f.Width)
		}
		c.format = f
		return nil
	}
}

// WithCompression sets the input codec. The default detects it.
func WithCompression(comp Compression) Option {
	return func(c *Converter) error {
		if _, ok := compressionNames[comp]; !ok {
			return fmt.Errorf("%w: %v", ErrUnknownCompression, comp)
		}
		c.compression = comp
		return nil
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Converter) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

// Converter turns delimited text into JSON Lines. Its configuration is fixed
// once built, so one Converter may run any number of conversions.
type Converter struct {
	delimiter   byte
	tabs        bool
	mode        Mode
	format      Format
	compression Compression
	log         logrus.FieldLogger
}

// Stats summarises a finished or aborted conversion.
type Stats struct {
	Rows        int
	Columns     int
	Encoding    Encoding
	Compression Compression
}

// NewConverter builds a Converter. Defaults: comma delimiter, type inference,
// compact output, automatic decompression.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		delimiter:   ',',
		mode:        InferTypes,
		format:      Compact,
		compression: CompressionAuto,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Delimiter returns the effective field delimiter.
func (c *Converter) Delimiter() byte {
	if c.tabs {
		return '\t'
	}
	return c.delimiter
}

// Convert streams src to dst one row at a time. Rows written before an error
// stay written; the first error ends the conversion.
func (c *Converter) Convert(ctx context.Context, src io.Reader, dst io.Writer) (Stats, error) {
	var stats Stats

	raw, comp, err := NewDecompressingReader(src, c.compression)
	stats.Compression = comp
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer raw.Close()

	text, enc, err := NewDecodingReader(raw)
	stats.Encoding = enc
	if err != nil {
		return stats, fmt.Errorf("detect encoding: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"compression": comp,
		"encoding":    enc,
		"delimiter":   string(c.Delimiter()),
		"mode":        c.mode,
		"format":      c.format,
	}).Debug("input opened")

	reader := NewReader(text)
	reader.Comma = c.Delimiter()
	reader.ReuseRecord = true

	table, err := NewTable(reader)
	if err != nil {
		return stats, err
	}
	stats.Columns = len(table.Columns())

	w := NewLineWriter(dst)
	w.Format = c.format

	var obj Object
	for row, err := range table.Rows() {
		if err != nil {
			return stats, err
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		obj = InferRow(obj, row, c.mode)
		if err := w.Write(obj); err != nil {
			return stats, fmt.Errorf("write record %d: %w", row.Record, err)
		}
		stats.Rows++
	}

	c.log.WithFields(logrus.Fields{
		"rows":    stats.Rows,
		"columns": stats.Columns,
	}).Debug("conversion finished")
	return stats, nil
}
