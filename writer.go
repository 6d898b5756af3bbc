package csv2jsonl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

var (
	errNilWriter      = errors.New("csv2jsonl: writer is nil")
	errWriterNoTarget = errors.New("csv2jsonl: writer destination cannot be nil")
	errKeyValueCount  = errors.New("csv2jsonl: object keys and values differ in length")
)

// Format controls how each row object is rendered.
type Format struct {
	// Indented enables pretty printing with Width spaces per nesting level.
	Indented bool
	Width    int
}

// Compact renders every row on a single line without extra whitespace.
var Compact = Format{}

// Indent returns a pretty printing format using width spaces per level.
func Indent(width int) Format {
	return Format{Indented: true, Width: width}
}

func (f Format) String() string {
	if !f.Indented {
		return "compact"
	}
	return fmt.Sprintf("indent(%d)", f.Width)
}

// AppendJSON appends the JSON text of obj to dst. Keys keep their order.
func AppendJSON(dst []byte, obj Object, f Format) ([]byte, error) {
	if len(obj.Keys) != len(obj.Values) {
		return dst, errKeyValueCount
	}
	if f.Indented && f.Width < 0 {
		return dst, fmt.Errorf("csv2jsonl: negative indent %d", f.Width)
	}

	start := len(dst)
	dst = append(dst, '{')
	for i, key := range obj.Keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendString(dst, key); err != nil {
			return dst[:start], err
		}
		dst = append(dst, ':')
		if dst, err = appendValue(dst, obj.Values[i]); err != nil {
			return dst[:start], err
		}
	}
	dst = append(dst, '}')
	if !f.Indented {
		return dst, nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, dst[start:], "", strings.Repeat(" ", f.Width)); err != nil {
		return dst[:start], fmt.Errorf("csv2jsonl: indent row: %w", err)
	}
	return append(dst[:start], pretty.Bytes()...), nil
}

func appendValue(dst []byte, v Value) ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return append(dst, "null"...), nil
	case KindNumber:
		return append(dst, v.Text...), nil
	default:
		return appendString(dst, v.Text)
	}
}

func appendString(dst []byte, s string) ([]byte, error) {
	b, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		return dst, fmt.Errorf("csv2jsonl: encode string: %w", err)
	}
	return append(dst, rawLineSeparators(b)...), nil
}

// rawLineSeparators undoes the \u2028 and \u2029 escapes the encoder adds,
// so the separators come out as the literal characters.
func rawLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if rest := b[i+1:]; bytes.HasPrefix(rest, []byte("u2028")) || bytes.HasPrefix(rest, []byte("u2029")) {
			out = append(out, 0xe2, 0x80, 0xa8+rest[4]-'8')
			i += 5
			continue
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// LineWriter emits one JSON object per line and flushes after every row.
type LineWriter struct {
	dst *bufio.Writer

	// Format is applied to every row.
	Format Format
	// UseCRLF terminates rows with \r\n instead of \n.
	UseCRLF bool

	line []byte
	err  error
}

// NewLineWriter returns a LineWriter writing compact rows to w.
func NewLineWriter(w io.Writer) *LineWriter {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &LineWriter{
		dst:  bufio.NewWriterSize(w, defaultBufferSize),
		line: make([]byte, 0, 256),
	}
}

// Reset points the writer at dst, keeping its configuration.
func (w *LineWriter) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write renders obj, terminates it with a line break and flushes it.
func (w *LineWriter) Write(obj Object) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	line, err := AppendJSON(w.line[:0], obj, w.Format)
	if err != nil {
		// A row that cannot be rendered is never written.
		w.err = err
		return err
	}
	if w.UseCRLF {
		line = append(line, '\r', '\n')
	} else {
		line = append(line, '\n')
	}
	w.line = line

	if _, err := w.dst.Write(line); err != nil {
		w.err = err
		return err
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying writer.
func (w *LineWriter) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error the writer encountered.
func (w *LineWriter) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}
