package csv2jsonl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unsafe"
)

const defaultBufferSize = 4 << 10

var (
	// ErrFieldCount is returned when a record is wider or narrower than the first record.
	ErrFieldCount = errors.New("csv2jsonl: wrong number of fields")

	// errBlankRecord marks an empty line; Read skips it.
	errBlankRecord = errors.New("csv2jsonl: blank record")
)

// ParseError locates a malformed record in the input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("csv2jsonl: parse error on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Reader splits delimited text into records without buffering more than one
// record at a time.
//
// Quoting is lenient. A quote opens a quoted field only as the first byte of
// the field; anywhere else it is kept as a literal byte. Bytes following a
// closing quote are appended to the same field, and a quoted field still open
// at end of input runs to the end of input.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// ReuseRecord lets Read hand back the same backing slice and string data on
	// every call. Fields are only valid until the next Read.
	ReuseRecord bool
	// FieldsPerRecord is the expected record width. Zero adopts the width of the
	// first record.
	FieldsPerRecord int

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	record     []string
	data       []byte
	bounds     []int
	quoted     bool
	finished   bool
	line       int
	recordLine int
}

// NewReader returns a Reader consuming r. It panics if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("csv2jsonl: reader source cannot be nil")
	}
	return &Reader{
		src:    r,
		Comma:  ',',
		Quote:  '"',
		buf:    make([]byte, defaultBufferSize),
		record: make([]string, 0, 16),
		data:   make([]byte, 0, 512),
		bounds: make([]int, 0, 32),
		line:   1,
	}
}

// Line reports the line on which the most recently returned record started.
func (r *Reader) Line() int {
	return r.recordLine
}

// Read returns the next non-blank record. io.EOF signals the end of input.
func (r *Reader) Read() ([]string, error) {
	for {
		rec, err := r.readRecord()
		if errors.Is(err, errBlankRecord) {
			continue
		}
		return rec, err
	}
}

// ReadAll drains the reader and returns every remaining record.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if r.ReuseRecord {
			record = cloneRecord(record)
		}
		records = append(records, record)
	}
}

func cloneRecord(record []string) []string {
	out := make([]string, len(record))
	for i, field := range record {
		out[i] = strings.Clone(field)
	}
	return out
}

func (r *Reader) delimiters() (comma, quote byte) {
	comma, quote = r.Comma, r.Quote
	if comma == 0 {
		comma = ','
	}
	if quote == 0 {
		quote = '"'
	}
	return comma, quote
}

func (r *Reader) readRecord() ([]string, error) {
	if r == nil || r.src == nil || r.finished {
		return nil, io.EOF
	}
	comma, quote := r.delimiters()

	if r.ReuseRecord {
		r.record = r.record[:0]
	} else {
		r.record = nil
	}
	r.data = r.data[:0]
	r.bounds = r.bounds[:0]
	r.quoted = false
	r.recordLine = r.line

	inQuotes := false
	fieldQuoted := false
	fieldStart := 0

	for {
		if r.bufPos >= r.bufLen {
			if r.bufErr != nil {
				err := r.bufErr
				r.bufErr = nil
				if err != io.EOF {
					return nil, err
				}
				r.finished = true
				// An open quoted field ends with the input.
				if len(r.bounds) > 0 || len(r.data) > 0 || fieldQuoted {
					r.bounds = append(r.bounds, fieldStart, len(r.data))
					return r.buildRecord()
				}
				return nil, io.EOF
			}
			if err := r.fill(); err != nil {
				r.bufErr = err
			}
			continue
		}

		if !inQuotes {
			// Consume unquoted bytes up to the next quote in one pass.
			window := r.buf[r.bufPos:r.bufLen]
			next := bytes.IndexByte(window, quote)
			if next != 0 {
				end := r.bufLen
				if next > 0 {
					end = r.bufPos + next
				}
				done, err := r.consumePlain(end, comma, &fieldStart, &fieldQuoted)
				if err != nil {
					return nil, err
				}
				if done {
					return r.buildRecord()
				}
				continue
			}
		}

		b := r.buf[r.bufPos]
		r.bufPos++

		if inQuotes {
			switch b {
			case quote:
				next, err := r.peekByte()
				if err == nil && next == quote {
					r.bufPos++
					r.data = append(r.data, quote)
					continue
				}
				if err != nil && err != io.EOF {
					return nil, err
				}
				inQuotes = false
			case '\n':
				r.data = append(r.data, b)
				r.line++
			default:
				start := r.bufPos - 1
				end := r.bufPos
				for end < r.bufLen && r.buf[end] != quote && r.buf[end] != '\n' {
					end++
				}
				r.data = append(r.data, r.buf[start:end]...)
				r.bufPos = end
			}
			continue
		}

		// Only a quote reaches this point outside a quoted field. It opens a
		// quoted field at the start of a field and is literal anywhere else.
		if len(r.data) != fieldStart || fieldQuoted {
			r.data = append(r.data, b)
			continue
		}
		inQuotes = true
		fieldQuoted = true
		r.quoted = true
	}
}

// consumePlain copies unquoted bytes in buf[bufPos:end] into the record until
// a delimiter or line terminator. It reports whether the record is complete.
func (r *Reader) consumePlain(end int, comma byte, fieldStart *int, fieldQuoted *bool) (bool, error) {
	for r.bufPos < end {
		window := r.buf[r.bufPos:end]
		next, delim := len(window), byte(0)
		for _, c := range []byte{comma, '\n', '\r'} {
			if i := bytes.IndexByte(window[:next], c); i >= 0 {
				next, delim = i, c
			}
		}

		r.data = append(r.data, window[:next]...)
		r.bufPos += next
		if delim == 0 {
			return false, nil
		}
		r.bufPos++

		r.bounds = append(r.bounds, *fieldStart, len(r.data))
		*fieldQuoted = false
		if delim == comma {
			*fieldStart = len(r.data)
			continue
		}
		if delim == '\r' {
			next, err := r.peekByte()
			if err == nil && next == '\n' {
				r.bufPos++
			} else if err != nil && err != io.EOF {
				return false, err
			}
		}
		r.line++
		return true, nil
	}
	return false, nil
}

func (r *Reader) buildRecord() ([]string, error) {
	count := len(r.bounds) / 2
	if count == 1 && len(r.data) == 0 && !r.quoted {
		return nil, errBlankRecord
	}

	var text string
	if r.ReuseRecord {
		if len(r.data) > 0 {
			text = unsafe.String(unsafe.SliceData(r.data), len(r.data))
		}
		if cap(r.record) < count {
			r.record = make([]string, count)
		}
		r.record = r.record[:count]
	} else {
		text = string(r.data)
		r.record = make([]string, count)
	}
	for i := range count {
		r.record[i] = text[r.bounds[2*i]:r.bounds[2*i+1]]
	}

	if r.FieldsPerRecord <= 0 {
		r.FieldsPerRecord = count
		return r.record, nil
	}
	if count != r.FieldsPerRecord {
		err := fmt.Errorf("%w: found %d, expected %d", ErrFieldCount, count, r.FieldsPerRecord)
		return r.record, &ParseError{Line: r.recordLine, Err: err}
	}
	return r.record, nil
}

// fill reads the next chunk from src into buf.
func (r *Reader) fill() error {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		r.bufPos = 0
		r.bufLen = n
	}
	return err
}

func (r *Reader) peekByte() (byte, error) {
	for r.bufPos >= r.bufLen {
		if r.bufErr != nil {
			return 0, r.bufErr
		}
		if err := r.fill(); err != nil {
			r.bufErr = err
		}
	}
	return r.buf[r.bufPos], nil
}
