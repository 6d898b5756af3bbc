package csv2jsonl

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderReadRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		comma byte
		quote byte
		reuse bool
		want  [][]string
	}{
		{
			name:  "basicRecords",
			input: "one,two\nthree,four\n",
			want:  [][]string{{"one", "two"}, {"three", "four"}},
		},
		{
			name:  "finalRecordWithoutTerminator",
			input: "alpha,beta,gamma",
			want:  [][]string{{"alpha", "beta", "gamma"}},
		},
		{
			name:  "windowsLineEndings",
			input: "a,b\r\nc,d\r\n",
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "quotedDelimiter",
			input: "a,\"b,b\",c\n",
			want:  [][]string{{"a", "b,b", "c"}},
		},
		{
			name:  "escapedQuote",
			input: "a,\"b\"\"c\",d\n",
			want:  [][]string{{"a", "b\"c", "d"}},
		},
		{
			name:  "embeddedNewline",
			input: "a,\"b\nc\",d\n",
			want:  [][]string{{"a", "b\nc", "d"}},
		},
		{
			name:  "emptyFields",
			input: ",,\n",
			want:  [][]string{{"", "", ""}},
		},
		{
			name:  "tabDelimiter",
			input: "left\tright\nup\tdown\n",
			comma: '\t',
			want:  [][]string{{"left", "right"}, {"up", "down"}},
		},
		{
			name:  "customQuote",
			input: "alpha,'beta''gamma',delta\n",
			quote: '\'',
			want:  [][]string{{"alpha", "beta'gamma", "delta"}},
		},
		{
			name:  "reuseRecord",
			input: "left,right\nup,down\n",
			reuse: true,
			want:  [][]string{{"left", "right"}, {"up", "down"}},
		},
		{
			name:  "quotedEOF",
			input: "\"quoted\"",
			want:  [][]string{{"quoted"}},
		},
		{
			name:  "carriageReturnEOF",
			input: "one\rtwo",
			want:  [][]string{{"one"}, {"two"}},
		},
		{
			name:  "blankLinesSkipped",
			input: "a,b\n\n1,2\r\n\r\n3,4\n\n",
			want:  [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}},
		},
		{
			name:  "quotedEmptyLineKept",
			input: "a\n\"\"\n",
			want:  [][]string{{"a"}, {""}},
		},
		{
			name:  "crBeforeQuotedField",
			input: "a\r\"b\"\n",
			want:  [][]string{{"a"}, {"b"}},
		},
		{
			name:  "emptyInput",
			input: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewReader(strings.NewReader(tc.input))
			if tc.comma != 0 {
				r.Comma = tc.comma
			}
			if tc.quote != 0 {
				r.Quote = tc.quote
			}
			r.ReuseRecord = tc.reuse

			var records [][]string
			for {
				rec, err := r.Read()
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				records = append(records, cloneRecord(rec))
			}
			assert.Equal(t, tc.want, records)
		})
	}
}

func TestReaderReuseRecord(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("alpha\nbeta\n"))
	r.ReuseRecord = true

	first, err := r.Read()
	require.NoError(t, err)
	second, err := r.Read()
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Same(t, &first[0], &second[0], "expected backing slice to be reused")
	assert.Equal(t, "beta", first[0])

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderReuseRecordDisabled(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("alpha\nbeta\n"))

	first, err := r.Read()
	require.NoError(t, err)
	second, err := r.Read()
	require.NoError(t, err)

	assert.NotSame(t, &first[0], &second[0])
	assert.Equal(t, "alpha", first[0])
	assert.Equal(t, "beta", second[0])
}

func TestReaderLenientQuotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "quoteInsideUnquotedField",
			input: "h,w\nbob,5'10\"\n",
			want:  [][]string{{"h", "w"}, {"bob", "5'10\""}},
		},
		{
			name:  "quoteMidField",
			input: "a\"b,c\n",
			want:  [][]string{{"a\"b", "c"}},
		},
		{
			name:  "leadingSpaceBeforeQuote",
			input: "x, \"y\"\n",
			want:  [][]string{{"x", " \"y\""}},
		},
		{
			name:  "bytesAfterClosingQuote",
			input: "\"ab\"cd,e\n",
			want:  [][]string{{"abcd", "e"}},
		},
		{
			name:  "quoteAfterClosingQuoteIsLiteral",
			input: "\"ab\"c\"d\n",
			want:  [][]string{{"abc\"d"}},
		},
		{
			name:  "unterminatedQuoteSameLine",
			input: "\"value",
			want:  [][]string{{"value"}},
		},
		{
			name:  "unterminatedQuoteRunsToEOF",
			input: "a,\"alpha\nbeta,gamma\n",
			want:  [][]string{{"a", "alpha\nbeta,gamma\n"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			records, err := NewReader(strings.NewReader(tc.input)).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tc.want, records)

			trickled, err := NewReader(oneByteReader{strings.NewReader(tc.input)}).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, tc.want, trickled)
		})
	}
}

func TestReaderReadAll(t *testing.T) {
	t.Parallel()

	const input = "a,b,c\n\"d\",\"e,f\",\"g\"\"h\"\nlast,row,\n"
	want := [][]string{
		{"a", "b", "c"},
		{"d", "e,f", "g\"h"},
		{"last", "row", ""},
	}

	for _, reuse := range []bool{false, true} {
		r := NewReader(strings.NewReader(input))
		r.ReuseRecord = reuse
		records, err := r.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, want, records, "reuse=%v", reuse)
	}
}

func TestReaderReadAllError(t *testing.T) {
	t.Parallel()

	records, err := NewReader(strings.NewReader("a,b\n1,2\n3\n")).ReadAll()
	assert.Nil(t, records)
	assert.ErrorIs(t, err, ErrFieldCount)
}

func TestParseErrorMethods(t *testing.T) {
	t.Parallel()

	err := &ParseError{Line: 3, Err: ErrFieldCount}
	assert.Equal(t, "csv2jsonl: parse error on line 3: csv2jsonl: wrong number of fields", err.Error())
	assert.ErrorIs(t, err, ErrFieldCount)

	var nilErr *ParseError
	assert.Empty(t, nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}

func TestReaderFieldsPerRecord(t *testing.T) {
	t.Parallel()

	t.Run("autoDetectFirstRecord", func(t *testing.T) {
		t.Parallel()

		r := NewReader(strings.NewReader("a,b\nc,d\n"))
		record, err := r.Read()
		require.NoError(t, err)
		assert.Len(t, record, 2)
		assert.Equal(t, 2, r.FieldsPerRecord)

		_, err = r.Read()
		assert.NoError(t, err)
	})

	t.Run("mismatchReportsRecordLine", func(t *testing.T) {
		t.Parallel()

		r := NewReader(strings.NewReader("x,y\n\"multi\nline\",2\n1,2,3\n"))
		for range 2 {
			_, err := r.Read()
			require.NoError(t, err)
		}

		record, err := r.Read()
		assert.Len(t, record, 3)
		require.ErrorIs(t, err, ErrFieldCount)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 4, perr.Line)
		assert.Contains(t, err.Error(), "found 3, expected 2")
	})
}

func TestReaderLine(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("h\n\n\"a\nb\"\nc\n"))
	var lines []int
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		lines = append(lines, r.Line())
	}
	assert.Equal(t, []int{1, 3, 5}, lines)
}

func TestNewReaderNilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewReader(nil) })
}

// oneByteReader forces every buffer refill boundary to be exercised.
type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestReaderSmallReads(t *testing.T) {
	t.Parallel()

	const input = "a,\"b\"\"c\",d\r\n\r\n\"x\ny\",,z\rlast,\"\",end"
	want, err := NewReader(strings.NewReader(input)).ReadAll()
	require.NoError(t, err)

	got, err := NewReader(oneByteReader{strings.NewReader(input)}).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Len(t, got, 3)
}
