package csvrecord

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*Writer)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"a", "b", "c"}},
			want:    "a,b,c\n",
		},
		{
			name: "multipleRecords",
			records: [][]string{
				{"alpha", "beta"},
				{"gamma", "delta"},
			},
			want: "alpha,beta\ngamma,delta\n",
		},
		{
			name:    "emptyFieldIsQuoted",
			records: [][]string{{"", "b"}},
			want:    "\"\",b\n",
		},
		{
			name:    "commaForcesQuote",
			records: [][]string{{"alpha,beta"}},
			want:    "\"alpha,beta\"\n",
		},
		{
			name: "quoteEscaping",
			records: [][]string{
				{"he said \"hello\"", "plain"},
			},
			want: "\"he said \"\"hello\"\"\",plain\n",
		},
		{
			name: "newlineForcesQuote",
			records: [][]string{
				{"multi\nline", "car\rriage"},
			},
			want: "\"multi\nline\",\"car\rriage\"\n",
		},
		{
			name:    "leadingSpaceForcesQuote",
			records: [][]string{{" padded", "trail "}},
			want:    "\" padded\",trail \n",
		},
		{
			name: "alwaysQuote",
			records: [][]string{
				{"alpha", "beta"},
			},
			config: func(w *Writer) {
				w.AlwaysQuote = true
			},
			want: "\"alpha\",\"beta\"\n",
		},
		{
			name: "customComma",
			records: [][]string{
				{"a;b", "c,d"},
			},
			config: func(w *Writer) {
				w.Comma = ';'
			},
			want: "\"a;b\";c,d\n",
		},
		{
			name: "useCRLF",
			records: [][]string{
				{"a"},
				{"b"},
			},
			config: func(w *Writer) {
				w.UseCRLF = true
			},
			want: "a\r\nb\r\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			w.UseCRLF = false
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				if err := w.Write(rec); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestWriterNullAndEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UseCRLF = false
	w.AlwaysQuote = true

	row := Row{{Value: "a"}, {Null: true}, {Value: ""}, {Null: true}}
	if err := w.WriteRow(row); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got, want := buf.String(), "\"a\",,\"\",\n"; got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}

	rows, err := NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 4 {
		t.Fatalf("unexpected rows %#v", rows)
	}
	for i, wantNull := range []bool{false, true, false, true} {
		if rows[0][i].Null != wantNull {
			t.Fatalf("cell %d Null = %v, want %v", i, rows[0][i].Null, wantNull)
		}
	}
}

func TestWriterWriteFixed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UseCRLF = false

	widths := []int{4, 3, 2}
	if err := w.WriteFixed(Row{{Value: "ab"}, {Null: true}, {Value: "€€"}}, widths); err != nil {
		t.Fatalf("WriteFixed() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got, want := buf.String(), "ab     €€\n"; got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}

	if err := w.WriteFixed(Row{{Value: "toolong"}}, []int{3}); !errors.Is(err, ErrFieldTooWide) {
		t.Fatalf("WriteFixed() error = %v, want ErrFieldTooWide", err)
	}
	if err := w.WriteFixed(Row{{Value: "a"}}, widths); err == nil {
		t.Fatalf("WriteFixed() with mismatched widths should fail")
	}
	for _, value := range []string{"a\nb", "a\rb", "\r\n"} {
		if err := w.WriteFixed(Row{{Value: "ok"}, {Value: value}}, []int{4, 4}); !errors.Is(err, ErrFieldLineBreak) {
			t.Fatalf("WriteFixed(%q) error = %v, want ErrFieldLineBreak", value, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got, want := buf.String(), "ab     €€\n"; got != want {
		t.Fatalf("rejected rows left output behind: got %q want %q", got, want)
	}
}

func TestWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UseCRLF = false

	rows := []Row{
		{{Value: "alpha"}, {Value: "beta"}},
		{{Value: "gamma"}, {Null: true}},
	}

	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "alpha,beta\ngamma,\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}
}

func TestWriterReset(t *testing.T) {
	t.Parallel()

	var buf1 bytes.Buffer
	var buf2 bytes.Buffer

	var w Writer
	w.Reset(&buf1)

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := buf1.String(); got != "a\n" {
		t.Fatalf("unexpected buf1 contents %q", got)
	}

	w.Comma = ';'
	w.UseCRLF = true
	w.Reset(&buf2)
	if err := w.Write([]string{"x", "y"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := buf2.String(); got != "x;y\r\n" {
		t.Fatalf("unexpected buf2 contents %q", got)
	}
}

type flushFailWriter struct {
	fail error
}

func (f *flushFailWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewWriter(&flushFailWriter{fail: exp})

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Write([]string{"b"}); !errors.Is(err, exp) {
		t.Fatalf("Write() should return stored error %v, got %v", exp, err)
	}
	if err := w.Error(); !errors.Is(err, exp) {
		t.Fatalf("Error() should return %v, got %v", exp, err)
	}
}

func TestNewWriterNilPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("NewWriter should panic on nil writer")
		}
	}()
	NewWriter(nil)
}
