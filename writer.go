package csvrecord

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"unicode/utf8"
)

var (
	errNilWriter      = errors.New("csvrecord: writer is nil")
	errWriterNoTarget = errors.New("csvrecord: writer destination cannot be nil")

	// ErrFieldTooWide is returned when a value does not fit its fixed-width column.
	ErrFieldTooWide = errors.New("csvrecord: value wider than its fixed-width column")
	// ErrFieldLineBreak is returned when a fixed-width value contains a line
	// terminator, which that format has no way to escape.
	ErrFieldLineBreak = errors.New("csvrecord: fixed-width value contains a line break")
)

// Writer emits rows as delimited or fixed-width text.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma rune
	// UseCRLF terminates rows with \r\n instead of \n. NewWriter sets it on Windows.
	UseCRLF bool
	// AlwaysQuote forces quoting for every non-null field.
	AlwaysQuote bool

	err error
}

// NewWriter creates a Writer with internal buffering. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:     bufio.NewWriterSize(w, defaultBufferSize),
		Comma:   ',',
		UseCRLF: runtime.GOOS == "windows",
	}
}

// Reset updates the underlying writer while preserving the configuration flags.
func (w *Writer) Reset(dst io.Writer) {
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

// WriteRow emits one delimited row. Null cells are written as nothing at all,
// empty values as "" so that the two stay distinguishable.
func (w *Writer) WriteRow(row Row) error {
	if err := w.ready(); err != nil {
		return err
	}

	comma := w.Comma
	if comma == 0 {
		comma = ','
	}

	for i := range row {
		if i > 0 {
			if _, err := w.dst.WriteRune(comma); err != nil {
				w.err = err
				return err
			}
		}
		if row[i].Null {
			continue
		}
		if err := w.writeField(row[i].Value, comma); err != nil {
			w.err = err
			return err
		}
	}
	return w.endRow()
}

// WriteFixed emits one fixed-width row, padding each value with spaces to its
// width. widths must have one entry per cell.
func (w *Writer) WriteFixed(row Row, widths []int) error {
	if err := w.ready(); err != nil {
		return err
	}
	if len(widths) != len(row) {
		return fmt.Errorf("csvrecord: %d widths for %d cells", len(widths), len(row))
	}

	// Check every cell first so a bad value leaves no partial line behind.
	for i, cell := range row {
		if strings.ContainsAny(cell.Value, "\r\n") {
			return fmt.Errorf("%w: %q", ErrFieldLineBreak, cell.Value)
		}
		if utf8.RuneCountInString(cell.Value) > widths[i] {
			return fmt.Errorf("%w: %q exceeds %d characters", ErrFieldTooWide, cell.Value, widths[i])
		}
	}
	for i, cell := range row {
		n := utf8.RuneCountInString(cell.Value)
		if _, err := w.dst.WriteString(cell.Value); err != nil {
			w.err = err
			return err
		}
		if _, err := w.dst.WriteString(strings.Repeat(" ", widths[i]-n)); err != nil {
			w.err = err
			return err
		}
	}
	return w.endRow()
}

// Write emits a row of plain strings; every value is treated as non-null.
func (w *Writer) Write(record []string) error {
	row := make(Row, len(record))
	for i, v := range record {
		row[i] = Cell{Value: v}
	}
	return w.WriteRow(row)
}

// WriteAll writes multiple rows, stopping at the first error.
func (w *Writer) WriteAll(rows []Row) error {
	if w == nil {
		return errNilWriter
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) ready() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	return w.err
}

func (w *Writer) endRow() error {
	var err error
	if w.UseCRLF {
		_, err = w.dst.WriteString("\r\n")
	} else {
		err = w.dst.WriteByte('\n')
	}
	if err != nil {
		w.err = err
	}
	return err
}

func (w *Writer) writeField(field string, comma rune) error {
	if !w.AlwaysQuote && !fieldNeedsQuote(field, comma) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte('"'); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == '"' {
			if _, err := w.dst.WriteString(field[start : i+1]); err != nil {
				return err
			}
			if err := w.dst.WriteByte('"'); err != nil {
				return err
			}
			start = i + 1
		}
	}
	if start < len(field) {
		if _, err := w.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	return w.dst.WriteByte('"')
}

// fieldNeedsQuote reports whether field would not read back verbatim unquoted.
// Leading spaces are dropped by the reader, so they force quoting as well.
func fieldNeedsQuote(field string, comma rune) bool {
	if field == "" || field[0] == ' ' {
		return true
	}
	return strings.ContainsRune(field, comma) || strings.ContainsAny(field, "\"\r\n")
}
