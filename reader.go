package csvrecord

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

var errNilSource = errors.New("csvrecord: reader source cannot be nil")

// Cell is one raw field value paired with the physical line it started on.
// Null marks a field with no text at all, as opposed to a quoted empty string.
type Cell struct {
	Value string
	Null  bool
	Line  int
}

// Row is one logical record as produced by Reader.ReadRow.
type Row []Cell

// Line returns the line on which the row started, or 0 for an empty row.
func (r Row) Line() int {
	if len(r) == 0 {
		return 0
	}
	return r[0].Line
}

// LastLine returns the starting line of the last cell in the row.
func (r Row) LastLine() int {
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1].Line
}

// Strings flattens the row into its values, rendering null cells as "".
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Value
	}
	return out
}

// field parsing states
const (
	stateBeforeData = iota
	stateUnquoted
	stateQuoted
	stateAfterQuoted
)

// Reader tokenizes delimited or fixed-width text into rows of cells.
type Reader struct {
	src io.Reader

	// Comma is the field separator. Default is ','.
	Comma rune
	// IgnoreTrailingComma drops a separator that is immediately followed by a
	// line terminator instead of treating it as the start of an empty field.
	IgnoreTrailingComma bool

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	field  []byte
	line   int
	prevCR bool
}

// NewReader creates a Reader that consumes text from r, panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic(errNilSource.Error())
	}
	return &Reader{
		src:   r,
		Comma: ',',
		buf:   make([]byte, defaultBufferSize),
		field: make([]byte, 0, 128),
		line:  1,
	}
}

// Line reports the physical line the reader is positioned on.
func (r *Reader) Line() int {
	return r.line
}

// ReadRow returns the next logical row. When widths is non-nil the row is read
// in fixed-width mode, one field per width. io.EOF signals that no row remains.
func (r *Reader) ReadRow(widths []int) (Row, error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	if widths != nil {
		return r.readFixed(widths)
	}
	// A blank physical line comes back as a single null cell.
	return r.readDelimited()
}

// ReadAll exhausts the reader in delimited mode and returns every row.
func (r *Reader) ReadAll() (rows []Row, err error) {
	for {
		row, err := r.ReadRow(nil)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func (r *Reader) readDelimited() (Row, error) {
	var row Row
	for {
		line := r.line
		value, found, rowEnd, eof, err := r.readField()
		if err != nil {
			return nil, err
		}
		if eof {
			// A separator already seen means the row has one more (possibly empty) field.
			if found || len(row) > 0 {
				row = append(row, Cell{Value: value, Null: !found, Line: line})
			}
			if len(row) == 0 {
				return nil, io.EOF
			}
			return row, nil
		}
		row = append(row, Cell{Value: value, Null: !found, Line: line})
		if rowEnd {
			return row, nil
		}
	}
}

// readField scans one delimited field. found is false when no data (not even
// an opening quote) was seen; rowEnd reports a consumed line terminator.
func (r *Reader) readField() (value string, found, rowEnd, eof bool, err error) {
	comma := r.Comma
	if comma == 0 {
		comma = ','
	}
	r.field = r.field[:0]
	state := stateBeforeData

	for {
		c, ok, err := r.readRune()
		if err != nil {
			return "", false, false, false, err
		}
		if !ok {
			return string(r.field), found, true, true, nil
		}

		if state != stateQuoted {
			if c == comma {
				if r.IgnoreTrailingComma {
					next, ok, err := r.peekRune()
					if err != nil {
						return "", false, false, false, err
					}
					if ok && (next == '\n' || next == '\r') {
						continue
					}
				}
				return string(r.field), found, false, false, nil
			}
			if c == '\n' || c == '\r' {
				if c == '\r' {
					if err := r.skipLF(); err != nil {
						return "", false, false, false, err
					}
				}
				return string(r.field), found, true, false, nil
			}
		}

		switch state {
		case stateBeforeData:
			switch c {
			case ' ':
				// whitespace preceding data is discarded
			case '"':
				state = stateQuoted
				found = true
			default:
				state = stateUnquoted
				found = true
				r.field = utf8.AppendRune(r.field, c)
			}
		case stateQuoted:
			if c == '"' {
				next, ok, err := r.peekRune()
				if err != nil {
					return "", false, false, false, err
				}
				if ok && next == '"' {
					r.readRune()
					r.field = append(r.field, '"')
					continue
				}
				state = stateAfterQuoted
				continue
			}
			r.field = utf8.AppendRune(r.field, c)
		default:
			r.field = utf8.AppendRune(r.field, c)
		}
	}
}

func (r *Reader) readFixed(widths []int) (Row, error) {
	var row Row
	for _, width := range widths {
		line := r.line
		r.field = r.field[:0]
		n := 0
		ended, eof := false, false
		for n < width {
			c, ok, err := r.readRune()
			if err != nil {
				return nil, err
			}
			if !ok {
				eof = true
				break
			}
			if c == '\n' || c == '\r' {
				// short line: the terminator ends both field and row
				if c == '\r' {
					if err := r.skipLF(); err != nil {
						return nil, err
					}
				}
				ended = true
				break
			}
			r.field = utf8.AppendRune(r.field, c)
			n++
		}
		if n == 0 {
			switch {
			case eof && len(row) == 0:
				return nil, io.EOF
			case eof:
				return row, nil
			}
		}
		value := strings.Trim(string(r.field), " ")
		row = append(row, Cell{Value: value, Null: value == "", Line: line})
		if ended || eof {
			return row, nil
		}
	}
	if err := r.skipLine(); err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, io.EOF
	}
	return row, nil
}

// skipLine discards the rest of the physical line including its terminator.
func (r *Reader) skipLine() error {
	for {
		c, ok, err := r.readRune()
		if err != nil || !ok {
			return err
		}
		switch c {
		case '\n':
			return nil
		case '\r':
			return r.skipLF()
		}
	}
}

// skipLF consumes a '\n' that directly follows a '\r'.
func (r *Reader) skipLF() error {
	next, ok, err := r.peekRune()
	if err != nil {
		return err
	}
	if ok && next == '\n' {
		_, _, err = r.readRune()
	}
	return err
}

// readRune consumes the next rune, tracking physical lines. A "\r\n" pair
// advances the line count once.
func (r *Reader) readRune() (rune, bool, error) {
	c, size, ok, err := r.decodeNext()
	if !ok || err != nil {
		return 0, false, err
	}
	r.bufPos += size
	switch {
	case c == '\r':
		r.line++
	case c == '\n' && !r.prevCR:
		r.line++
	}
	r.prevCR = c == '\r'
	return c, true, nil
}

// peekRune returns the next rune without consuming it.
func (r *Reader) peekRune() (rune, bool, error) {
	c, _, ok, err := r.decodeNext()
	return c, ok, err
}

func (r *Reader) decodeNext() (rune, int, bool, error) {
	if !utf8.FullRune(r.buf[r.bufPos:r.bufLen]) {
		if err := r.fill(); err != nil {
			return 0, 0, false, err
		}
	}
	if r.bufPos >= r.bufLen {
		return 0, 0, false, nil
	}
	c, size := utf8.DecodeRune(r.buf[r.bufPos:r.bufLen])
	return c, size, true, nil
}

// fill refills the buffer from src until it holds a complete rune or the
// source is exhausted. Unconsumed bytes are moved to the front first.
func (r *Reader) fill() error {
	for !utf8.FullRune(r.buf[r.bufPos:r.bufLen]) {
		if r.bufErr != nil {
			if r.bufErr == io.EOF || r.bufPos < r.bufLen {
				return nil
			}
			return r.bufErr
		}
		if r.bufPos > 0 {
			r.bufLen = copy(r.buf, r.buf[r.bufPos:r.bufLen])
			r.bufPos = 0
		}
		n, err := r.src.Read(r.buf[r.bufLen:])
		r.bufLen += n
		if err != nil {
			r.bufErr = err
		}
	}
	return nil
}
