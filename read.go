package csvrecord

import (
	"io"
	"iter"

	"github.com/sirupsen/logrus"
)

// Sequence is a deferred read of records of type T. Nothing is read until a
// cursor is opened, and every Open or All starts over from the beginning:
// files are reopened and seekable streams are rewound.
type Sequence[T any] struct {
	layout Layout[T]
	desc   Description
	file   string
	open   func() (io.ReadCloser, error)
}

// Read returns the records in src. src is never closed. If src is an
// io.Seeker each new iteration rewinds it to the offset it had when the
// sequence was first opened; otherwise iteration continues where the
// previous one stopped. src is read as UTF-8; with
// DetectEncodingFromByteOrderMarks a leading byte order mark is stripped and
// may switch the stream to UTF-16.
func Read[T any](src io.Reader, layout Layout[T], desc Description) *Sequence[T] {
	seeker, _ := src.(io.Seeker)
	start := int64(-1)
	opened := false
	open := func() (io.ReadCloser, error) {
		if src == nil {
			return nil, errNilSource
		}
		if seeker != nil {
			if !opened {
				if pos, err := seeker.Seek(0, io.SeekCurrent); err == nil {
					start = pos
				}
			} else if start >= 0 {
				if _, err := seeker.Seek(start, io.SeekStart); err != nil {
					return nil, err
				}
			}
		}
		opened = true
		if !desc.DetectEncodingFromByteOrderMarks {
			return io.NopCloser(src), nil
		}
		// the decoder keeps state, so every iteration gets a fresh one
		r, err := NewDecodingReader(src, "", true)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(r), nil
	}
	return &Sequence[T]{layout: layout, desc: desc, open: open}
}

// ReadFile returns the records in the file at path, decoded with the
// description's encoding. The file is opened per iteration and closed when
// the iteration ends.
func ReadFile[T any](path string, layout Layout[T], desc Description) *Sequence[T] {
	return &Sequence[T]{
		layout: layout,
		desc:   desc,
		file:   path,
		open:   func() (io.ReadCloser, error) { return openFile(path, desc) },
	}
}

// Open builds the schema, opens the source and consumes the header row.
// Mapping errors are reported here, before any record is produced.
func (s *Sequence[T]) Open() (*Cursor[T], error) {
	desc := s.desc
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	schema, err := BuildSchema(s.layout, desc, !desc.FirstLineHasColumnNames, false)
	if err != nil {
		return nil, err
	}
	schema.file = s.file

	src, err := s.open()
	if err != nil {
		return nil, err
	}
	r := NewReader(src)
	r.Comma = desc.separator()
	r.IgnoreTrailingComma = desc.IgnoreTrailingSeparator

	c := &Cursor[T]{
		src:    src,
		reader: r,
		errs:   newAggregatedError(desc.MaxErrors),
		log:    schema.log,
	}
	if s.file != "" {
		c.log = c.log.WithField("file", s.file)
	}

	if !desc.FirstLineHasColumnNames {
		c.mapping = schema.Positional()
	} else {
		var widths []int
		if desc.NoSeparator {
			widths = schema.Widths()
		}
		header, err := r.ReadRow(widths)
		switch {
		case err == io.EOF:
			c.finish(nil)
			return c, nil
		case err != nil:
			src.Close()
			return nil, err
		}
		if c.mapping, err = schema.Reconcile(header); err != nil {
			src.Close()
			return nil, err
		}
	}
	if desc.NoSeparator {
		c.widths = c.mapping.Widths()
	}
	return c, nil
}

// All iterates over the records. A final non-nil error is yielded with a
// zero record: either the fatal error that stopped the read or, after the
// last record, the *AggregatedError holding every data error.
func (s *Sequence[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		c, err := s.Open()
		if err != nil {
			yield(zero, err)
			return
		}
		defer c.Close()
		for c.Next() {
			if !yield(c.Record(), nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Collect reads every record. Records decoded before an error are returned
// along with it.
func (s *Sequence[T]) Collect() ([]T, error) {
	var out []T
	for rec, err := range s.All() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Cursor walks the records of one opened sequence.
type Cursor[T any] struct {
	src     io.ReadCloser
	reader  *Reader
	mapping *Mapping[T]
	widths  []int
	errs    *AggregatedError
	log     logrus.FieldLogger

	record  T
	rowLine int
	rows    int
	err     error
	done    bool
	closed  bool
}

// Next advances to the next record. It returns false at the end of the input
// or when a fatal error stopped the read; Err tells which.
func (c *Cursor[T]) Next() bool {
	if c.done {
		return false
	}
	row, err := c.reader.ReadRow(c.widths)
	if err == io.EOF {
		c.finish(nil)
		return false
	}
	if err != nil {
		c.finish(err)
		return false
	}
	rec, err := c.mapping.Decode(row, c.errs)
	if err != nil {
		c.finish(err)
		return false
	}
	c.record = rec
	c.rowLine = row.Line()
	c.rows++
	return true
}

// Record returns the record decoded by the last call to Next.
func (c *Cursor[T]) Record() T {
	return c.record
}

// RowLine returns the line on which the current record's row started.
func (c *Cursor[T]) RowLine() int {
	return c.rowLine
}

// Err returns the error that ended the read, or the collected data errors
// once the input is exhausted. It is nil while records are still coming.
func (c *Cursor[T]) Err() error {
	return c.err
}

// Errors returns the data errors collected so far.
func (c *Cursor[T]) Errors() *AggregatedError {
	return c.errs
}

// Line returns the physical line the cursor's reader is positioned on.
func (c *Cursor[T]) Line() int {
	return c.reader.Line()
}

// Close releases the source. Closing before the end abandons the read;
// Errors still reports what was collected up to that point.
func (c *Cursor[T]) Close() error {
	c.done = true
	if c.closed {
		return nil
	}
	c.closed = true
	return c.src.Close()
}

func (c *Cursor[T]) finish(err error) {
	c.done = true
	if err == nil && c.errs.Len() > 0 {
		err = c.errs
	}
	c.err = err
	c.log.WithFields(logrus.Fields{
		"rows":   c.rows,
		"errors": c.errs.Len(),
	}).Debug("read finished")
	if !c.closed {
		c.closed = true
		if cerr := c.src.Close(); cerr != nil && c.err == nil {
			c.err = cerr
		}
	}
}
