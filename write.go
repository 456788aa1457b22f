package csvrecord

import (
	"errors"
	"io"
	"iter"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
)

// Write writes records to dst. dst is not closed.
func Write[T any](dst io.Writer, layout Layout[T], records []T, desc Description) error {
	return WriteSeq(dst, layout, slices.Values(records), desc)
}

// WriteSeq writes every record produced by records to dst, preceded by a
// header row when the description asks for one. Without header row every
// written column must carry an index, since the index is all a reader has to
// go on.
func WriteSeq[T any](dst io.Writer, layout Layout[T], records iter.Seq[T], desc Description) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	noHeader := !desc.FirstLineHasColumnNames
	schema, err := BuildSchema(layout, desc, noHeader, noHeader)
	if err != nil {
		return err
	}

	w := NewWriter(dst)
	w.Comma = desc.separator()
	w.UseCRLF = desc.UseCRLF
	w.AlwaysQuote = desc.QuoteAllFields

	var widths []int
	if desc.NoSeparator {
		widths = schema.Widths()
	}
	emit := func(row Row) error {
		if widths != nil {
			return w.WriteFixed(row, widths)
		}
		return w.WriteRow(row)
	}

	if desc.FirstLineHasColumnNames {
		if err := emit(schema.Names()); err != nil {
			return err
		}
	}
	rows := 0
	for rec := range records {
		row, err := schema.Encode(&rec)
		if err != nil {
			return err
		}
		if err := emit(row); err != nil {
			return err
		}
		rows++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	schema.log.WithFields(logrus.Fields{
		"rows":   rows,
		"header": desc.FirstLineHasColumnNames,
	}).Debug("write finished")
	return nil
}

// WriteFile creates or truncates the file at path and writes records to it
// in the description's encoding.
func WriteFile[T any](path string, layout Layout[T], records []T, desc Description) (err error) {
	if err := desc.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	enc, err := NewEncodingWriter(f, desc.Encoding)
	if err != nil {
		return err
	}
	if err := Write(enc, layout, records, desc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
