package csvrecord

import (
	"github.com/sirupsen/logrus"
)

// Decode builds one record from row. Bad or missing values are added to errs
// and do not stop the row; the record is returned with whatever could be
// converted. A non-nil error is fatal for the whole read: a shape problem
// (*SchemaError) or errs itself once it reached its limit.
func (m *Mapping[T]) Decode(row Row, errs *AggregatedError) (T, error) {
	var rec T
	s := m.schema
	desc := &s.desc

	if len(row) > len(m.slots) && !desc.IgnoreUnknownColumns {
		return rec, s.schemaError("", row.Line(), ErrTooManyFields)
	}

	seen := make([]bool, len(s.columns))
	n := min(len(row), len(m.slots))
	for i := 0; i < n; i++ {
		slot := m.slots[i]
		if slot < 0 {
			continue
		}
		col := &s.columns[slot]
		d := &col.desc

		if desc.EnforceTagged && !d.Tagged {
			return rec, s.schemaError(d.Name, row[i].Line, ErrTooManyUntaggedFields)
		}

		pos := i
		if !m.header {
			if !d.HasIndex() {
				return rec, s.schemaError(d.Name, row[i].Line, ErrMissingIndex)
			}
			if desc.UseFieldIndexForReadingData {
				if d.Index > len(row) {
					return rec, &SchemaError{Type: s.typeName, Column: d.Name, Index: d.Index, Line: row[i].Line, File: s.file, Err: ErrWrongIndex}
				}
				pos = d.Index - 1
			}
		}
		seen[slot] = true

		cell := row[pos]
		if cell.Null {
			if !d.CanBeNull {
				if err := m.report(errs, &DataError{Err: ErrMissingRequired, Column: d.Name, Line: cell.Line}); err != nil {
					return rec, err
				}
			}
			continue
		}
		if err := col.assign(&rec, cell.Value, d, s.codec); err != nil {
			dataErr := &DataError{Err: ErrWrongFormat, Column: d.Name, Value: cell.Value, Line: cell.Line, Cause: err}
			if err := m.report(errs, dataErr); err != nil {
				return rec, err
			}
		}
	}

	// Columns that got no cell at all, e.g. because the row is short.
	for i := range s.columns {
		d := &s.columns[i].desc
		if seen[i] || d.CanBeNull || (desc.EnforceTagged && !d.Tagged) {
			continue
		}
		if err := m.report(errs, &DataError{Err: ErrMissingRequired, Column: d.Name, Line: row.LastLine()}); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// report adds a data error and returns errs when the limit is reached.
func (m *Mapping[T]) report(errs *AggregatedError, err *DataError) error {
	err.Type = m.schema.typeName
	err.File = m.schema.file
	m.schema.log.WithFields(logrus.Fields{
		"column": err.Column,
		"line":   err.Line,
	}).WithError(err).Debug("data error")
	if errs.add(err) {
		return errs
	}
	return nil
}
