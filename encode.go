package csvrecord

import "fmt"

// Encode renders rec as a row in schema order. Untagged columns are left out
// when the description enforces tagged columns.
func (s *Schema[T]) Encode(rec *T) (Row, error) {
	row := make(Row, 0, len(s.columns))
	for i := range s.columns {
		if !s.written(i) {
			continue
		}
		col := &s.columns[i]
		value, null, err := col.extract(rec, &col.desc, s.codec)
		if err != nil {
			return nil, fmt.Errorf("csvrecord: encode column %q of %s: %w", col.desc.Name, s.typeName, err)
		}
		row = append(row, Cell{Value: value, Null: null})
	}
	return row, nil
}

// Names returns the header row matching Encode.
func (s *Schema[T]) Names() Row {
	row := make(Row, 0, len(s.columns))
	for i := range s.columns {
		if s.written(i) {
			row = append(row, Cell{Value: s.columns[i].desc.Name})
		}
	}
	return row
}
