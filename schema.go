package csvrecord

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// Schema is the ordered, validated column set of a layout. Columns are sorted
// by index; columns without index follow in declaration order.
type Schema[T any] struct {
	typeName string
	file     string
	columns  []Column[T]
	byName   map[string]int
	desc     Description
	codec    *codec
	log      logrus.FieldLogger
}

// BuildSchema validates layout against desc. requireRequiredIndexed demands
// an index on every required column and requireTaggedIndexed on every tagged
// column; both apply when no header row will supply the column order.
func BuildSchema[T any](layout Layout[T], desc Description, requireRequiredIndexed, requireTaggedIndexed bool) (*Schema[T], error) {
	typeName := layout.name
	if typeName == "" {
		typeName = NewLayout[T]().name
	}
	fail := func(col, other string, index int, err error) error {
		return &SchemaError{Type: typeName, Column: col, Other: other, Index: index, Err: err}
	}

	if !desc.FirstLineHasColumnNames && !desc.EnforceTagged {
		return nil, fail("", "", 0, ErrTagRequired)
	}

	loc, err := ParseLocale(desc.Locale)
	if err != nil {
		return nil, err
	}

	s := &Schema[T]{
		typeName: typeName,
		columns:  slices.Clone(layout.columns),
		byName:   make(map[string]int, len(layout.columns)),
		desc:     desc,
		codec:    &codec{loc: loc},
		log:      desc.logger().WithField("type", typeName),
	}

	for i := range s.columns {
		c := &s.columns[i]
		d := &c.desc
		if c.err != nil {
			return nil, fail(d.Name, "", 0, c.err)
		}
		if c.assign == nil || c.extract == nil {
			return nil, fail(d.Name, "", 0, fmt.Errorf("%w: column not declared with Field", ErrUnsupportedType))
		}
		if d.Name == "" {
			return nil, fail(d.member, "", 0, ErrEmptyName)
		}
		if d.Index != NoIndex && d.Index < 1 {
			return nil, fail(d.Name, "", d.Index, ErrWrongIndex)
		}
		if requireTaggedIndexed && d.Tagged && !d.HasIndex() {
			return nil, fail(d.Name, "", 0, ErrTaggedMissingIndex)
		}
		if requireRequiredIndexed && !d.CanBeNull && !d.HasIndex() {
			return nil, fail(d.Name, "", 0, ErrRequiredMissingIndex)
		}
		if d.kind.numeric() {
			if err := checkNumberFormat(d); err != nil {
				return nil, fail(d.Name, "", 0, fmt.Errorf("%w: %v", ErrUnsupportedType, err))
			}
		}
		d.conversion = resolveConversion(d, desc.UseOutputFormatForParsing)
	}

	slices.SortStableFunc(s.columns, func(a, b Column[T]) int {
		return cmp.Compare(a.desc.Index, b.desc.Index)
	})

	for i := range s.columns {
		d := &s.columns[i].desc
		if i > 0 {
			prev := &s.columns[i-1].desc
			if d.HasIndex() && d.Index == prev.Index {
				return nil, fail(d.Name, prev.Name, d.Index, ErrDuplicateIndex)
			}
		}
		if j, dup := s.byName[d.Name]; dup {
			return nil, fail(d.Name, s.columns[j].desc.member, 0, ErrDuplicateName)
		}
		s.byName[d.Name] = i
	}

	s.log.WithFields(logrus.Fields{
		"columns": len(s.columns),
		"locale":  loc.String(),
	}).Debug("schema built")
	return s, nil
}

// Descriptors returns the column metadata in schema order.
func (s *Schema[T]) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.columns))
	for i := range s.columns {
		out[i] = s.columns[i].desc
	}
	return out
}

// Lookup returns the descriptor named name.
func (s *Schema[T]) Lookup(name string) (Descriptor, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return s.columns[i].desc, true
}

// written reports whether column i takes part in writes.
func (s *Schema[T]) written(i int) bool {
	return !s.desc.EnforceTagged || s.columns[i].desc.Tagged
}

// Widths returns the character widths of the written columns in order.
func (s *Schema[T]) Widths() []int {
	var widths []int
	for i := range s.columns {
		if s.written(i) {
			widths = append(widths, s.columns[i].desc.CharLength)
		}
	}
	return widths
}

func (s *Schema[T]) schemaError(col string, line int, err error) error {
	return &SchemaError{Type: s.typeName, Column: col, Line: line, File: s.file, Err: err}
}

// Mapping aligns the columns of one file with a schema. Slot i holds the
// schema position of file column i, or -1 for a column that is skipped.
type Mapping[T any] struct {
	schema *Schema[T]
	slots  []int
	header bool
}

// Positional maps file columns to schema columns by order, for files
// without header row. Columns that are not written under EnforceTagged are
// left out, so file positions line up with what Write produces.
func (s *Schema[T]) Positional() *Mapping[T] {
	slots := make([]int, 0, len(s.columns))
	for i := range s.columns {
		if s.written(i) {
			slots = append(slots, i)
		}
	}
	return &Mapping[T]{schema: s, slots: slots}
}

// Reconcile maps file columns to schema columns by the names in header.
func (s *Schema[T]) Reconcile(header Row) (*Mapping[T], error) {
	m := &Mapping[T]{schema: s, slots: make([]int, len(header)), header: true}
	for i, cell := range header {
		idx, ok := s.byName[cell.Value]
		if !ok {
			if !s.desc.IgnoreUnknownColumns {
				return nil, s.schemaError(cell.Value, cell.Line, ErrNameNotInType)
			}
			s.log.WithFields(logrus.Fields{"column": cell.Value, "position": i + 1}).
				Debug("skipping unknown column")
			m.slots[i] = -1
			continue
		}
		if s.desc.EnforceTagged && !s.columns[idx].desc.Tagged {
			return nil, s.schemaError(cell.Value, cell.Line, ErrMissingTag)
		}
		m.slots[i] = idx
	}
	s.log.WithField("columns", len(header)).Debug("header reconciled")
	return m, nil
}

// Widths returns the character widths of the file columns in file order.
func (m *Mapping[T]) Widths() []int {
	widths := make([]int, len(m.slots))
	for i, slot := range m.slots {
		if slot >= 0 {
			widths[i] = m.schema.columns[slot].desc.CharLength
		}
	}
	return widths
}

// Columns returns the names of the mapped file columns; skipped columns
// are reported as "".
func (m *Mapping[T]) Columns() []string {
	names := make([]string, len(m.slots))
	for i, slot := range m.slots {
		if slot >= 0 {
			names[i] = m.schema.columns[slot].desc.Name
		}
	}
	return names
}
