package csvrecord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wide struct {
	A, B, C, D string
}

func wideField(member string, ref func(*wide) *string, opts ...Option) Column[wide] {
	return Field(member, ref, opts...)
}

func TestBuildSchemaOrdersColumns(t *testing.T) {
	t.Parallel()

	layout := NewLayout(
		wideField("A", func(w *wide) *string { return &w.A }),
		wideField("B", func(w *wide) *string { return &w.B }, Index(3)),
		wideField("C", func(w *wide) *string { return &w.C }),
		wideField("D", func(w *wide) *string { return &w.D }, Index(1)),
	)
	schema, err := BuildSchema(layout, testDescription(), false, false)
	require.NoError(t, err)

	var names []string
	for _, d := range schema.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"D", "B", "A", "C"}, names)

	d, ok := schema.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, 3, d.Index)
	assert.True(t, d.HasIndex())
	_, ok = schema.Lookup("missing")
	assert.False(t, ok)
}

type celsius float64

func TestBuildSchemaErrors(t *testing.T) {
	t.Parallel()

	a := func(w *wide) *string { return &w.A }
	b := func(w *wide) *string { return &w.B }

	tests := []struct {
		name     string
		layout   Layout[wide]
		desc     func(*Description)
		required bool
		tagged   bool
		want     error
		column   string
		other    string
	}{
		{
			name:   "duplicateIndex",
			layout: NewLayout(wideField("A", a, Index(2)), wideField("B", b, Index(2))),
			want:   ErrDuplicateIndex,
			column: "B",
			other:  "A",
		},
		{
			name:   "indexBelowOne",
			layout: NewLayout(wideField("A", a, Index(0))),
			want:   ErrWrongIndex,
			column: "A",
		},
		{
			name:   "duplicateName",
			layout: NewLayout(wideField("A", a, Name("x")), wideField("B", b, Name("x"))),
			want:   ErrDuplicateName,
			column: "x",
			other:  "A",
		},
		{
			name: "namedNumericType",
			layout: NewLayout(Field("Temp", func(w *wide) *celsius {
				return new(celsius)
			})),
			want:   ErrUnsupportedType,
			column: "Temp",
		},
		{
			name: "complex",
			layout: NewLayout(Field("Z", func(w *wide) *complex128 {
				return new(complex128)
			})),
			want:   ErrUnsupportedType,
			column: "Z",
		},
		{
			name:   "emptyName",
			layout: NewLayout(wideField("A", a, Name(""))),
			want:   ErrEmptyName,
			column: "A",
		},
		{
			name:   "zeroColumn",
			layout: NewLayout(Column[wide]{}),
			want:   ErrUnsupportedType,
		},
		{
			name: "integerFormatOnFloat",
			layout: NewLayout(Field("F", func(w *wide) *float64 {
				return new(float64)
			}, OutputFormat("D3"))),
			want:   ErrUnsupportedType,
			column: "F",
		},
		{
			name:   "noHeaderUntagged",
			layout: NewLayout(wideField("A", a, Index(1))),
			desc:   func(d *Description) { d.FirstLineHasColumnNames = false },
			want:   ErrTagRequired,
		},
		{
			name:     "requiredWithoutIndex",
			layout:   NewLayout(wideField("A", a, Index(1)), wideField("B", b, Required())),
			required: true,
			want:     ErrRequiredMissingIndex,
			column:   "B",
		},
		{
			name:   "taggedWithoutIndex",
			layout: NewLayout(wideField("A", a, Index(1)), wideField("B", b)),
			tagged: true,
			want:   ErrTaggedMissingIndex,
			column: "B",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			desc := testDescription()
			if tc.desc != nil {
				tc.desc(&desc)
			}
			_, err := BuildSchema(tc.layout, desc, tc.required, tc.tagged)
			require.ErrorIs(t, err, tc.want)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.column, se.Column)
			assert.Equal(t, tc.other, se.Other)
			assert.Equal(t, "csvrecord.wide", se.Type)
		})
	}
}

func TestBuildSchemaUntaggedWithoutIndex(t *testing.T) {
	t.Parallel()

	layout := NewLayout(
		wideField("A", func(w *wide) *string { return &w.A }, Index(1)),
		wideField("B", func(w *wide) *string { return &w.B }, Untagged()),
	)
	schema, err := BuildSchema(layout, testDescription(), false, true)
	require.NoError(t, err)
	assert.Len(t, schema.Descriptors(), 2)
}

func TestBuildSchemaBadLocale(t *testing.T) {
	t.Parallel()

	desc := testDescription()
	desc.Locale = "not a locale"
	_, err := BuildSchema(itemLayout(), desc, false, false)
	assert.Error(t, err)
}

func TestLayoutNamed(t *testing.T) {
	t.Parallel()

	layout := NewLayout(wideField("A", func(w *wide) *string { return &w.A }, Index(0)))
	assert.Equal(t, "csvrecord.wide", layout.Name())

	_, err := BuildSchema(layout.Named("Report"), testDescription(), false, false)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Report", se.Type)
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	layout := NewLayout(
		wideField("A", func(w *wide) *string { return &w.A }, CharLength(4)),
		wideField("B", func(w *wide) *string { return &w.B }, CharLength(2), Untagged()),
	)
	header := Row{cell("B", 1), cell("extra", 1), cell("A", 1)}

	schema, err := BuildSchema(layout, testDescription(), false, false)
	require.NoError(t, err)

	_, err = schema.Reconcile(header)
	require.ErrorIs(t, err, ErrNameNotInType)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "extra", se.Column)
	assert.Equal(t, 1, se.Line)

	desc := testDescription()
	desc.IgnoreUnknownColumns = true
	schema, err = BuildSchema(layout, desc, false, false)
	require.NoError(t, err)

	m, err := schema.Reconcile(header)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "", "A"}, m.Columns())
	assert.Equal(t, []int{2, 0, 4}, m.Widths())

	desc.EnforceTagged = true
	schema, err = BuildSchema(layout, desc, false, false)
	require.NoError(t, err)
	_, err = schema.Reconcile(header)
	assert.ErrorIs(t, err, ErrMissingTag)
	assert.Equal(t, []int{4}, schema.Widths())
}

func TestDecodeShortRowReportsLastCellLine(t *testing.T) {
	t.Parallel()

	layout := NewLayout(
		wideField("A", func(w *wide) *string { return &w.A }),
		wideField("B", func(w *wide) *string { return &w.B }, Required()),
	)
	schema, err := BuildSchema(layout, testDescription(), false, false)
	require.NoError(t, err)
	m, err := schema.Reconcile(Row{cell("A", 1), cell("B", 1)})
	require.NoError(t, err)

	errs := newAggregatedError(0)
	rec, err := m.Decode(Row{cell("multi\nline", 4)}, errs)
	require.NoError(t, err)
	assert.Equal(t, "multi\nline", rec.A)
	require.Equal(t, 1, errs.Len())

	var de *DataError
	require.ErrorAs(t, errs.Errors()[0], &de)
	assert.Equal(t, "B", de.Column)
	assert.Equal(t, 4, de.Line)
}
