package csvrecord

import (
	"errors"
	"fmt"
	"strings"
)

// Schema and shape errors. They abort a read or write immediately.
var (
	// ErrDuplicateIndex is returned when two columns declare the same index.
	ErrDuplicateIndex = errors.New("csvrecord: duplicate column index")
	// ErrRequiredMissingIndex is returned when a required column has no index
	// and no header row will supply the column order.
	ErrRequiredMissingIndex = errors.New("csvrecord: required column has no index")
	// ErrTaggedMissingIndex is returned when a tagged column has no index while
	// writing without a header row.
	ErrTaggedMissingIndex = errors.New("csvrecord: tagged column has no index")
	// ErrMissingIndex is returned when a data column maps to a column without
	// an index and there is no header row.
	ErrMissingIndex = errors.New("csvrecord: column without index in file without header")
	// ErrWrongIndex is returned when a column index exceeds the width of a row.
	ErrWrongIndex = errors.New("csvrecord: column index beyond row width")
	// ErrNameNotInType is returned when a header names an unknown column.
	ErrNameNotInType = errors.New("csvrecord: header name not found in layout")
	// ErrMissingTag is returned when a header names an untagged column while
	// only tagged columns may be used.
	ErrMissingTag = errors.New("csvrecord: header name refers to untagged column")
	// ErrTooManyFields is returned when a row has more fields than the layout.
	ErrTooManyFields = errors.New("csvrecord: too many data fields")
	// ErrTooManyUntaggedFields is returned when a row reaches an untagged
	// column while only tagged columns may be used.
	ErrTooManyUntaggedFields = errors.New("csvrecord: data field maps to untagged column")
	// ErrTagRequired is returned when a file without header row is used
	// without restricting the layout to tagged columns.
	ErrTagRequired = errors.New("csvrecord: files without header require tagged columns")
	// ErrUnsupportedType is returned for columns whose value type has no conversion.
	ErrUnsupportedType = errors.New("csvrecord: unsupported column value type")
	// ErrDuplicateName is returned when two columns share a name.
	ErrDuplicateName = errors.New("csvrecord: duplicate column name")
	// ErrEmptyName is returned for a column declared without any name.
	ErrEmptyName = errors.New("csvrecord: column has an empty name")
)

// Data errors. They are collected per read and reported together.
var (
	// ErrWrongFormat is recorded when a value cannot be converted.
	ErrWrongFormat = errors.New("csvrecord: wrong data format")
	// ErrMissingRequired is recorded when a required column has no value.
	ErrMissingRequired = errors.New("csvrecord: missing required field")
)

// SchemaError describes a fatal mapping problem. Line is zero when the error
// was detected before any row was read.
type SchemaError struct {
	Type   string
	Column string
	Other  string
	Index  int
	Line   int
	File   string
	Err    error
}

// Error formats the schema error with whatever location details are known.
func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, " (type %s", e.Type)
	if e.Column != "" {
		fmt.Fprintf(&b, ", column %q", e.Column)
	}
	if e.Other != "" {
		fmt.Fprintf(&b, " and %q", e.Other)
	}
	if e.Index != 0 {
		fmt.Fprintf(&b, ", index %d", e.Index)
	}
	writeLocation(&b, e.Line, e.File)
	b.WriteByte(')')
	return b.String()
}

// Unwrap returns the sentinel so SchemaError works with errors.Is.
func (e *SchemaError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DataError describes one bad or missing value in one row.
type DataError struct {
	Type   string
	Column string
	Value  string
	Line   int
	File   string
	Err    error
	// Cause is the conversion failure behind ErrWrongFormat, if any.
	Cause error
}

// Error formats the data error with its column, value and location.
func (e *DataError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, " (type %s, column %q", e.Type, e.Column)
	if errors.Is(e.Err, ErrWrongFormat) {
		fmt.Fprintf(&b, ", value %q", e.Value)
	}
	writeLocation(&b, e.Line, e.File)
	b.WriteByte(')')
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the conversion cause.
func (e *DataError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func writeLocation(b *strings.Builder, line int, file string) {
	if line > 0 {
		fmt.Fprintf(b, ", line %d", line)
	}
	if file != "" {
		fmt.Fprintf(b, ", file %s", file)
	}
}

// AggregatedError collects the data errors of one read in the order they
// were found.
type AggregatedError struct {
	errs []error
	max  int
}

func newAggregatedError(max int) *AggregatedError {
	return &AggregatedError{max: max}
}

// add records err and reports whether the configured limit has been reached.
func (a *AggregatedError) add(err error) bool {
	a.errs = append(a.errs, err)
	return a.max > 0 && len(a.errs) >= a.max
}

// Len returns the number of collected errors.
func (a *AggregatedError) Len() int {
	if a == nil {
		return 0
	}
	return len(a.errs)
}

// Errors returns the collected errors.
func (a *AggregatedError) Errors() []error {
	if a == nil {
		return nil
	}
	return a.errs
}

// Unwrap lets errors.Is and errors.As search the collected errors.
func (a *AggregatedError) Unwrap() []error {
	return a.Errors()
}

// Error summarises the collection, listing every error on its own line.
func (a *AggregatedError) Error() string {
	if a.Len() == 0 {
		return "csvrecord: no errors"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "csvrecord: %d data error(s)", len(a.errs))
	for _, err := range a.errs {
		b.WriteString("\n\t")
		b.WriteString(err.Error())
	}
	return b.String()
}
