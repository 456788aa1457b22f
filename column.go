package csvrecord

import (
	"encoding"
	"fmt"
	"math"
	"time"
)

// NoIndex marks a column without an explicit position. Such columns sort
// after every indexed column.
const NoIndex = math.MaxInt32

// Descriptor is the untyped metadata of one column of a layout.
type Descriptor struct {
	// Name is the header name; it defaults to the member name.
	Name string
	// Index is the 1-based position of the column, or NoIndex.
	Index int
	// CanBeNull allows the column to be absent or empty on read.
	CanBeNull bool
	// OutputFormat renders numbers and times on write and, when enabled,
	// parses times on read.
	OutputFormat string
	// NumberStyle controls which notations numeric columns accept on read.
	NumberStyle NumberStyle
	// CharLength is the width of the column in fixed-width files.
	CharLength int
	// Tagged is false for members declared as plain, unmapped fields.
	Tagged bool

	member     string
	kind       valueKind
	conversion conversion
}

// HasIndex reports whether the column declares an explicit position.
func (d *Descriptor) HasIndex() bool {
	return d.Index != NoIndex
}

// Member returns the name the column was declared with.
func (d *Descriptor) Member() string {
	return d.member
}

// Option customises a column declaration.
type Option func(*Descriptor)

// Name overrides the header name of the column.
func Name(name string) Option {
	return func(d *Descriptor) { d.Name = name }
}

// Index sets the 1-based position of the column.
func Index(index int) Option {
	return func(d *Descriptor) { d.Index = index }
}

// Required marks the column as not nullable.
func Required() Option {
	return func(d *Descriptor) { d.CanBeNull = false }
}

// OutputFormat sets the format used to render the value. Times take a Go
// layout; numbers take a format code such as "N2", "F3", "D5", "E" or "X".
func OutputFormat(format string) Option {
	return func(d *Descriptor) { d.OutputFormat = format }
}

// Style sets the notations a numeric column accepts on read.
func Style(style NumberStyle) Option {
	return func(d *Descriptor) { d.NumberStyle = style }
}

// CharLength sets the width of the column in fixed-width files.
func CharLength(n int) Option {
	return func(d *Descriptor) { d.CharLength = n }
}

// Untagged declares a plain member that is not explicitly mapped. Untagged
// columns are ignored when a Description enforces tagged columns.
func Untagged() Option {
	return func(d *Descriptor) { d.Tagged = false }
}

// Column binds one member of T to a CSV column.
type Column[T any] struct {
	desc Descriptor
	err  error

	assign  func(rec *T, raw string, d *Descriptor, cv *codec) error
	extract func(rec *T, d *Descriptor, cv *codec) (value string, null bool, err error)
}

// Descriptor returns a copy of the column metadata.
func (c Column[T]) Descriptor() Descriptor {
	return c.desc
}

// Field declares a column backed by the member ref points to. The value type
// decides the conversion: strings, booleans, integers, floats, time.Time,
// time.Duration and types implementing encoding.TextUnmarshaler are supported.
func Field[T, V any](member string, ref func(*T) *V, opts ...Option) Column[T] {
	c := newColumn[T, V](member, opts)
	c.assign = func(rec *T, raw string, d *Descriptor, cv *codec) error {
		v, err := parseAs[V](raw, d, cv)
		if err != nil {
			return err
		}
		*ref(rec) = v
		return nil
	}
	c.extract = func(rec *T, d *Descriptor, cv *codec) (string, bool, error) {
		s, err := formatAs(ref(rec), d, cv)
		return s, false, err
	}
	return c
}

// NullableField declares a column backed by a pointer member. A nil pointer
// is written as a null cell and null cells leave the pointer nil.
func NullableField[T, V any](member string, ref func(*T) **V, opts ...Option) Column[T] {
	c := newColumn[T, V](member, opts)
	c.assign = func(rec *T, raw string, d *Descriptor, cv *codec) error {
		v, err := parseAs[V](raw, d, cv)
		if err != nil {
			return err
		}
		*ref(rec) = &v
		return nil
	}
	c.extract = func(rec *T, d *Descriptor, cv *codec) (string, bool, error) {
		p := *ref(rec)
		if p == nil {
			return "", true, nil
		}
		s, err := formatAs(p, d, cv)
		return s, false, err
	}
	return c
}

func newColumn[T, V any](member string, opts []Option) Column[T] {
	c := Column[T]{desc: Descriptor{
		Name:        member,
		Index:       NoIndex,
		CanBeNull:   true,
		NumberStyle: NumberAny,
		Tagged:      true,
		member:      member,
	}}
	kind, ok := kindOf[V]()
	if !ok {
		var zero V
		c.err = fmt.Errorf("%w %T", ErrUnsupportedType, zero)
	}
	c.desc.kind = kind
	for _, opt := range opts {
		opt(&c.desc)
	}
	return c
}

// kindOf classifies V once, at declaration time.
func kindOf[V any]() (valueKind, bool) {
	var zero V
	switch any(zero).(type) {
	case string:
		return kindString, true
	case bool:
		return kindBool, true
	case int:
		return kindInt, true
	case int8:
		return kindInt8, true
	case int16:
		return kindInt16, true
	case int32:
		return kindInt32, true
	case int64:
		return kindInt64, true
	case uint:
		return kindUint, true
	case uint8:
		return kindUint8, true
	case uint16:
		return kindUint16, true
	case uint32:
		return kindUint32, true
	case uint64:
		return kindUint64, true
	case float32:
		return kindFloat32, true
	case float64:
		return kindFloat64, true
	case time.Time:
		return kindTime, true
	case time.Duration:
		return kindDuration, true
	}
	if _, ok := any(&zero).(encoding.TextUnmarshaler); ok {
		return kindText, true
	}
	return kindInvalid, false
}

// parseAs converts raw into a V using the strategy resolved for d.
func parseAs[V any](raw string, d *Descriptor, cv *codec) (V, error) {
	var v V
	if d.kind == kindText {
		err := any(&v).(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
		return v, err
	}
	x, err := cv.parse(d, raw)
	if err != nil {
		return v, err
	}
	return x.(V), nil
}

// formatAs renders *p according to d.
func formatAs[V any](p *V, d *Descriptor, cv *codec) (string, error) {
	if d.kind == kindText {
		if m, ok := any(p).(encoding.TextMarshaler); ok {
			b, err := m.MarshalText()
			return string(b), err
		}
		return fmt.Sprint(*p), nil
	}
	return cv.format(d, any(*p))
}

// Layout is the explicit column declaration of a record type.
type Layout[T any] struct {
	name    string
	columns []Column[T]
}

// NewLayout declares the columns of T in declaration order.
func NewLayout[T any](columns ...Column[T]) Layout[T] {
	var zero T
	return Layout[T]{name: fmt.Sprintf("%T", zero), columns: columns}
}

// Named returns a copy of the layout reported under name in errors.
func (l Layout[T]) Named(name string) Layout[T] {
	l.name = name
	return l
}

// Name returns the type name used in error messages.
func (l Layout[T]) Name() string {
	return l.name
}
