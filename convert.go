package csvrecord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/number"
)

type valueKind int

const (
	kindInvalid valueKind = iota
	kindString
	kindBool
	kindInt
	kindInt8
	kindInt16
	kindInt32
	kindInt64
	kindUint
	kindUint8
	kindUint16
	kindUint32
	kindUint64
	kindFloat32
	kindFloat64
	kindTime
	kindDuration
	kindText
)

func (k valueKind) signed() bool   { return k >= kindInt && k <= kindInt64 }
func (k valueKind) unsigned() bool { return k >= kindUint && k <= kindUint64 }
func (k valueKind) float() bool    { return k == kindFloat32 || k == kindFloat64 }
func (k valueKind) numeric() bool  { return k.signed() || k.unsigned() || k.float() }

func (k valueKind) bits() int {
	switch k {
	case kindInt8, kindUint8:
		return 8
	case kindInt16, kindUint16:
		return 16
	case kindInt32, kindUint32, kindFloat32:
		return 32
	case kindInt, kindUint:
		return strconv.IntSize
	default:
		return 64
	}
}

// conversion is the strategy used to turn a raw cell into a value. It is
// resolved once per column when the schema is built.
type conversion int

const (
	convertRaw conversion = iota
	convertNumber
	convertExact
	convertGeneric
)

func (c conversion) String() string {
	switch c {
	case convertRaw:
		return "raw"
	case convertNumber:
		return "number"
	case convertExact:
		return "exact"
	default:
		return "generic"
	}
}

func resolveConversion(d *Descriptor, useOutputFormat bool) conversion {
	switch {
	case d.kind == kindTime && useOutputFormat && d.OutputFormat != "":
		return convertExact
	case d.kind.numeric():
		return convertNumber
	case d.kind == kindString:
		return convertRaw
	default:
		return convertGeneric
	}
}

// NumberStyle is a set of notations accepted when parsing numbers.
type NumberStyle int

const (
	NumberAllowLeadingWhite NumberStyle = 1 << iota
	NumberAllowTrailingWhite
	NumberAllowLeadingSign
	NumberAllowTrailingSign
	NumberAllowParentheses
	NumberAllowDecimalPoint
	NumberAllowThousands
	NumberAllowExponent
	NumberAllowCurrencySymbol
	NumberAllowHexSpecifier
)

// Composite number styles.
const (
	NumberNone     NumberStyle = 0
	NumberInteger              = NumberAllowLeadingWhite | NumberAllowTrailingWhite | NumberAllowLeadingSign
	NumberFloat                = NumberInteger | NumberAllowDecimalPoint | NumberAllowExponent
	NumberNumber               = NumberInteger | NumberAllowTrailingSign | NumberAllowDecimalPoint | NumberAllowThousands
	NumberCurrency             = NumberNumber | NumberAllowParentheses | NumberAllowCurrencySymbol
	NumberAny                  = NumberCurrency | NumberAllowExponent
	NumberHex                  = NumberAllowLeadingWhite | NumberAllowTrailingWhite | NumberAllowHexSpecifier
)

func (s NumberStyle) has(flag NumberStyle) bool {
	return s&flag != 0
}

var (
	errNotation   = errors.New("notation not allowed by number style")
	errNoDigits   = errors.New("no digits")
	errNotBoolean = errors.New("not a boolean")
	errNotTime    = errors.New("unrecognised date/time")
)

// normalizeNumber rewrites s into the notation strconv understands, applying
// style and the locale's separators. It reports the base of the result.
func normalizeNumber(s string, style NumberStyle, loc *Locale) (string, int, error) {
	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	if trimmed != s && !style.has(NumberAllowLeadingWhite) {
		return "", 0, errNotation
	}
	s = trimmed
	trimmed = strings.TrimRightFunc(s, unicode.IsSpace)
	if trimmed != s && !style.has(NumberAllowTrailingWhite) {
		return "", 0, errNotation
	}
	s = trimmed

	if style.has(NumberAllowCurrencySymbol) {
		s = strings.TrimSpace(strings.Map(func(r rune) rune {
			if unicode.Is(unicode.Sc, r) {
				return -1
			}
			return r
		}, s))
	}

	negative := false
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		if !style.has(NumberAllowParentheses) {
			return "", 0, errNotation
		}
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if !style.has(NumberAllowLeadingSign) {
			return "", 0, errNotation
		}
		negative = negative != (s[0] == '-')
		s = s[1:]
	} else if s != "" && (s[len(s)-1] == '-' || s[len(s)-1] == '+') {
		if !style.has(NumberAllowTrailingSign) {
			return "", 0, errNotation
		}
		negative = negative != (s[len(s)-1] == '-')
		s = s[:len(s)-1]
	}
	if s == "" {
		return "", 0, errNoDigits
	}

	if style.has(NumberAllowHexSpecifier) {
		if negative {
			return "", 0, errNotation
		}
		return s, 16, nil
	}

	if style.has(NumberAllowThousands) && loc.Group != 0 {
		s = strings.Map(func(r rune) rune {
			if r == loc.Group || (unicode.IsSpace(loc.Group) && unicode.IsSpace(r)) {
				return -1
			}
			return r
		}, s)
	}
	if loc.Decimal != '.' && strings.ContainsRune(s, '.') {
		return "", 0, errNotation
	}
	if strings.ContainsRune(s, loc.Decimal) {
		if !style.has(NumberAllowDecimalPoint) {
			return "", 0, errNotation
		}
		s = strings.Replace(s, string(loc.Decimal), ".", 1)
	}
	if strings.ContainsAny(s, "eE") && !style.has(NumberAllowExponent) {
		return "", 0, errNotation
	}
	if negative {
		s = "-" + s
	}
	return s, 10, nil
}

// parseNumber converts raw into the exact Go type of kind.
func parseNumber(kind valueKind, raw string, style NumberStyle, loc *Locale) (any, error) {
	s, base, err := normalizeNumber(raw, style, loc)
	if err != nil {
		return nil, err
	}
	bits := kind.bits()
	switch {
	case kind.float():
		if base != 10 {
			return nil, errNotation
		}
		f, err := strconv.ParseFloat(s, bits)
		if err != nil {
			return nil, err
		}
		if kind == kindFloat32 {
			return float32(f), nil
		}
		return f, nil
	case kind.signed():
		n, err := strconv.ParseInt(s, base, bits)
		if err != nil {
			return nil, err
		}
		switch kind {
		case kindInt:
			return int(n), nil
		case kindInt8:
			return int8(n), nil
		case kindInt16:
			return int16(n), nil
		case kindInt32:
			return int32(n), nil
		}
		return n, nil
	default:
		n, err := strconv.ParseUint(s, base, bits)
		if err != nil {
			return nil, err
		}
		switch kind {
		case kindUint:
			return uint(n), nil
		case kindUint8:
			return uint8(n), nil
		case kindUint16:
			return uint16(n), nil
		case kindUint32:
			return uint32(n), nil
		}
		return n, nil
	}
}

// numberFormat is a parsed numeric output format such as "N2".
type numberFormat struct {
	code      byte
	precision int // -1 when not given
}

func parseNumberFormat(format string) (numberFormat, error) {
	if format == "" {
		return numberFormat{precision: -1}, nil
	}
	f := numberFormat{code: format[0], precision: -1}
	switch f.code {
	case 'N', 'n', 'F', 'f', 'D', 'd', 'E', 'e', 'G', 'g', 'X', 'x':
	default:
		return f, fmt.Errorf("unknown number format %q", format)
	}
	if len(format) > 1 {
		p, err := strconv.Atoi(format[1:])
		if err != nil || p < 0 || p > 99 {
			return f, fmt.Errorf("bad precision in number format %q", format)
		}
		f.precision = p
	}
	return f, nil
}

// checkNumberFormat validates the output format of a numeric column.
func checkNumberFormat(d *Descriptor) error {
	f, err := parseNumberFormat(d.OutputFormat)
	if err != nil {
		return err
	}
	if f.integerOnly() && d.kind.float() {
		return fmt.Errorf("number format %q applies to integers only", d.OutputFormat)
	}
	return nil
}

func (f numberFormat) integerOnly() bool {
	switch f.code {
	case 'D', 'd', 'X', 'x':
		return true
	}
	return false
}

func (f numberFormat) precisionOr(def int) int {
	if f.precision < 0 {
		return def
	}
	return f.precision
}

// generic date layouts tried in order when no exact layout applies
var (
	isoLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"2006.01.02",
		"Jan 2, 2006",
		"2 Jan 2006",
		"02 Jan 2006 15:04:05",
		time.RFC1123Z,
		time.RFC1123,
	}
	monthFirstLayouts = []string{
		"1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/2006",
		"01/02/2006", "1-2-2006", "01-02-2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006 15:04:05", "2/1/2006 15:04", "2/1/2006",
		"02/01/2006", "2-1-2006 15:04:05", "2-1-2006", "02-01-2006",
		"2.1.2006 15:04:05", "2.1.2006", "02.01.2006",
	}
)

// codec converts between raw text and values for one locale.
type codec struct {
	loc *Locale
}

func (cv *codec) parse(d *Descriptor, raw string) (any, error) {
	switch d.conversion {
	case convertRaw:
		return raw, nil
	case convertExact:
		return time.Parse(d.OutputFormat, raw)
	case convertNumber:
		return parseNumber(d.kind, raw, d.NumberStyle, cv.loc)
	default:
		return cv.convert(d.kind, raw)
	}
}

// convert is the generic, locale-aware string to value conversion.
func (cv *codec) convert(kind valueKind, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch kind {
	case kindBool:
		switch strings.ToLower(s) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		}
		return nil, errNotBoolean
	case kindDuration:
		return time.ParseDuration(s)
	case kindTime:
		return cv.parseTime(s)
	case kindString:
		return raw, nil
	}
	if kind.numeric() {
		return parseNumber(kind, raw, NumberAny, cv.loc)
	}
	return nil, ErrUnsupportedType
}

func (cv *codec) parseTime(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	layouts := dayFirstLayouts
	if cv.loc.MonthFirst {
		layouts = monthFirstLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNotTime
}

// format renders v, whose dynamic type matches d's kind.
func (cv *codec) format(d *Descriptor, v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		if d.OutputFormat == "" {
			return x.Format(time.RFC3339Nano), nil
		}
		return x.Format(d.OutputFormat), nil
	case time.Duration:
		return x.String(), nil
	}
	if d.kind.numeric() {
		return cv.formatNumber(d, v)
	}
	return fmt.Sprint(v), nil
}

func (cv *codec) formatNumber(d *Descriptor, v any) (string, error) {
	f, err := parseNumberFormat(d.OutputFormat)
	if err != nil {
		return "", err
	}
	var (
		i  int64
		u  uint64
		fl float64
	)
	switch x := v.(type) {
	case int:
		i = int64(x)
	case int8:
		i = int64(x)
	case int16:
		i = int64(x)
	case int32:
		i = int64(x)
	case int64:
		i = x
	case uint:
		u = uint64(x)
	case uint8:
		u = uint64(x)
	case uint16:
		u = uint64(x)
	case uint32:
		u = uint64(x)
	case uint64:
		u = x
	case float32:
		fl = float64(x)
	case float64:
		fl = x
	default:
		return "", fmt.Errorf("%w %T", ErrUnsupportedType, v)
	}
	if d.kind.signed() {
		fl = float64(i)
	} else if d.kind.unsigned() {
		fl = float64(u)
	}
	bits := 64
	if d.kind == kindFloat32 {
		bits = 32
	}

	switch f.code {
	case 0:
		switch {
		case d.kind.signed():
			return strconv.FormatInt(i, 10), nil
		case d.kind.unsigned():
			return strconv.FormatUint(u, 10), nil
		}
		return cv.loc.localizeNumber(strconv.FormatFloat(fl, 'f', -1, bits)), nil
	case 'N', 'n':
		prec := f.precisionOr(2)
		if d.kind.signed() {
			return cv.loc.sprint(number.Decimal(i, number.Scale(prec))), nil
		}
		if d.kind.unsigned() {
			return cv.loc.sprint(number.Decimal(u, number.Scale(prec))), nil
		}
		return cv.loc.sprint(number.Decimal(fl, number.Scale(prec))), nil
	case 'F', 'f':
		return cv.loc.localizeNumber(strconv.FormatFloat(fl, 'f', f.precisionOr(2), bits)), nil
	case 'E', 'e':
		return cv.loc.localizeNumber(strconv.FormatFloat(fl, f.code, f.precisionOr(6), bits)), nil
	case 'G', 'g':
		return cv.loc.localizeNumber(strconv.FormatFloat(fl, 'g', f.precisionOr(-1), bits)), nil
	case 'D', 'd':
		if d.kind.unsigned() {
			return fmt.Sprintf("%0*d", f.precisionOr(1), u), nil
		}
		// the precision counts digits, so pad the magnitude and sign it after
		if i < 0 {
			return "-" + fmt.Sprintf("%0*d", f.precisionOr(1), uint64(-(i+1))+1), nil
		}
		return fmt.Sprintf("%0*d", f.precisionOr(1), i), nil
	default: // 'X', 'x'
		verb := "%0*X"
		if f.code == 'x' {
			verb = "%0*x"
		}
		if d.kind.unsigned() {
			return fmt.Sprintf(verb, f.precisionOr(1), u), nil
		}
		return fmt.Sprintf(verb, f.precisionOr(1), i), nil
	}
}
