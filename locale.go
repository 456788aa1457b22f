package csvrecord

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when a Description names no locale.
const DefaultLocale = "en-US"

// Locale carries the number and date conventions of one culture.
type Locale struct {
	Tag language.Tag
	// Decimal separates integer and fraction digits.
	Decimal rune
	// Group separates thousands; zero when the culture does not group.
	Group rune
	// MonthFirst selects month/day/year over day/month/year for dates
	// that are parsed without an explicit layout.
	MonthFirst bool

	printer *message.Printer
}

// monthFirstRegions write numeric dates month first.
var monthFirstRegions = map[string]bool{
	"US": true, "PH": true, "FM": true, "PW": true, "MH": true, "BZ": true,
}

// ParseLocale resolves a BCP 47 culture name such as "nl-NL" or "en-US".
func ParseLocale(name string) (*Locale, error) {
	if name == "" {
		name = DefaultLocale
	}
	tag, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("csvrecord: locale %q: %w", name, err)
	}
	return NewLocale(tag), nil
}

// NewLocale derives separators for tag from the CLDR number data.
func NewLocale(tag language.Tag) *Locale {
	p := message.NewPrinter(tag)
	loc := &Locale{Tag: tag, Decimal: '.', printer: p}

	// "1234.5" renders as e.g. "1,234.5" or "1.234,5"; whatever is not a
	// digit is a separator.
	var seps []rune
	for _, r := range p.Sprint(number.Decimal(1234.5, number.MinFractionDigits(1))) {
		if !unicode.IsDigit(r) {
			seps = append(seps, r)
		}
	}
	switch len(seps) {
	case 1:
		loc.Decimal = seps[0]
	case 2:
		loc.Group, loc.Decimal = seps[0], seps[1]
	}

	region, _ := tag.Region()
	loc.MonthFirst = monthFirstRegions[region.String()]
	return loc
}

// String returns the BCP 47 name of the locale.
func (l *Locale) String() string {
	return l.Tag.String()
}

// localizeNumber swaps the '.' of a Go-formatted number for the locale's
// decimal separator.
func (l *Locale) localizeNumber(s string) string {
	if l.Decimal == '.' {
		return s
	}
	return strings.Replace(s, ".", string(l.Decimal), 1)
}

// sprint renders v through the locale-aware printer.
func (l *Locale) sprint(v any) string {
	return l.printer.Sprint(v)
}
