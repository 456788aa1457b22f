package csvrecord

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// DefaultMaxErrors is the number of data errors after which a read gives up.
const DefaultMaxErrors = 100

// Description configures the dialect and mapping rules of one read or write.
// Start from DefaultDescription; the zero value has no header row and no
// error limit.
type Description struct {
	// Separator is the field separator. Zero means ','.
	Separator rune
	// NoSeparator selects fixed-width mode, using each column's CharLength.
	NoSeparator bool
	// FirstLineHasColumnNames reads and writes a header row.
	FirstLineHasColumnNames bool
	// EnforceTagged restricts the mapping to tagged columns.
	EnforceTagged bool
	// IgnoreUnknownColumns skips header names and extra fields that do not
	// map to any column instead of failing.
	IgnoreUnknownColumns bool
	// UseFieldIndexForReadingData aligns data by column index rather than by
	// column order when there is no header row.
	UseFieldIndexForReadingData bool
	// QuoteAllFields quotes every non-null value on write.
	QuoteAllFields bool
	// IgnoreTrailingSeparator treats a separator right before a line break as
	// a no-op.
	IgnoreTrailingSeparator bool
	// UseOutputFormatForParsing parses time columns with their OutputFormat.
	UseOutputFormatForParsing bool
	// Locale is the BCP 47 name of the culture used for numbers and dates.
	Locale string
	// Encoding names the text encoding of files. Empty means UTF-8.
	Encoding string
	// DetectEncodingFromByteOrderMarks lets a byte order mark override Encoding.
	DetectEncodingFromByteOrderMarks bool
	// MaxErrors aborts a read once this many data errors were collected.
	// Zero or less means no limit.
	MaxErrors int
	// UseCRLF terminates written rows with \r\n.
	UseCRLF bool
	// Logger receives debug diagnostics. Nil discards them.
	Logger logrus.FieldLogger
}

// DefaultDescription returns the conventional settings: comma separated,
// header row present, UTF-8 with byte order mark detection, en-US numbers.
func DefaultDescription() Description {
	return Description{
		Separator:                        ',',
		FirstLineHasColumnNames:          true,
		Locale:                           DefaultLocale,
		DetectEncodingFromByteOrderMarks: true,
		MaxErrors:                        DefaultMaxErrors,
		UseCRLF:                          runtime.GOOS == "windows",
	}
}

var errBadSeparator = errors.New("csvrecord: invalid separator")

// Validate checks the settings that can be checked without a layout.
func (d Description) Validate() error {
	if !d.NoSeparator {
		switch sep := d.separator(); {
		case sep == '"', sep == '\r', sep == '\n', sep == utf8.RuneError, !utf8.ValidRune(sep):
			return fmt.Errorf("%w %q", errBadSeparator, sep)
		}
	}
	if _, err := ParseLocale(d.Locale); err != nil {
		return err
	}
	if _, err := lookupEncoding(d.Encoding); err != nil {
		return err
	}
	return nil
}

func (d Description) separator() rune {
	if d.Separator == 0 {
		return ','
	}
	return d.Separator
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (d Description) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return discardLogger
	}
	return d.Logger
}
