// Package config loads CSV dialect profiles from YAML, TOML or JSON files and
// CSVRECORD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oleg578/csvrecord"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that override a profile,
// e.g. CSVRECORD_SEPARATOR or CSVRECORD_MAX_ERRORS.
const EnvPrefix = "CSVRECORD"

// Dialect is the serialisable form of a csvrecord.Description.
type Dialect struct {
	Separator     string `mapstructure:"separator"`
	FixedWidth    bool   `mapstructure:"fixed_width"`
	Header        bool   `mapstructure:"header"`
	EnforceTagged bool   `mapstructure:"enforce_tagged"`

	IgnoreUnknownColumns    bool `mapstructure:"ignore_unknown_columns"`
	UseFieldIndex           bool `mapstructure:"use_field_index"`
	QuoteAll                bool `mapstructure:"quote_all"`
	IgnoreTrailingSeparator bool `mapstructure:"ignore_trailing_separator"`
	UseOutputFormat         bool `mapstructure:"use_output_format"`

	Locale    string `mapstructure:"locale"`
	Encoding  string `mapstructure:"encoding"`
	DetectBOM bool   `mapstructure:"detect_bom"`
	MaxErrors int    `mapstructure:"max_errors"`
	CRLF      bool   `mapstructure:"crlf"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Default returns the dialect matching csvrecord.DefaultDescription.
func Default() Dialect {
	d := csvrecord.DefaultDescription()
	var out Dialect
	out.Separator = string(d.Separator)
	out.Header = d.FirstLineHasColumnNames
	out.Locale = d.Locale
	out.DetectBOM = d.DetectEncodingFromByteOrderMarks
	out.MaxErrors = d.MaxErrors
	out.CRLF = d.UseCRLF
	out.Log.Level = "info"
	out.Log.Format = "text"
	return out
}

// Load reads the profile at path on top of the defaults. An empty path reads
// the environment only.
func Load(path string) (*Dialect, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Dialect
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Dialect) {
	v.SetDefault("separator", d.Separator)
	v.SetDefault("fixed_width", d.FixedWidth)
	v.SetDefault("header", d.Header)
	v.SetDefault("enforce_tagged", d.EnforceTagged)
	v.SetDefault("ignore_unknown_columns", d.IgnoreUnknownColumns)
	v.SetDefault("use_field_index", d.UseFieldIndex)
	v.SetDefault("quote_all", d.QuoteAll)
	v.SetDefault("ignore_trailing_separator", d.IgnoreTrailingSeparator)
	v.SetDefault("use_output_format", d.UseOutputFormat)
	v.SetDefault("locale", d.Locale)
	v.SetDefault("encoding", d.Encoding)
	v.SetDefault("detect_bom", d.DetectBOM)
	v.SetDefault("max_errors", d.MaxErrors)
	v.SetDefault("crlf", d.CRLF)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

var errSeparator = errors.New("separator must be a single character")

// Validate checks the dialect and the description it converts to.
func (d *Dialect) Validate() error {
	if !d.FixedWidth && utf8.RuneCountInString(d.separator()) != 1 {
		return fmt.Errorf("%w, got %q", errSeparator, d.Separator)
	}
	switch strings.ToLower(d.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", d.Log.Format)
	}
	desc := d.Description()
	return desc.Validate()
}

// separator decodes the escapes people write in config files.
func (d *Dialect) separator() string {
	switch d.Separator {
	case `\t`, "tab":
		return "\t"
	case "":
		return ","
	}
	return d.Separator
}

// Description converts the dialect into reader and writer settings.
func (d *Dialect) Description() csvrecord.Description {
	sep, _ := utf8.DecodeRuneInString(d.separator())
	return csvrecord.Description{
		Separator:                        sep,
		NoSeparator:                      d.FixedWidth,
		FirstLineHasColumnNames:          d.Header,
		EnforceTagged:                    d.EnforceTagged,
		IgnoreUnknownColumns:             d.IgnoreUnknownColumns,
		UseFieldIndexForReadingData:      d.UseFieldIndex,
		QuoteAllFields:                   d.QuoteAll,
		IgnoreTrailingSeparator:          d.IgnoreTrailingSeparator,
		UseOutputFormatForParsing:        d.UseOutputFormat,
		Locale:                           d.Locale,
		Encoding:                         d.Encoding,
		DetectEncodingFromByteOrderMarks: d.DetectBOM,
		MaxErrors:                        d.MaxErrors,
		UseCRLF:                          d.CRLF,
	}
}
