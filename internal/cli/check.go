package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oleg578/csvrecord"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newCheckCommand() *cobra.Command {
	var ignoreUnknown bool
	cmd := &cobra.Command{
		Use:   "check FILE COLUMN...",
		Short: "Validate a file against a list of typed columns.",
		Long: `Validate a file against a list of typed columns.
Each COLUMN is NAME[:TYPE][@WIDTH][!]. TYPE is one of string, int, float,
bool, time, duration or uuid (default string); a trailing ! marks the column
required. WIDTH is the column width in characters and is required when the
profile selects fixed-width files. Without header row the columns are matched
by position.`,
		Example: `  csvrecord check products.csv id:uuid! name! price:float "launch date:time"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, log, err := dialect(cmd)
			if err != nil {
				return err
			}
			desc := d.Description()
			desc.Logger = log
			desc.IgnoreUnknownColumns = desc.IgnoreUnknownColumns || ignoreUnknown
			positional := !desc.FirstLineHasColumnNames
			if positional {
				desc.EnforceTagged = true
			}

			layout, err := parseColumns(args[1:], positional, desc.NoSeparator)
			if err != nil {
				return err
			}

			cur, err := csvrecord.ReadFile(args[0], layout, desc).Open()
			if err != nil {
				return err
			}
			defer cur.Close()

			rows := 0
			for cur.Next() {
				rows++
			}
			err = cur.Err()
			errs := multierr.Errors(err)

			out := cmd.OutOrStdout()
			for _, e := range errs {
				fmt.Fprintln(out, e)
			}
			fmt.Fprintf(out, "%d rows checked, %d errors\n", rows, len(errs))
			log.WithFields(logrus.Fields{"file": args[0], "rows": rows, "errors": len(errs)}).Info("file checked")

			var agg *csvrecord.AggregatedError
			switch {
			case err == nil:
				return nil
			case errors.As(err, &agg):
				return fmt.Errorf("%s: %d data errors", args[0], agg.Len())
			default:
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "skip header columns that were not listed")
	return cmd
}

// record holds the values of a dynamically declared layout, keyed by column.
type record struct {
	values map[string]any
}

// slot returns the storage of column name, allocating it on first use.
func slot[V any](name string) func(*record) *V {
	return func(r *record) *V {
		if r.values == nil {
			r.values = make(map[string]any)
		}
		if p, ok := r.values[name].(*V); ok {
			return p
		}
		p := new(V)
		r.values[name] = p
		return p
	}
}

var errNoColumnWidth = errors.New("fixed-width files need a width per column")

// parseColumns turns NAME[:TYPE][@WIDTH][!] specs into a layout. With fixed
// every column must carry a width.
func parseColumns(specs []string, positional, fixed bool) (csvrecord.Layout[record], error) {
	cols := make([]csvrecord.Column[record], 0, len(specs))
	for i, spec := range specs {
		name, typ := spec, "string"
		var opts []csvrecord.Option
		if strings.HasSuffix(name, "!") {
			name = strings.TrimSuffix(name, "!")
			opts = append(opts, csvrecord.Required())
		}
		width := 0
		if j := strings.LastIndexByte(name, '@'); j >= 0 {
			w, err := strconv.Atoi(name[j+1:])
			if err != nil || w < 1 {
				return csvrecord.Layout[record]{}, fmt.Errorf("column %d: bad width in %q", i+1, spec)
			}
			name, width = name[:j], w
			opts = append(opts, csvrecord.CharLength(width))
		}
		if fixed && width == 0 {
			return csvrecord.Layout[record]{}, fmt.Errorf("column %d %q: %w", i+1, spec, errNoColumnWidth)
		}
		if j := strings.LastIndexByte(name, ':'); j >= 0 {
			name, typ = name[:j], name[j+1:]
		}
		if name == "" {
			return csvrecord.Layout[record]{}, fmt.Errorf("column %d: empty name in %q", i+1, spec)
		}
		if positional {
			opts = append(opts, csvrecord.Index(i+1))
		}

		var col csvrecord.Column[record]
		switch strings.ToLower(typ) {
		case "string", "":
			col = csvrecord.Field(name, slot[string](name), opts...)
		case "int":
			col = csvrecord.Field(name, slot[int64](name), opts...)
		case "float":
			col = csvrecord.Field(name, slot[float64](name), opts...)
		case "bool":
			col = csvrecord.Field(name, slot[bool](name), opts...)
		case "time":
			col = csvrecord.Field(name, slot[time.Time](name), opts...)
		case "duration":
			col = csvrecord.Field(name, slot[time.Duration](name), opts...)
		case "uuid":
			col = csvrecord.Field(name, slot[uuid.UUID](name), opts...)
		default:
			return csvrecord.Layout[record]{}, fmt.Errorf("column %q: unknown type %q", name, typ)
		}
		cols = append(cols, col)
	}
	return csvrecord.NewLayout(cols...).Named("check"), nil
}
