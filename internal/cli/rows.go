package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/oleg578/csvrecord"
	"github.com/oleg578/csvrecord/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var errNoWidths = errors.New("fixed-width input needs --widths")

func newRowsCommand() *cobra.Command {
	var (
		widths []int
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "rows FILE",
		Short: "Print the raw rows of a file with the line each row starts on.",
		Long: `Print the raw rows of a file with the line each row starts on.
On a terminal the rows are shown as a table with null cells marked; otherwise
they are written as CSV with the line number in the first column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, log, err := dialect(cmd)
			if err != nil {
				return err
			}
			r, closer, err := openRows(args[0], d, widths)
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			var p rowPrinter
			if isTerminal(out) {
				p = newTablePrinter(out)
			} else {
				p = newCSVPrinter(out, d)
			}

			n := 0
			for limit <= 0 || n < limit {
				row, err := r.next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return multierr.Append(err, p.flush())
				}
				if err := p.print(row); err != nil {
					return err
				}
				n++
			}
			log.WithFields(logrus.Fields{"file": args[0], "rows": n}).Info("rows printed")
			return p.flush()
		},
	}
	cmd.Flags().IntSliceVar(&widths, "widths", nil, "read fixed-width columns of these widths")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many rows")
	return cmd
}

// rowSource reads raw rows in either delimited or fixed-width mode.
type rowSource struct {
	reader *csvrecord.Reader
	widths []int
}

func (s *rowSource) next() (csvrecord.Row, error) {
	return s.reader.ReadRow(s.widths)
}

func openRows(path string, d *config.Dialect, widths []int) (*rowSource, io.Closer, error) {
	if d.FixedWidth && len(widths) == 0 {
		return nil, nil, errNoWidths
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	src, err := csvrecord.NewDecodingReader(f, d.Encoding, d.DetectBOM)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	desc := d.Description()
	r := csvrecord.NewReader(src)
	r.Comma = desc.Separator
	r.IgnoreTrailingComma = desc.IgnoreTrailingSeparator
	s := &rowSource{reader: r}
	if len(widths) > 0 {
		s.widths = widths
	}
	return s, f, nil
}

type rowPrinter interface {
	print(row csvrecord.Row) error
	flush() error
}

type tablePrinter struct {
	tw *tabwriter.Writer
}

func newTablePrinter(w io.Writer) *tablePrinter {
	return &tablePrinter{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

func (p *tablePrinter) print(row csvrecord.Row) error {
	cells := make([]string, 0, len(row)+1)
	cells = append(cells, strconv.Itoa(row.Line()))
	for _, c := range row {
		switch {
		case c.Null:
			cells = append(cells, "∅")
		default:
			cells = append(cells, strconv.Quote(c.Value))
		}
	}
	_, err := fmt.Fprintln(p.tw, strings.Join(cells, "\t"))
	return err
}

func (p *tablePrinter) flush() error {
	return p.tw.Flush()
}

type csvPrinter struct {
	w *csvrecord.Writer
}

func newCSVPrinter(w io.Writer, d *config.Dialect) *csvPrinter {
	desc := d.Description()
	cw := csvrecord.NewWriter(w)
	cw.Comma = desc.Separator
	cw.UseCRLF = desc.UseCRLF
	return &csvPrinter{w: cw}
}

func (p *csvPrinter) print(row csvrecord.Row) error {
	out := make(csvrecord.Row, 0, len(row)+1)
	out = append(out, csvrecord.Cell{Value: strconv.Itoa(row.Line())})
	out = append(out, row...)
	return p.w.WriteRow(out)
}

func (p *csvPrinter) flush() error {
	return p.w.Flush()
}
