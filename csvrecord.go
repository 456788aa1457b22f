// # csvrecord: Typed Records over Delimited and Fixed-Width Text
//
// csvrecord maps rows of CSV or fixed-width text onto Go values and back. A
// Layout declares, member by member, how a record type lines up with the
// columns of a file; a Description picks the dialect: separator, header row,
// locale, text encoding and how strictly columns have to match.
//
// # Features
//
// - Streaming tokenizer that keeps null cells apart from quoted empty strings and remembers the line every cell started on.
// - Buffered writer with configurable delimiters, newline policy, forced quoting and fixed-width output.
// - Locale aware numbers and dates through golang.org/x/text, with .NET style number formats ("N2", "F3", "D5", "X").
// - Deferred, re-iterable reads (Read, ReadFile) that collect bad values into an AggregatedError instead of stopping at the first one.
// - A csvrecord command (cmd/csvrecord) to inspect, recode and validate files.
//
// # Getting Started
//
//	type Product struct {
//		Name  string
//		Price float64
//	}
//
//	layout := csvrecord.NewLayout(
//		csvrecord.Field("Name", func(p *Product) *string { return &p.Name }, csvrecord.Required()),
//		csvrecord.Field("Price", func(p *Product) *float64 { return &p.Price }, csvrecord.OutputFormat("F2")),
//	)
//	for p, err := range csvrecord.ReadFile("products.csv", layout, csvrecord.DefaultDescription()).All() {
//		...
//	}
package csvrecord
