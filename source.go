package csvrecord

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// lookupEncoding resolves a WHATWG/IANA encoding name; empty means UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("csvrecord: encoding %q: %w", name, err)
	}
	return enc, nil
}

// NewDecodingReader returns a reader that yields UTF-8 text decoded from r.
// With detectBOM a leading byte order mark selects UTF-8 or UTF-16 and is
// stripped, whatever name says.
func NewDecodingReader(r io.Reader, name string, detectBOM bool) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	var t transform.Transformer = enc.NewDecoder()
	if detectBOM {
		t = unicode.BOMOverride(t)
	}
	return transform.NewReader(r, t), nil
}

// NewEncodingWriter returns a writer that encodes UTF-8 text into w. Close
// flushes the encoder without closing w.
func NewEncodingWriter(w io.Writer, name string) (io.WriteCloser, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

type fileReader struct {
	io.Reader
	io.Closer
}

// openFile opens path for reading through the description's encoding.
func openFile(path string, d Description) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewDecodingReader(f, d.Encoding, d.DetectEncodingFromByteOrderMarks)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fileReader{Reader: r, Closer: f}, nil
}
