package csvio

// sanitize.go wraps CSV input so the parser always sees clean UTF-8.
//
// Spreadsheet exports commonly carry a byte order mark and the occasional
// byte that is not valid UTF-8. Both are handled while streaming:
//
//   - A UTF-8 BOM is dropped; a UTF-16 BOM switches decoding to UTF-16
//   - Invalid UTF-8 sequences become U+FFFD
//
// Use Sanitize to apply both. CountingReader tracks how much of the source
// was consumed, for logging and progress.

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Sanitize returns a reader yielding the UTF-8 content of r without a
// leading BOM.
func Sanitize(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 when the
// total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}
