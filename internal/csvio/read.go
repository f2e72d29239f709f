// Package csvio loads CSV files into tables and writes tables back out.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/table"
)

// ErrEmpty is returned when the input has no header row.
var ErrEmpty = errors.New("empty csv: no header row")

// DefaultInferenceSample is the number of non-null cells per column used to
// choose its type.
const DefaultInferenceSample = 100

// Options control how CSV input is decoded.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// InferTypes converts columns to boolean, numeric or datetime when their
	// sampled cells all parse. Otherwise every column is text.
	InferTypes bool
	// SampleSize bounds the cells sampled per column. Zero selects
	// DefaultInferenceSample.
	SampleSize int
	// Types forces the type of named columns, bypassing inference.
	Types map[string]table.Type
	// TextColumns are read as text. Names match headers after the same
	// normalisation the engine applies, so "Phone " matches "phone".
	TextColumns []string
	// Lenient accepts bare quotes and rows with a different number of fields
	// than the header; short rows are padded with nulls, long rows truncated.
	Lenient bool
}

// DefaultOptions infer types with the default sample.
func DefaultOptions() Options {
	return Options{InferTypes: true, SampleSize: DefaultInferenceSample}
}

// Decoder reads one table from a CSV stream.
type Decoder struct {
	src  *CountingReader
	opts Options
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts Options) *Decoder {
	return &Decoder{src: NewCountingReader(r, 0), opts: opts}
}

// BytesRead returns the number of source bytes consumed so far.
func (d *Decoder) BytesRead() int64 { return d.src.BytesRead }

// Read decodes a whole CSV document from r.
func Read(r io.Reader, opts Options) (*table.Table, error) {
	return NewDecoder(r, opts).Decode()
}

// Decode reads the header and every record, then builds typed columns.
// A cell holding a null token ("", NA, N/A, null, NaN, None, -) is null in
// every column type.
func (d *Decoder) Decode() (*table.Table, error) {
	cr := csv.NewReader(Sanitize(d.src))
	if d.opts.Comma != 0 {
		cr.Comma = d.opts.Comma
	}
	if d.opts.Lenient {
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1
	}
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	cells := make([][]string, len(names))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		for i := range cells {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			cells[i] = append(cells[i], v)
		}
	}

	cols := make([]table.Column, len(names))
	for i, name := range names {
		typ := table.Text
		if forced, ok := d.opts.Types[name]; ok {
			typ = forced
		} else if d.keepText(name) {
			typ = table.Text
		} else if d.opts.InferTypes {
			typ = d.infer(cells[i])
		}
		col, err := buildColumn(name, typ, cells[i])
		if err != nil {
			if _, forced := d.opts.Types[name]; forced {
				return nil, err
			}
			// A value past the sample did not parse; keep the column as text.
			col, _ = buildColumn(name, table.Text, cells[i])
		}
		cols[i] = col
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("build table: %w", err)
	}
	return t, nil
}

func (d *Decoder) keepText(header string) bool {
	for _, n := range d.opts.TextColumns {
		for _, sanitize := range []bool{false, true} {
			if core.NormalizeName(n, sanitize) == core.NormalizeName(header, sanitize) {
				return true
			}
		}
	}
	return false
}

func (d *Decoder) infer(cells []string) table.Type {
	size := d.opts.SampleSize
	if size < 1 {
		size = DefaultInferenceSample
	}
	sample := make([]string, 0, size)
	for _, s := range cells {
		if len(sample) == size {
			break
		}
		if !table.IsNullToken(s) {
			sample = append(sample, table.CleanCell(s))
		}
	}
	return core.InferType(sample)
}

// buildColumn parses raw cells as typ. Text cells keep their raw content so
// later stages can see and report whitespace fixes.
func buildColumn(name string, typ table.Type, cells []string) (table.Column, error) {
	vals := make([]table.Value, len(cells))
	for i, s := range cells {
		if table.IsNullToken(s) {
			continue
		}
		if typ == table.Text {
			vals[i] = table.String(s)
			continue
		}
		v, ok := table.ParseCell(table.CleanCell(s), typ)
		if !ok {
			return table.Column{}, fmt.Errorf("column %q, row %d: cannot parse %q as %s", name, i+1, s, typ)
		}
		vals[i] = v
	}
	return table.FromValues(name, typ, vals), nil
}
