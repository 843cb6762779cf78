// Package csvsource reads the merged crash CSV export.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// Reader turns CSV rows into records keyed by the header row. Cells are
// typed with domain.InferValue; empty cells become nil.
type Reader struct {
	csv     *csv.Reader
	header  []string
	skipped int
}

// NewReader reads the header row from r.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		cols[i] = strings.TrimSpace(col)
	}
	return &Reader{csv: cr, header: cols}, nil
}

// Header returns the column names.
func (r *Reader) Header() []string { return r.header }

// Skipped is the number of unparsable rows passed over so far.
func (r *Reader) Skipped() int { return r.skipped }

// Next returns the next record or io.EOF. Rows the CSV parser rejects are
// skipped.
func (r *Reader) Next() (domain.Record, error) {
	for {
		row, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.skipped++
				continue
			}
			return nil, err
		}

		rec := make(domain.Record, len(r.header))
		for i, col := range r.header {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = domain.InferValue(row[i])
			} else {
				rec[col] = nil
			}
		}
		return rec, nil
	}
}

// File is a CrashSource over a CSV file on disk.
type File struct {
	Path string
}

// NewFile creates a File source.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Open returns a reader over the file and the closer for it.
func (f *File) Open() (*Reader, io.Closer, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	r, err := NewReader(fh)
	if err != nil {
		fh.Close()
		return nil, nil, err
	}
	return r, fh, nil
}

// LoadAll reads up to limit rows (all when limit <= 0) and derives the
// year, month and day columns.
func (f *File) LoadAll(ctx context.Context, limit int) ([]domain.Record, error) {
	r, closer, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var records []domain.Record
	for limit <= 0 || len(records) < limit {
		if len(records)%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Path, err)
		}
		if rec.Has(domain.ColCrashDatetime) {
			domain.DeriveDateParts(rec)
		}
		records = append(records, rec)
	}
	return records, nil
}
