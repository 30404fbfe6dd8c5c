// Package coverage reads line coverage reports in the grcov Coveralls and
// Covdir JSON schemas into one canonical per-file, per-line structure.
package coverage

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// NotCoverable marks a line the coverage tool did not instrument.
const NotCoverable int64 = -1

// Counts is a number of coverable lines and how many of them were hit.
type Counts struct {
	Coverable int `json:"coverable"`
	Covered   int `json:"covered"`
}

// Add returns the sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{Coverable: c.Coverable + o.Coverable, Covered: c.Covered + o.Covered}
}

// Ratio returns Covered/Coverable, or 0 when nothing is coverable.
func (c Counts) Ratio() float64 {
	if c.Coverable == 0 {
		return 0
	}
	return float64(c.Covered) / float64(c.Coverable)
}

// File holds the per-line hit counts of one source file. Line n is at
// Hits[n-1].
type File struct {
	Path string
	Hits []int64

	coverable *roaring.Bitmap
	covered   *roaring.Bitmap
}

func newFile(p string, hits []int64) *File {
	f := &File{Path: p, Hits: hits, coverable: roaring.New(), covered: roaring.New()}
	f.index()
	return f
}

func (f *File) index() {
	f.coverable.Clear()
	f.covered.Clear()
	for i, h := range f.Hits {
		if h == NotCoverable {
			continue
		}
		line := uint32(i + 1)
		f.coverable.Add(line)
		if h > 0 {
			f.covered.Add(line)
		}
	}
}

// merge folds other's hits into f, summing counts of lines coverable in
// either.
func (f *File) merge(other []int64) {
	if len(other) > len(f.Hits) {
		grown := make([]int64, len(other))
		copy(grown, f.Hits)
		for i := len(f.Hits); i < len(grown); i++ {
			grown[i] = NotCoverable
		}
		f.Hits = grown
	}
	for i, h := range other {
		switch {
		case h == NotCoverable:
		case f.Hits[i] == NotCoverable:
			f.Hits[i] = h
		default:
			f.Hits[i] += h
		}
	}
	f.index()
}

// Lines returns the number of line slots in the report for the file.
func (f *File) Lines() int { return len(f.Hits) }

// Counts returns the file's coverable and covered line counts.
func (f *File) Counts() Counts {
	return Counts{
		Coverable: int(f.coverable.GetCardinality()),
		Covered:   int(f.covered.GetCardinality()),
	}
}

// SpanCounts returns the counts restricted to lines start..end inclusive
// (1-based).
func (f *File) SpanCounts(start, end int) Counts {
	if start < 1 {
		start = 1
	}
	if end < start {
		return Counts{}
	}
	below := uint32(start - 1)
	upto := uint32(end)
	return Counts{
		Coverable: int(f.coverable.Rank(upto) - f.coverable.Rank(below)),
		Covered:   int(f.covered.Rank(upto) - f.covered.Rank(below)),
	}
}

// Span is an inclusive, 1-based line range.
type Span struct {
	Start, End int
}

// UnionCounts returns the counts restricted to lines inside any of spans.
// A line covered by several overlapping spans is counted once.
func (f *File) UnionCounts(spans []Span) Counts {
	lines := roaring.New()
	for _, s := range spans {
		start := max(s.Start, 1)
		if s.End < start {
			continue
		}
		lines.AddRange(uint64(start), uint64(s.End)+1)
	}
	return Counts{
		Coverable: int(f.coverable.AndCardinality(lines)),
		Covered:   int(f.covered.AndCardinality(lines)),
	}
}

// Report is a parsed coverage report. It is read-only after Parse and safe
// for concurrent readers.
type Report struct {
	Format Format

	files  map[string]*File
	digest uint64
}

// Len returns the number of files in the report.
func (r *Report) Len() int { return len(r.files) }

// Totals returns the pooled counts of every file in the report.
func (r *Report) Totals() Counts {
	var c Counts
	for _, f := range r.files {
		c = c.Add(f.Counts())
	}
	return c
}

// Digest returns the xxhash of the raw report bytes as hex.
func (r *Report) Digest() string {
	return strconv.FormatUint(r.digest, 16)
}

// Get returns the file stored under p after normalization.
func (r *Report) Get(p string) (*File, bool) {
	f, ok := r.files[Normalize(p)]
	return f, ok
}

// Lookup finds the coverage of file, a path found while walking root. The
// root-relative form is tried first, then the absolute path.
func (r *Report) Lookup(root, file string) (*File, bool) {
	if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
		if f, ok := r.Get(rel); ok {
			return f, true
		}
	}
	if abs, err := filepath.Abs(file); err == nil {
		if f, ok := r.Get(abs); ok {
			return f, true
		}
	}
	return r.Get(file)
}

// Normalize converts p to the key form used by reports: forward slashes,
// cleaned, without a leading "./".
func Normalize(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
