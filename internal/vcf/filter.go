// Package vcf implements the sample-column projection for VCF-style
// tab-delimited files: the header line names the columns, a designated
// marker column (FORMAT in VCF) separates fixed leading fields from sample
// columns, and every data line is rewritten to carry only the fixed fields
// plus the requested samples.
//
// The package is pure text manipulation; concurrency, ordering, and I/O live
// in internal/pipeline. A Filter satisfies pipeline.Transformer.
package vcf

import (
	"fmt"
	"strings"
)

// VCF wire constants. The delimiter is fixed by the format; Marker and
// Missing are configurable for VCF-like files with a different layout.
const (
	Delimiter = "\t"

	DefaultMarker  = "FORMAT"
	DefaultMissing = "."

	schemaPrefix  = "#CHROM"
	commentPrefix = "#"
)

// SchemaError is the fatal error for an unusable header line: the marker
// column is absent or none of the requested samples appear after it. Data
// lines cannot be meaningfully projected without a resolved schema, so the
// whole run aborts.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "vcf: bad schema: " + e.Reason }

// keyColumn is one selected sample: its position in the original line and
// its name, in discovery order.
type keyColumn struct {
	index int
	name  string
}

// Options tweaks the projection for VCF-like files. Zero values mean VCF
// defaults.
type Options struct {
	// Marker is the column name that ends the fixed leading fields.
	Marker string
	// Missing is emitted when a selected column is beyond a short line's end.
	Missing string
}

// Filter projects lines onto the fixed leading columns plus a requested
// sample subset.
//
// Resolve must complete before the first Apply; the pipeline's schema gate
// enforces that, and the gate's publish gives Apply a happens-before edge on
// the fields Resolve writes. After resolution the Filter is read-only and
// safe for any number of concurrent Apply calls.
type Filter struct {
	targets map[string]struct{}
	marker  string
	missing string

	// Written once by Resolve.
	keep        []keyColumn
	passthrough int // fixed leading fields, marker column included
}

// NewFilter returns a Filter selecting the given sample names.
func NewFilter(targets map[string]struct{}, opts Options) *Filter {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.Missing == "" {
		opts.Missing = DefaultMissing
	}
	return &Filter{
		targets: targets,
		marker:  opts.Marker,
		missing: opts.Missing,
	}
}

// Resolve parses the schema line, records which field positions correspond
// to requested samples, and returns the rewritten header carrying only the
// kept columns. It fails with *SchemaError when the marker column is missing
// or no requested sample matches.
func (f *Filter) Resolve(line string) (string, error) {
	fields := strings.Split(line, Delimiter)

	markerIdx := -1
	for i, name := range fields {
		if name == f.marker {
			markerIdx = i
			break
		}
	}
	if markerIdx < 0 {
		return "", &SchemaError{Reason: fmt.Sprintf("%s column not found in header", f.marker)}
	}

	f.passthrough = markerIdx + 1
	for i := f.passthrough; i < len(fields); i++ {
		if _, ok := f.targets[fields[i]]; ok {
			f.keep = append(f.keep, keyColumn{index: i, name: fields[i]})
		}
	}
	if len(f.keep) == 0 {
		return "", &SchemaError{Reason: "no requested samples found in header"}
	}

	var b strings.Builder
	b.WriteString(strings.Join(fields[:f.passthrough], Delimiter))
	for _, kc := range f.keep {
		b.WriteString(Delimiter)
		b.WriteString(kc.name)
	}
	return b.String(), nil
}

// Apply rewrites a data line to the fixed leading fields plus the selected
// sample columns in discovery order. A line with fewer than the fixed
// leading fields is returned unchanged with ok=false (malformed tolerance,
// not an error); a line long enough but missing a selected position gets the
// missing marker at that position.
func (f *Filter) Apply(line string) (string, bool) {
	fields := strings.Split(line, Delimiter)
	if len(fields) < f.passthrough {
		return line, false
	}

	var b strings.Builder
	b.Grow(len(line))
	b.WriteString(strings.Join(fields[:f.passthrough], Delimiter))
	for _, kc := range f.keep {
		b.WriteString(Delimiter)
		if kc.index < len(fields) {
			b.WriteString(fields[kc.index])
		} else {
			b.WriteString(f.missing)
		}
	}
	return b.String(), true
}

// Matched reports how many requested samples were found in the header. Zero
// before Resolve.
func (f *Filter) Matched() int { return len(f.keep) }

// IsSchemaLine reports whether line is the VCF column-header line.
func IsSchemaLine(line string) bool { return strings.HasPrefix(line, schemaPrefix) }

// IsHeaderLine reports whether line is a meta/comment line (pass-through).
// Empty lines are treated as comments so they survive unmodified.
func IsHeaderLine(line string) bool {
	return line == "" || strings.HasPrefix(line, commentPrefix)
}
