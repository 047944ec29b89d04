// Package samples loads the target sample-name list: one name per line,
// blank lines ignored. Names are whitespace-stripped and Unicode-normalized
// so the lookup against header fields does not depend on how an ID was
// typed into the list file.
package samples

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Set is the loaded target-sample lookup.
type Set map[string]struct{}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Load reads one sample name per line from path. It fails when the file
// cannot be opened, read, or contains no usable names.
func Load(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples %s: %w", path, err)
	}
	defer f.Close()

	set := Set{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := Normalize(sc.Text())
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read samples %s: %w", path, err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no samples found in %s", path)
	}
	return set, nil
}

// Normalize strips all whitespace (sample IDs never contain any; stray tabs
// and spaces in hand-edited lists are common) and recomposes to NFC so
// visually identical IDs compare equal.
func Normalize(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	if norm.NFC.IsNormalString(name) {
		return name
	}
	out, _, err := transform.String(norm.NFC, name)
	if err != nil {
		return name
	}
	return out
}
