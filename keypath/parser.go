package keypath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned for strings that are not valid key-paths.
var ErrInvalidPath = errors.New("invalid key-path")

var (
	// segmentRegex parses one dot-separated part, e.g. `name` or `name[1][2]`.
	segmentRegex = regexp.MustCompile(`^([^.\[\]]+)((?:\[\d+\])*)$`)
	indexRegex   = regexp.MustCompile(`\[(\d+)\]`)
)

// Parse creates a Path from its canonical string representation.
// The empty string parses to the root path.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return nil, nil
	}

	var p Path
	for _, part := range strings.Split(raw, ".") {
		if part == "" {
			return nil, fmt.Errorf("%w %q: empty segment", ErrInvalidPath, raw)
		}

		matches := segmentRegex.FindStringSubmatch(part)
		if matches == nil {
			return nil, fmt.Errorf("%w %q: malformed segment %q", ErrInvalidPath, raw, part)
		}

		p = append(p, Key(matches[1]))
		for _, idx := range indexRegex.FindAllStringSubmatch(matches[2], -1) {
			i, err := strconv.Atoi(idx[1])
			if err != nil {
				return nil, fmt.Errorf("%w %q: index %q: %w", ErrInvalidPath, raw, idx[1], err)
			}
			p = append(p, Index(i))
		}
	}

	return p, nil
}

// MustParse is like Parse but panics on malformed input. It is intended for
// constants and tests.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
