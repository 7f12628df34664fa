package engine

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/dominicbreuker/fsw/native"
)

type filter struct {
	re  *regexp.Regexp
	typ native.FilterType
}

// compileFilter compiles the filter text. Basic and extended POSIX syntax
// are both read as RE2.
func compileFilter(f native.Filter) (filter, error) {
	if f.Type != native.FilterInclude && f.Type != native.FilterExclude {
		return filter{}, fmt.Errorf("unknown filter type %d", int32(f.Type))
	}
	text := f.Text
	if !f.CaseSensitive {
		text = "(?i)" + text
	}
	re, err := regexp.Compile(text)
	if err != nil {
		return filter{}, err
	}
	return filter{re: re, typ: f.Type}, nil
}

// acceptPath applies filters in registration order: the first matching
// include filter accepts the path, otherwise a matching exclude rejects it.
func acceptPath(filters []filter, path string) bool {
	excluded := false
	for _, f := range filters {
		if !f.re.MatchString(path) {
			continue
		}
		if f.typ == native.FilterInclude {
			return true
		}
		excluded = true
	}
	return !excluded
}

// filterFlags keeps the flags listed in types. With no types every flag is
// kept.
func filterFlags(types []native.EventFlag, flags []native.EventFlag) []native.EventFlag {
	if len(types) == 0 {
		return flags
	}
	kept := make([]native.EventFlag, 0, len(flags))
	for _, f := range flags {
		if slices.Contains(types, f) {
			kept = append(kept, f)
		}
	}
	return kept
}

// flagsFromMask expands a bit mask into flags in bit order.
func flagsFromMask(mask native.EventFlag) []native.EventFlag {
	flags := make([]native.EventFlag, 0, 4)
	for _, f := range native.AllFlags {
		if mask&f != 0 {
			flags = append(flags, f)
		}
	}
	return flags
}
