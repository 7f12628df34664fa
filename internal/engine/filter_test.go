package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw/native"
)

func mustFilter(t *testing.T, text string, typ native.FilterType, caseSensitive bool) filter {
	t.Helper()
	f, err := compileFilter(native.Filter{Text: text, Type: typ, CaseSensitive: caseSensitive, Extended: true})
	require.NoError(t, err)
	return f
}

func TestAcceptPath(t *testing.T) {
	tests := []struct {
		name    string
		filters []filter
		path    string
		accept  bool
	}{
		{
			name:   "no-filters",
			path:   "/tmp/a.txt",
			accept: true,
		},
		{
			name:    "excluded",
			filters: []filter{mustFilter(t, `\.txt$`, native.FilterExclude, true)},
			path:    "/tmp/a.txt",
			accept:  false,
		},
		{
			name:    "exclude-no-match",
			filters: []filter{mustFilter(t, `\.txt$`, native.FilterExclude, true)},
			path:    "/tmp/a.log",
			accept:  true,
		},
		{
			name: "include-overrides-exclude",
			filters: []filter{
				mustFilter(t, `.*`, native.FilterExclude, true),
				mustFilter(t, `\.go$`, native.FilterInclude, true),
			},
			path:   "/src/main.go",
			accept: true,
		},
		{
			name: "include-without-match-keeps-exclusion",
			filters: []filter{
				mustFilter(t, `.*`, native.FilterExclude, true),
				mustFilter(t, `\.go$`, native.FilterInclude, true),
			},
			path:   "/src/README",
			accept: false,
		},
		{
			name:    "case-insensitive",
			filters: []filter{mustFilter(t, `\.TXT$`, native.FilterExclude, false)},
			path:    "/tmp/a.txt",
			accept:  false,
		},
		{
			name:    "case-sensitive",
			filters: []filter{mustFilter(t, `\.TXT$`, native.FilterExclude, true)},
			path:    "/tmp/a.txt",
			accept:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accept, acceptPath(tt.filters, tt.path))
		})
	}
}

func TestCompileFilterErrors(t *testing.T) {
	_, err := compileFilter(native.Filter{Text: "(", Type: native.FilterInclude})
	require.Error(t, err)

	_, err = compileFilter(native.Filter{Text: "a", Type: native.FilterType(7)})
	require.Error(t, err)
}

func TestFilterFlags(t *testing.T) {
	flags := []native.EventFlag{native.Created, native.IsFile}

	assert.Equal(t, flags, filterFlags(nil, flags))
	assert.Equal(t, []native.EventFlag{native.Created}, filterFlags([]native.EventFlag{native.Created, native.Removed}, flags))
	assert.Empty(t, filterFlags([]native.EventFlag{native.Removed}, flags))
}

func TestFlagsFromMask(t *testing.T) {
	assert.Equal(t,
		[]native.EventFlag{native.Created, native.Renamed, native.IsDir},
		flagsFromMask(native.IsDir|native.Created|native.Renamed))
	assert.Empty(t, flagsFromMask(native.NoOp))
}
