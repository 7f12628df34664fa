package fsw

import (
	"strings"

	"github.com/dominicbreuker/fsw/native"
)

// FlagSet is the set of change kinds attached to an Event. Flags are not
// mutually exclusive: a rename of a file is typically Renamed|IsFile.
type FlagSet uint32

// NewFlagSet builds a set from individual flags.
func NewFlagSet(flags ...native.EventFlag) FlagSet {
	var s FlagSet
	for _, f := range flags {
		s |= FlagSet(f)
	}
	return s
}

// Has reports whether every bit of flag is in the set. NoOp is only
// contained in the empty set.
func (s FlagSet) Has(flag native.EventFlag) bool {
	if flag == native.NoOp {
		return s == 0
	}
	return uint32(s)&uint32(flag) == uint32(flag)
}

// Flags returns the members of the set in bit order. Bits without a
// documented meaning are returned as raw values after the known ones.
func (s FlagSet) Flags() []native.EventFlag {
	var flags []native.EventFlag
	rest := uint32(s)
	for _, f := range native.AllFlags {
		if rest&uint32(f) != 0 {
			flags = append(flags, f)
			rest &^= uint32(f)
		}
	}
	for bit := uint32(1); rest != 0; bit <<= 1 {
		if rest&bit != 0 {
			flags = append(flags, native.EventFlag(bit))
			rest &^= bit
		}
	}
	return flags
}

func (s FlagSet) String() string {
	if s == 0 {
		return native.NoOp.String()
	}
	flags := s.Flags()
	names := make([]string, 0, len(flags))
	for _, f := range flags {
		names = append(names, f.String())
	}
	return strings.Join(names, "|")
}
