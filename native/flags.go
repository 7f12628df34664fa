package native

import (
	"fmt"
)

// EventFlag is a libfswatch fsw_event_flag value.
type EventFlag uint32

const (
	NoOp              EventFlag = 0
	PlatformSpecific  EventFlag = 1 << 0
	Created           EventFlag = 1 << 1
	Updated           EventFlag = 1 << 2
	Removed           EventFlag = 1 << 3
	Renamed           EventFlag = 1 << 4
	OwnerModified     EventFlag = 1 << 5
	AttributeModified EventFlag = 1 << 6
	MovedFrom         EventFlag = 1 << 7
	MovedTo           EventFlag = 1 << 8
	IsFile            EventFlag = 1 << 9
	IsDir             EventFlag = 1 << 10
	IsSymLink         EventFlag = 1 << 11
	Link              EventFlag = 1 << 12
	Overflow          EventFlag = 1 << 13
)

// AllFlags lists every documented non-zero flag in bit order.
var AllFlags = []EventFlag{
	PlatformSpecific,
	Created,
	Updated,
	Removed,
	Renamed,
	OwnerModified,
	AttributeModified,
	MovedFrom,
	MovedTo,
	IsFile,
	IsDir,
	IsSymLink,
	Link,
	Overflow,
}

var flagNames = map[EventFlag]string{
	NoOp:              "NoOp",
	PlatformSpecific:  "PlatformSpecific",
	Created:           "Created",
	Updated:           "Updated",
	Removed:           "Removed",
	Renamed:           "Renamed",
	OwnerModified:     "OwnerModified",
	AttributeModified: "AttributeModified",
	MovedFrom:         "MovedFrom",
	MovedTo:           "MovedTo",
	IsFile:            "IsFile",
	IsDir:             "IsDir",
	IsSymLink:         "IsSymLink",
	Link:              "Link",
	Overflow:          "Overflow",
}

func (f EventFlag) String() string {
	name, ok := flagNames[f]
	if !ok {
		return fmt.Sprintf("0x%x", uint32(f))
	}
	return name
}

// ParseEventFlag returns the flag with the given name (as printed by String).
func ParseEventFlag(name string) (EventFlag, error) {
	for f, n := range flagNames {
		if n == name {
			return f, nil
		}
	}
	return NoOp, fmt.Errorf("unknown event flag %q", name)
}
