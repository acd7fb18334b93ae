package core

import (
	"fmt"
	"strings"
)

// ObjectClass is the semantic class of a detection target
// Numeric values are the label ids written into datasets
type ObjectClass int

const (
	ClassMob ObjectClass = iota + 1
	ClassPlayer
	ClassNpc
	ClassInMapPortal
	ClassCrossMapPortal
	ClassFoothold
	ClassLadderRope
	ClassUnknown
)

var classNames = map[ObjectClass]string{
	ClassMob:            "Mob",
	ClassPlayer:         "Player",
	ClassNpc:            "Npc",
	ClassInMapPortal:    "InMapPortal",
	ClassCrossMapPortal: "CrossMapPortal",
	ClassFoothold:       "Foothold",
	ClassLadderRope:     "LadderRope",
	ClassUnknown:        "Unknown",
}

// String returns the class name used in label files
func (c ObjectClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ObjectClass(%d)", int(c))
}

// Valid reports whether the class may be serialized
// Unknown is a placeholder for unclassified render types and is never valid
func (c ObjectClass) Valid() bool {
	return c >= ClassMob && c <= ClassLadderRope
}

// ParseObjectClass resolves a class by name, case-insensitive
func ParseObjectClass(name string) (ObjectClass, error) {
	for c, n := range classNames {
		if strings.EqualFold(n, name) {
			return c, nil
		}
	}
	return ClassUnknown, fmt.Errorf("%w: unrecognized object class %q", ErrConfiguration, name)
}
