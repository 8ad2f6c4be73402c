package python

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a Python major.minor version. It is parsed from text because
// 3.10 and 3.1 are the same float.
type Version struct {
	Major int
	Minor int
}

// DefaultVersion is used when no target version is configured.
var DefaultVersion = Version{Major: 3, Minor: 13}

// modernThreshold is the first version accepting "T | None" annotations.
var modernThreshold = Version{Major: 3, Minor: 10}

func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultVersion, nil
	}
	majorStr, minorStr, _ := strings.Cut(s, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("invalid python version %q", s)
	}
	minor := 0
	if minorStr != "" {
		// Ignore a patch component ("3.11.4").
		minorStr, _, _ = strings.Cut(minorStr, ".")
		minor, err = strconv.Atoi(minorStr)
		if err != nil || minor < 0 {
			return Version{}, fmt.Errorf("invalid python version %q", s)
		}
	}
	return Version{Major: major, Minor: minor}, nil
}

func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

// Modern reports whether v accepts PEP 604 unions and dataclass slots.
func (v Version) Modern() bool {
	return v.AtLeast(modernThreshold)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
