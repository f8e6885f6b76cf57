package update

import (
	"fmt"
	"strconv"
	"strings"
)

// Semver is a major.minor.patch release version.
type Semver struct {
	Major int
	Minor int
	Patch int
}

// ParseSemver parses "1.2.3" or "v1.2.3". Pre-release and build suffixes on
// the patch number are ignored.
func ParseSemver(s string) (Semver, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return Semver{}, fmt.Errorf("invalid semver: %q", s)
	}
	if i := strings.IndexAny(parts[2], "-+"); i >= 0 {
		parts[2] = parts[2][:i]
	}

	var v Semver
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Semver{}, fmt.Errorf("invalid major version: %w", err)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Semver{}, fmt.Errorf("invalid minor version: %w", err)
	}
	if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
		return Semver{}, fmt.Errorf("invalid patch version: %w", err)
	}
	return v, nil
}

// String returns the version as "major.minor.patch".
func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// LessThan reports whether v is older than other.
func (v Semver) LessThan(other Semver) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}
