// Package version parses the version strings OpenAPI documents declare in their openapi field.
package version

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/specslim/specslim/errors"
)

const ErrInvalidVersion = errors.Error("invalid version")

// Version is a major.minor.patch triple. Pre-release and build suffixes are dropped on parse.
type Version struct {
	Major int
	Minor int
	Patch int
}

func New(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, with or after other.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, other.Patch)
}

// Parse accepts "major.minor" and "major.minor.patch", with an optional "-pre" or "+build" suffix.
// A missing patch is zero.
func Parse(s string) (Version, error) {
	core := s
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}

	parts := strings.Split(core, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, ErrInvalidVersion.Wrapf("%q: expected major.minor[.patch]", s)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, ErrInvalidVersion.Wrapf("%q: %s is not a number", s, part)
		}
		if n < 0 {
			return Version{}, ErrInvalidVersion.Wrapf("%q: %s cannot be negative", s, part)
		}
		nums[i] = n
	}

	return New(nums[0], nums[1], nums[2]), nil
}

func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// InRange reports whether lo <= v < hi.
func (v Version) InRange(lo, hi Version) bool {
	return v.Compare(lo) >= 0 && v.Compare(hi) < 0
}
