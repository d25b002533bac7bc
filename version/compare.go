package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// semver is a parsed release tag. A missing minor or patch counts as zero.
type semver struct {
	core       [3]int
	prerelease []string
}

func parse(s string) (semver, error) {
	var v semver

	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	s, _, _ = strings.Cut(s, "+")
	s, pre, hasPre := strings.Cut(s, "-")
	if hasPre {
		v.prerelease = strings.Split(pre, ".")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return v, fmt.Errorf("invalid version %q", s)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return v, fmt.Errorf("invalid version %q", s)
		}
		v.core[i] = n
	}
	return v, nil
}

// Compare orders two version tags: 1 if a is newer, -1 if b is, 0 if they are equal.
// A pre-release sorts before the release it precedes; build metadata is ignored.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for i := range av.core {
		if c := cmp(av.core[i], bv.core[i]); c != 0 {
			return c, nil
		}
	}

	switch {
	case len(av.prerelease) == 0 && len(bv.prerelease) == 0:
		return 0, nil
	case len(av.prerelease) == 0:
		return 1, nil
	case len(bv.prerelease) == 0:
		return -1, nil
	}

	for i := 0; i < lo.Min([]int{len(av.prerelease), len(bv.prerelease)}); i++ {
		if c := compareIdentifier(av.prerelease[i], bv.prerelease[i]); c != 0 {
			return c, nil
		}
	}
	return cmp(len(av.prerelease), len(bv.prerelease)), nil
}

// compareIdentifier orders numeric identifiers numerically and below alphanumeric ones.
func compareIdentifier(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp(an, bn)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

func cmp(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
