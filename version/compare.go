// Package version compares release numbers of the client and the backend.
package version

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Compare orders two "major.minor.patch" versions, with or without a leading v.
// It returns 1 if a is newer, -1 if b is newer and 0 if they are equal.
// Anything after the patch number, such as a pre-release tag, is ignored.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range lo.Zip2(av, bv) {
		if pair.A > pair.B {
			return 1, nil
		}

		if pair.A < pair.B {
			return -1, nil
		}
	}

	return 0, nil
}

func parse(s string) ([]int, error) {
	v := make([]int, 3)
	_, err := fmt.Sscanf(strings.TrimPrefix(strings.TrimSpace(s), "v"), "%d.%d.%d", &v[0], &v[1], &v[2])
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", s, err)
	}
	return v, nil
}
