// Package enums holds the closed string sets stored in Postgres enum columns
// and accepted on the wire.
package enums

import (
	"fmt"
	"slices"
)

// parse returns the member of values equal to raw.
func parse[T ~string](values []T, kind, raw string) (T, error) {
	if i := slices.Index(values, T(raw)); i >= 0 {
		return values[i], nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
