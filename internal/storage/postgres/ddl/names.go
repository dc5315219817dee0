package ddl

import (
	"fmt"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

// MaxIdentLen is Postgres' identifier limit in bytes (NAMEDATALEN - 1).
// Longer names are silently truncated by the server.
const MaxIdentLen = 63

// ConstraintName returns the deterministic name of the unique constraint on
// table(key): "<table>_<key>_key", which is also what Postgres would pick.
// When that exceeds MaxIdentLen the name is cut at a rune boundary and
// suffixed with a hash of the full name, so the name we look up is the
// name the server stores.
func ConstraintName(table, key string) string {
	full := table + "_" + key + "_key"
	if len(full) <= MaxIdentLen {
		return full
	}
	suffix := fmt.Sprintf("_%016x", xxh3.HashString(full))
	cut := MaxIdentLen - len(suffix)
	for cut > 0 && !utf8.RuneStart(full[cut]) {
		cut--
	}
	return full[:cut] + suffix
}
