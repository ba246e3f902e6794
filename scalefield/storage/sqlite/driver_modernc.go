//go:build !cgosqlite

package sqlite

import _ "modernc.org/sqlite"

// DefaultDriverName selects the pure-Go SQLite driver. Build with
// -tags cgosqlite to link the cgo driver instead.
const DefaultDriverName = "sqlite"

func defaultDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
