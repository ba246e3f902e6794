//go:build cgosqlite

package sqlite

import _ "github.com/mattn/go-sqlite3"

// DefaultDriverName selects the cgo SQLite driver.
const DefaultDriverName = "sqlite3"

func defaultDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
}
