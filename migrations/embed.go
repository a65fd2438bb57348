// Package migrations embeds the goose schema for each storage driver.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration set of driver ("postgres" or "sqlite") rooted
// at the directory, as goose.NewProvider expects.
func For(driver string) (fs.FS, error) {
	return fs.Sub(files, driver)
}
