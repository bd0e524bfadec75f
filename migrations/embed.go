package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Files embed.FS

// GetFS returns the development schema for a database driver
func GetFS(driver string) (fs.FS, error) {
	dir := "postgres"
	if driver == "sqlite" {
		dir = "sqlite"
	}
	return fs.Sub(Files, dir)
}
