// Package web embeds the site's page templates and static assets so the
// server ships as a single binary. In dev mode the same tree is read from
// disk instead.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:pages all:static
var files embed.FS

// FS is the embedded web tree containing pages/ and static/.
var FS fs.FS = files
