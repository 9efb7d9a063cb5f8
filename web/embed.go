// Package web embeds the live filings dashboard served by the API server.
//
// The page subscribes to /api/v1/ws and renders each streamed result.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/filingsense/web"
//	fs := web.StaticFS()  // returns io/fs.FS rooted at static/
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// StaticFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func StaticFS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic("web.StaticFS: " + err.Error())
	}
	return sub
}
