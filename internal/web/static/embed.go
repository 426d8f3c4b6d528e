// Package static embeds the kiosk page.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:kiosk
var kioskFS embed.FS

// FileSystem returns the kiosk assets rooted at the page directory.
func FileSystem() http.FileSystem {
	fsys, err := fs.Sub(kioskFS, "kiosk")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

// HasPage reports whether index.html is embedded.
func HasPage() bool {
	_, err := fs.Stat(kioskFS, "kiosk/index.html")
	return err == nil
}
