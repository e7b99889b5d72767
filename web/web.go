// Package web serves the landing page assets.
package web

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed static
var embedded embed.FS

const indexFile = "index.html"

// Assets returns the embedded static tree, or dir when it is set so the page
// can be edited without rebuilding.
func Assets(dir string) (fs.FS, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("web: static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("web: static dir %q is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(embedded, "static")
}

// Handler serves files from fsys. Paths that do not name a file get
// index.html, so deep links and unknown routes land on the page.
func Handler(fsys fs.FS) (http.Handler, error) {
	if _, err := fs.Stat(fsys, indexFile); err != nil {
		return nil, fmt.Errorf("web: %s missing: %w", indexFile, err)
	}
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || name == indexFile {
			serveIndex(w, r, fsys)
			return
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			serveIndex(w, r, fsys)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	}), nil
}

func serveIndex(w http.ResponseWriter, r *http.Request, fsys fs.FS) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, fsys, indexFile)
}
