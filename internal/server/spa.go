package server

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// handleWebClient serves the built web client from dir. Paths that are not a
// file fall back to index.html so client-side routes like /reto/tigres load.
func handleWebClient(dir string) http.HandlerFunc {
	root := os.DirFS(dir)
	files := http.FileServerFS(root)

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if info, err := fs.Stat(root, name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFileFS(w, r, root, "index.html")
	}
}
