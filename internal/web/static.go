package web

import (
	"bytes"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

// minCompressSize is the smallest asset worth compressing on the fly.
const minCompressSize = 1024

var compressibleTypes = []string{
	"text/",
	"application/javascript",
	"application/json",
	"application/xml",
	"image/svg+xml",
}

// StaticFiles serves regular files from assets for GET and HEAD requests.
// Anything else, directories and misses included, passes to the next stage.
func StaticFiles(assets fs.FS) Stage {
	return Stage{Name: StageStaticFiles, Wrap: func(next http.Handler) http.Handler {
		if assets == nil {
			return next
		}
		return &staticHandler{fs: assets, next: next}
	}}
}

type staticHandler struct {
	fs   fs.FS
	next http.Handler
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.next.ServeHTTP(w, r)
		return
	}

	name, ok := assetName(r.URL.Path)
	if !ok {
		h.next.ServeHTTP(w, r)
		return
	}
	info, err := fs.Stat(h.fs, name)
	if err != nil || !info.Mode().IsRegular() {
		h.next.ServeHTTP(w, r)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Cache-Control", "public, max-age=604800")
	header.Add("Vary", "Accept-Encoding")

	if acceptsEncoding(r, "br") {
		if pre, err := fs.Stat(h.fs, name+".br"); err == nil && pre.Mode().IsRegular() {
			content, err := fs.ReadFile(h.fs, name+".br")
			if err == nil {
				header.Set("Content-Encoding", "br")
				http.ServeContent(w, r, "", pre.ModTime(), bytes.NewReader(content))
				return
			}
		}
	}

	content, err := fs.ReadFile(h.fs, name)
	if err != nil {
		h.next.ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && len(content) >= minCompressSize && compressible(contentType) &&
		(acceptsEncoding(r, "br") || acceptsEncoding(r, "gzip")) {
		cw := brotli.HTTPCompressor(w, r)
		w.WriteHeader(http.StatusOK)
		_, _ = cw.Write(content)
		_ = cw.Close()
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(content))
}

// assetName maps a URL path onto an fs.FS name, rejecting the root and any
// path that would escape the asset tree.
func assetName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

func compressible(contentType string) bool {
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// acceptsEncoding reports whether the request lists coding with a non-zero
// quality in Accept-Encoding.
func acceptsEncoding(r *http.Request, coding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(token), coding) {
			continue
		}
		params = strings.ReplaceAll(params, " ", "")
		if q, found := strings.CutPrefix(params, "q="); found {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				return false
			}
		}
		return true
	}
	return false
}
