package web

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/andybalholm/brotli"
)

// FallbackDocument is the SPA entry document, read once at startup.
type FallbackDocument struct {
	name       string
	raw        []byte
	compressed []byte
}

// LoadFallback reads name from assets and precompresses it with brotli.
func LoadFallback(assets fs.FS, name string) (*FallbackDocument, error) {
	if assets == nil {
		return nil, fmt.Errorf("load fallback %s: no asset directory", name)
	}
	raw, err := fs.ReadFile(assets, name)
	if err != nil {
		return nil, fmt.Errorf("load fallback %s: %w", name, err)
	}

	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := bw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress fallback %s: %w", name, err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("compress fallback %s: %w", name, err)
	}

	return &FallbackDocument{name: name, raw: raw, compressed: buf.Bytes()}, nil
}

// Name returns the asset name the document was loaded from.
func (d *FallbackDocument) Name() string {
	return d.name
}

func (d *FallbackDocument) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := d.raw
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Add("Vary", "Accept-Encoding")
	if acceptsEncoding(r, "br") {
		h.Set("Content-Encoding", "br")
		body = d.compressed
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// SPAFallback terminates the pipeline: every request that reaches it gets
// the fallback document.
func SPAFallback(doc *FallbackDocument) Stage {
	return Stage{Name: StageSPAFallback, Wrap: func(next http.Handler) http.Handler {
		if doc == nil {
			return next
		}
		return doc
	}}
}
