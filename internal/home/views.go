package home

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed views/*.gohtml
var viewFiles embed.FS

var pageNames = []string{"index", "error"}

type views struct {
	pages map[string]*template.Template
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(viewFiles, "views/layout.gohtml", "views/"+name+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

// render executes the page fully before writing so a template failure never
// leaves a half-written response.
func (v *views) render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown view %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render view %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
