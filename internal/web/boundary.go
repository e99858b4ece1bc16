package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
)

// UnhandledRequestError is a fault that escaped a request handler, either a
// panic or an error returned by an action.
type UnhandledRequestError struct {
	Err   error
	Stack []byte
}

func (e *UnhandledRequestError) Error() string {
	return fmt.Sprintf("unhandled request error: %v", e.Err)
}

func (e *UnhandledRequestError) Unwrap() error {
	return e.Err
}

type faultSlot struct {
	err error
}

const faultContextKey contextKey = "fault"

// ReportError hands err to the enclosing error boundary. It returns false
// when the request is not running under a boundary.
func ReportError(r *http.Request, err error) bool {
	slot, ok := r.Context().Value(faultContextKey).(*faultSlot)
	if !ok || err == nil {
		return false
	}
	if slot.err == nil {
		slot.err = err
	}
	return true
}

// ErrorBoundary recovers every fault raised further down the pipeline. In
// development mode the response carries full diagnostics; otherwise the
// client is redirected to errorPath and no detail is exposed.
func ErrorBoundary(development bool, errorPath string, logger *zap.Logger) Stage {
	b := &boundary{development: development, errorPath: errorPath, logger: logger}
	return Stage{Name: StageErrorBoundary, Wrap: b.wrap}
}

type boundary struct {
	development bool
	errorPath   string
	logger      *zap.Logger
}

func (b *boundary) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		slot := &faultSlot{}
		r = r.WithContext(context.WithValue(r.Context(), faultContextKey, slot))

		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			err, ok := v.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", v)
			}
			b.handle(rec, r, &UnhandledRequestError{Err: err, Stack: debug.Stack()})
		}()

		next.ServeHTTP(rec, r)

		if slot.err != nil {
			b.handle(rec, r, &UnhandledRequestError{Err: slot.err})
		}
	})
}

func (b *boundary) handle(w *responseRecorder, r *http.Request, fault *UnhandledRequestError) {
	b.logger.Error("unhandled request error",
		zap.Error(fault.Err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestID(r.Context())),
		zap.Bool("response_started", w.wroteHeader),
	)
	if w.wroteHeader {
		return
	}

	// Entity headers set by the failed handler describe a body that was never sent.
	h := w.Header()
	for _, name := range []string{"Content-Type", "Content-Encoding", "Content-Length", "Content-Disposition", "ETag", "Last-Modified"} {
		h.Del(name)
	}
	h.Set("Cache-Control", "no-store")

	if b.development {
		writeDiagnostics(w, r, fault)
		return
	}
	if b.isErrorPath(r.URL.Path) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, b.errorPath, http.StatusFound)
}

// isErrorPath matches the way routing resolves paths: case-insensitive and
// ignoring a trailing slash.
func (b *boundary) isErrorPath(path string) bool {
	return strings.EqualFold(strings.TrimRight(path, "/"), strings.TrimRight(b.errorPath, "/"))
}

var diagnosticsPage = template.Must(template.New("diagnostics").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Unhandled exception</title></head>
<body>
<h1>An unhandled exception occurred while processing the request.</h1>
<h2>{{.Type}}: {{.Message}}</h2>
<table>
<tr><th>Method</th><td>{{.Method}}</td></tr>
<tr><th>Path</th><td>{{.Path}}</td></tr>
<tr><th>Query</th><td>{{.Query}}</td></tr>
<tr><th>Request ID</th><td>{{.RequestID}}</td></tr>
</table>
{{if .Chain}}<h3>Error chain</h3><ol>{{range .Chain}}<li>{{.}}</li>{{end}}</ol>{{end}}
{{if .Stack}}<h3>Stack</h3><pre>{{.Stack}}</pre>{{end}}
</body>
</html>
`))

type diagnostics struct {
	Type      string
	Message   string
	Method    string
	Path      string
	Query     string
	RequestID string
	Chain     []string
	Stack     string
}

func writeDiagnostics(w http.ResponseWriter, r *http.Request, fault *UnhandledRequestError) {
	d := diagnostics{
		Type:      fmt.Sprintf("%T", fault.Err),
		Message:   fault.Err.Error(),
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		RequestID: RequestID(r.Context()),
		Stack:     string(fault.Stack),
	}
	for err := errors.Unwrap(fault.Err); err != nil; err = errors.Unwrap(err) {
		d.Chain = append(d.Chain, err.Error())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = diagnosticsPage.Execute(w, d)
}
