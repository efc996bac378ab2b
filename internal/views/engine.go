// Package views renders the HTML pages. Templates and static assets are
// embedded in the binary.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/main.html"

// Engine implements fiber.Views. Every page is parsed together with the
// "main" layout; a page defines "content" and optionally "title".
type Engine struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	funcs     template.FuncMap
	fs        fs.FS
}

// New returns an engine over the embedded templates.
func New() *Engine {
	return NewFromFS(templateFS)
}

// NewFromFS returns an engine reading templates/*.html from fsys.
func NewFromFS(fsys fs.FS) *Engine {
	return &Engine{fs: fsys, funcs: Funcs()}
}

// Funcs returns the helpers available in every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower":      strings.ToLower,
		"avatarURL":  AvatarURL,
		"formatTime": FormatTime,
	}
}

// AvatarURL is the avatar route for username.
func AvatarURL(username string) string {
	return "/avatar/" + url.PathEscape(username)
}

// FormatTime renders post and membership timestamps.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

// Load parses the layout with each page template.
func (e *Engine) Load() error {
	pages, err := fs.Glob(e.fs, "templates/*.html")
	if err != nil {
		return fmt.Errorf("views: list templates: %w", err)
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		if page == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(page), ".html")
		t, err := template.New(name).Funcs(e.funcs).ParseFS(e.fs, layoutFile, page)
		if err != nil {
			return fmt.Errorf("views: parse %s: %w", name, err)
		}
		templates[name] = t
	}

	e.mu.Lock()
	e.templates = templates
	e.mu.Unlock()
	return nil
}

// Render executes page name. With a layout ("main") the page is wrapped in it;
// otherwise only the page's "content" block is written.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	e.mu.RLock()
	t, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: template %q not found", name)
	}

	entry := "content"
	if len(layout) > 0 && layout[0] != "" {
		entry = layout[0]
	}
	return t.ExecuteTemplate(w, entry, binding)
}

// Static returns the embedded static assets rooted at static/.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
