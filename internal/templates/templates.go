// Package templates serves the HTML shells of the home and kiosk pages.
package templates

import (
	"embed"
	"html/template"
	"net/http"
	"sync"

	"baduklive/internal/logging"
)

//go:embed *.html
var files embed.FS

var (
	mu        sync.RWMutex
	commit    = "dev"
	buildDate = ""
	pages     = template.Must(template.ParseFS(files, "*.html"))
)

// SetBuild records the build identifiers shown in page footers
func SetBuild(c, date string) {
	mu.Lock()
	commit, buildDate = c, date
	mu.Unlock()
}

// WriteHomeHTML serves the home page template
func WriteHomeHTML(w http.ResponseWriter) {
	mu.RLock()
	data := map[string]string{"Commit": commit, "BuildDate": buildDate}
	mu.RUnlock()
	write(w, "home.html", data)
}

// WriteKioskHTML serves the kiosk page for sessionID
func WriteKioskHTML(w http.ResponseWriter, sessionID string) {
	mu.RLock()
	data := map[string]string{"Commit": commit, "SessionID": sessionID}
	mu.RUnlock()
	write(w, "kiosk.html", data)
}

func write(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		logging.Error().Err(err).Str("template", name).Msg("render page")
	}
}
