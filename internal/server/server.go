// Package server exposes the weekly reports and leaderboards over
// HTTP: rendered report pages for humans, JSON endpoints for tooling.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"signalradar/internal/database"
	"signalradar/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// the report relies on pipe tables, which are a GFM extension
var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Server is the HTTP server for serving weekly reports.
type Server struct {
	db       *database.DB
	composer *report.Composer
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatWeek": database.FormatWeekDisplay,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "week.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:       db,
		composer: report.NewComposer(db),
		pages:    pages,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/week/", s.handleWeek)
	s.mux.HandleFunc("/api/weeks", s.handleAPIWeeks)
	s.mux.HandleFunc("/api/rankings/", s.handleAPIRankings)
	s.mux.HandleFunc("/api/hot-targets/", s.handleAPIHotTargets)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	weeks, err := s.db.ListWeeks()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Weeks": weeks,
	})
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	weekID := strings.TrimPrefix(r.URL.Path, "/week/")
	if weekID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if _, err := database.ParseWeekID(weekID); err != nil {
		http.NotFound(w, r)
		return
	}

	markdown, err := s.composer.Compose(weekID)
	if err != nil {
		log.Printf("Error composing report for %s: %v", weekID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "week.html", map[string]any{
		"WeekID": weekID,
		"Report": markdown,
	})
}

func (s *Server) handleAPIWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := s.db.ListWeeks()
	if err != nil {
		jsonError(w, http.StatusInternalServerError)
		return
	}
	if weeks == nil {
		weeks = []string{}
	}
	writeJSON(w, weeks)
}

func (s *Server) handleAPIRankings(w http.ResponseWriter, r *http.Request) {
	// /api/rankings/{week}/{kind}
	path := strings.TrimPrefix(r.URL.Path, "/api/rankings/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	weekID, kind := parts[0], parts[1]
	if kind != "hiring" && kind != "conversation" {
		http.NotFound(w, r)
		return
	}

	rankings, err := s.db.GetRankings(weekID, kind)
	if err != nil {
		jsonError(w, http.StatusInternalServerError)
		return
	}
	if rankings == nil {
		rankings = []database.RankingRow{}
	}
	writeJSON(w, rankings)
}

func (s *Server) handleAPIHotTargets(w http.ResponseWriter, r *http.Request) {
	weekID := strings.TrimPrefix(r.URL.Path, "/api/hot-targets/")
	if weekID == "" {
		http.NotFound(w, r)
		return
	}

	targets, err := s.db.GetHotTargets(weekID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError)
		return
	}
	if targets == nil {
		targets = []database.HotTargetRow{}
	}
	writeJSON(w, targets)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
