package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/farm-admin/deliveries"
	"github.com/jrsteele09/farm-admin/internal/utils"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/products"
	"github.com/jrsteele09/farm-admin/users"
	"github.com/jrsteele09/farm-admin/view"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

var templateFuncs = template.FuncMap{
	"money": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"qty":   func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"date":  formatTime,
	"datep": func(t *time.Time) string { return formatTime(utils.Value(t)) },
	"str":   utils.Value[string],
	"add":   func(a, b int) int { return a + b },
	"message": func(err error) string {
		return view.Message(err)
	},
	"categories":       products.Categories,
	"units":            products.Units,
	"orderStatuses":    orders.Statuses,
	"deliveryStatuses": deliveries.Statuses,
	"roles":            users.Roles,
	"entityTypes":      users.EntityTypes,
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a standalone template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), name)
}

// ParsePage parses a console page: the layout plus the file defining its "content" block
func ParsePage(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func mustParse(tmpl *template.Template, err error) *template.Template {
	if err != nil {
		panic("Failed to parse template: " + err.Error())
	}
	return tmpl
}

// renderTemplate executes into a buffer first so a template error never leaves a half
// written page.
func renderTemplate(w http.ResponseWriter, status int, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
