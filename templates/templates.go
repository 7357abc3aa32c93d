// Package templates holds the HTML views served by pkg/server, adapted
// from the teacher's line-diff templates to render a patch.Patch's
// structural hunks instead of a unified line diff.
package templates

import (
	"embed"
	"html"
	"html/template"
	"maps"
	"net/url"
	"strconv"

	"github.com/thehowl/semdiff/internal/patch"
	"github.com/thehowl/semdiff/internal/value"
)

var (
	funcMap = map[string]any{
		"hunk_path":   func(h patch.Hunk) string { return h.Path.String() },
		"hunk_action": func(h patch.Hunk) string { return h.Action.Kind().String() },
		"hunk_value": func(h patch.Hunk) string {
			switch h.Action.Kind() {
			case patch.ActionUpdate, patch.ActionInsert:
				return valuePreview(h.Action.Value())
			case patch.ActionUpdateText:
				return "(text edit, " + strconv.Itoa(len(h.Action.TextOps())) + " ops)"
			case patch.ActionSwap, patch.ActionClone:
				return h.Action.Other().String()
			default:
				return ""
			}
		},
	}
	Templates = template.Must(
		template.New("").
			Funcs(funcMap).
			ParseFS(templateFS, "*.tmpl"),
	)
	//go:embed *.tmpl
	templateFS embed.FS
)

// valuePreview renders a short human-readable form of a leaf value.Value
// for the hunk table; it does not attempt to render nested maps/arrays in
// full, since those belong to their own hunks.
func valuePreview(v value.Value) string {
	var s string
	switch v.Kind() {
	case value.KindString:
		s = v.StringValue()
	case value.KindNumeric:
		s = v.NumericText()
	case value.KindBool:
		s = strconv.FormatBool(v.BoolValue())
	case value.KindNull:
		s = "null"
	case value.KindMap:
		s = "{…}"
	case value.KindArray:
		s = "[…]"
	}
	const maxLen = 80
	if len(s) > maxLen {
		s = s[:maxLen] + "…"
	}
	return s
}

// PatchTemplateData is the data passed to file.tmpl: the rendered patch
// between an upload's base and target documents.
type PatchTemplateData struct {
	ID    string
	Patch patch.Patch
	Query url.Values
}

func (f *PatchTemplateData) WithQueryValue(key, value string) string {
	uvCopy := make(url.Values)
	maps.Copy(uvCopy, f.Query)
	if value == "" {
		uvCopy.Del(key)
	} else {
		uvCopy.Set(key, value)
	}
	if len(uvCopy) == 0 {
		return ""
	}
	return "?" + uvCopy.Encode()
}

// RationalizeLink toggles the ?rationalize=1 query flag.
func (f *PatchTemplateData) RationalizeLink() template.HTML {
	on := f.Query.Get("rationalize") == "1"
	next := "1"
	label := "off"
	if on {
		next = ""
		label = "on"
	}
	uri := "/" + f.ID + f.WithQueryValue("rationalize", next)
	return template.HTML(`<a href="` + html.EscapeString(uri) + `">` + label + `</a>`)
}

// IndexTemplateData is the data passed to index.tmpl.
type IndexTemplateData struct {
	PublicURL string
}
