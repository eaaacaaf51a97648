package view

import (
	"io"
	"net/http"

	"golang.org/x/text/language"
)

// Handler serves a registered view as an HTML page.
type Handler struct {
	Name string
	// Matcher picks the page language from Accept-Language. Without one,
	// pages render untranslated.
	Matcher language.Matcher
	// Vars returns the exported variables for a request.
	Vars func(r *http.Request) (map[string]any, error)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tag := language.Und
	if h.Matcher != nil {
		tag, _ = language.MatchStrings(h.Matcher, r.Header.Get("Accept-Language"))
	}

	var vars map[string]any
	if h.Vars != nil {
		var err error
		if vars, err = h.Vars(r); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	body, err := Render(h.Name, NewContext(tag, vars))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, body)
}
