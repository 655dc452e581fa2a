// Package sitetest serves a small fake catalog over httptest for tests.
package sitetest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const CategoryPath = "/robots-piscine/159/cg"

// ImageBytes is served for every image URL.
var ImageBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0x01}

type Product struct {
	Slug        string
	Name        string
	PartNumber  string
	Price       string // raw text, e.g. "1 299,00 €"
	Description string
	// DescriptionInDiv puts the description in a nested div instead of a p.
	DescriptionInDiv bool
	NoDescription    bool
	NoImage          bool
	NoPrice          bool
}

type Subcategory struct {
	Slug        string
	Name        string
	NoThumbnail bool
	// EmptyThumbnail keeps the thumbnail container but drops its image.
	EmptyThumbnail bool
	Products       []Product
}

// Site is a mutable fake catalog. Handlers read it under a lock, so tests may
// change it between runs.
type Site struct {
	mu            sync.Mutex
	subcategories []Subcategory
	hits          map[string]int
	status        map[string]int

	Server *httptest.Server
}

func New(t *testing.T, subcategories ...Subcategory) *Site {
	t.Helper()

	s := &Site{
		subcategories: subcategories,
		hits:          make(map[string]int),
		status:        make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *Site) URL() string {
	return s.Server.URL
}

func (s *Site) CategoryURL() string {
	return s.Server.URL + CategoryPath
}

// FailPath makes every request to path answer with status.
func (s *Site) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = status
}

// ClearFailure undoes FailPath.
func (s *Site) ClearFailure(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.status, path)
}

// Hits returns how many times path was requested.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// ResetHits clears the request counters.
func (s *Site) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
}

func ProductPath(subSlug, productSlug string) string {
	return fmt.Sprintf("/p/%s/%s.html", subSlug, productSlug)
}

func SubcategoryPath(subSlug string) string {
	return fmt.Sprintf("/c/%s", subSlug)
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := r.URL.Path
	s.hits[path]++

	if code, ok := s.status[path]; ok {
		http.Error(w, http.StatusText(code), code)
		return
	}

	switch {
	case path == CategoryPath:
		s.writeHTML(w, s.categoryPage())
		return
	case strings.HasPrefix(path, "/images/"):
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(ImageBytes)
		return
	}

	for _, sub := range s.subcategories {
		if path == SubcategoryPath(sub.Slug) {
			s.writeHTML(w, s.subcategoryPage(sub))
			return
		}
		for _, p := range sub.Products {
			if path == ProductPath(sub.Slug, p.Slug) {
				s.writeHTML(w, s.productPage(p))
				return
			}
		}
	}

	http.NotFound(w, r)
}

func (s *Site) writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, "<html><body>"+body+"</body></html>")
}

func (s *Site) categoryPage() string {
	var b strings.Builder
	b.WriteString(`<div class="row">`)
	for _, sub := range s.subcategories {
		fmt.Fprintf(&b, `<div class="categorie"><a href="%s"><img src="/images/cat/%s.gif" alt=""><h4> %s </h4></a></div>`,
			SubcategoryPath(sub.Slug), sub.Slug, html.EscapeString(sub.Name))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func (s *Site) subcategoryPage(sub Subcategory) string {
	var b strings.Builder
	switch {
	case sub.NoThumbnail:
	case sub.EmptyThumbnail:
		b.WriteString(`<div class="row image"><span>no picture</span></div>`)
	default:
		// Thumbnails are referenced with absolute URLs on the real site.
		fmt.Fprintf(&b, `<div class="row image"><img src="%s/images/thumbs/%s.jpg"></div>`, s.Server.URL, sub.Slug)
	}
	for _, p := range sub.Products {
		fmt.Fprintf(&b, `<div class="col-sm-7 col-xs-12"><a href="%s">%s</a></div>`,
			ProductPath(sub.Slug, p.Slug), html.EscapeString(p.Name))
	}
	return b.String()
}

func (s *Site) productPage(p Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<h1 class="titre-produit">  %s </h1>`, html.EscapeString(p.Name))
	fmt.Fprintf(&b, `<table><tr class="first"><td>Référence</td><td> %s </td></tr></table>`, html.EscapeString(p.PartNumber))
	if !p.NoPrice {
		fmt.Fprintf(&b, `<span class="prix">%s</span>`, html.EscapeString(p.Price))
	}
	if !p.NoDescription {
		if p.DescriptionInDiv {
			fmt.Fprintf(&b, `<div class="description"><div> %s </div></div>`, html.EscapeString(p.Description))
		} else {
			fmt.Fprintf(&b, `<div class="description"><p> %s </p><div>ignored</div></div>`, html.EscapeString(p.Description))
		}
	}
	b.WriteString(`<div class="col-sm-5 photos">`)
	if !p.NoImage {
		fmt.Fprintf(&b, `<img src="/images/products/%s.png?v=2">`, p.Slug)
	}
	b.WriteString(`</div>`)
	return b.String()
}
