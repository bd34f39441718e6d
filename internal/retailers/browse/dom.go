package browse

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Collapse trims and collapses internal whitespace.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the collapsed text of the first selector that yields a
// non-empty value within sel.
func Text(sel *goquery.Selection, selectors ...string) string {
	for _, css := range selectors {
		if t := Collapse(sel.Find(css).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// Attr returns the first non-empty attribute value among the selectors.
func Attr(sel *goquery.Selection, name string, selectors ...string) string {
	for _, css := range selectors {
		if v, ok := sel.Find(css).First().Attr(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// ImageURL picks an image source: src, then data-src, then the last (and
// usually largest) srcset candidate. Inline data URIs are placeholders and
// are skipped.
func ImageURL(img *goquery.Selection) string {
	for _, name := range []string{"src", "data-src"} {
		if v := strings.TrimSpace(img.AttrOr(name, "")); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	srcset := strings.TrimSpace(img.AttrOr("srcset", ""))
	if srcset == "" {
		return ""
	}
	candidates := strings.Split(srcset, ",")
	last := strings.Fields(strings.TrimSpace(candidates[len(candidates)-1]))
	if len(last) == 0 {
		return ""
	}
	return last[0]
}

// Absolute resolves ref against base. Unparseable input is returned as is.
func Absolute(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// StripQuery drops the query string and fragment.
func StripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
