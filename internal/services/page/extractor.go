// -----------------------------------------------------------------------
// Page Extractor - hidden form fields and login nonce from portal HTML
// -----------------------------------------------------------------------

package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HiddenInputs extracts all hidden form inputs that carry both a non-empty
// id and a non-empty value, keyed by id. Inputs missing either attribute are
// skipped silently. Malformed HTML is tolerated; a page with no qualifying
// inputs yields an empty map.
func HiddenInputs(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fields := make(map[string]string)
	doc.Find("input[type='hidden']").Each(func(i int, s *goquery.Selection) {
		id, hasID := s.Attr("id")
		value, hasValue := s.Attr("value")
		if !hasID || id == "" || !hasValue || value == "" {
			return
		}
		fields[id] = value
	})

	return fields, nil
}

// NonceValue returns the value attribute of the first element named "nonce".
// The second return reports whether such an element was found; the login
// flow treats absence as fatal.
func NonceValue(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	nonce := doc.Find(`[name="nonce"]`).First()
	if nonce.Length() == 0 {
		return "", false
	}

	value, ok := nonce.Attr("value")
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
