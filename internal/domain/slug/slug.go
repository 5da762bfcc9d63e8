// Package slug converts category keys to URL slugs and page titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\w-]+`)
	dashRun    = regexp.MustCompile(`-{2,}`)
	separators = regexp.MustCompile(`[-_]`)
	wordStart  = regexp.MustCompile(`\b\w`)
)

// Slugify lower-cases text, turns whitespace runs into dashes and drops
// everything but ASCII word characters and dashes.
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = spaceRun.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	return dashRun.ReplaceAllString(s, "-")
}

// ToDisplayName turns a category key into a title: "labor_market" ->
// "Labor Market".
func ToDisplayName(key string) string {
	s := separators.ReplaceAllString(key, " ")
	return wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}

// Find returns the key in keys whose slug equals s.
func Find(keys []string, s string) (string, bool) {
	for _, k := range keys {
		if Slugify(k) == s {
			return k, true
		}
	}
	return "", false
}
