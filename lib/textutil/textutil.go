package textutil

import (
	"net/url"
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// NormalizeURL is applied to every business url before it is used as a
// storage key, both on write and on read, so that trivial variations of
// the same address correlate to the same observation history.
func NormalizeURL(raw string) string {
	raw = strings.Trim(raw, " \n\t")
	link, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	link.Scheme = strings.ToLower(link.Scheme)
	link.Host = strings.ToLower(link.Host)
	link.Fragment = ""
	out := link.String()
	if link.Path == "/" || strings.HasSuffix(out, "/") {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}
