package relay

import (
	"html"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// trailingPunct is dropped from the end of a matched URL; it belongs to the
// surrounding sentence.
const trailingPunct = `.,;:!?'")]}`

// FormatHTML renders a plain-text body as HTML. Every line becomes a paragraph,
// blank lines become breaks and bare URLs become links. The signature follows
// a horizontal rule. No text is dropped.
func FormatHTML(body, signature string) string {
	var b strings.Builder

	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			b.WriteString("<br>\n")
			continue
		}
		b.WriteString("<p>")
		b.WriteString(renderLine(line))
		b.WriteString("</p>\n")
	}

	b.WriteString("<hr>\n")
	b.WriteString("<p>")
	b.WriteString(html.EscapeString(signature))
	b.WriteString("</p>")
	return b.String()
}

// renderLine escapes line and wraps each URL in an anchor.
func renderLine(line string) string {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(line, -1) {
		url := trimURL(line[loc[0]:loc[1]])
		if !hasHost(url) {
			continue
		}
		b.WriteString(html.EscapeString(line[last:loc[0]]))

		escaped := html.EscapeString(url)
		b.WriteString(`<a href="` + escaped + `">` + escaped + `</a>`)
		last = loc[0] + len(url)
	}
	b.WriteString(html.EscapeString(line[last:]))
	return b.String()
}

// trimURL strips trailing punctuation. A closing parenthesis stays when the
// URL opened one itself.
func trimURL(url string) string {
	for url != "" {
		c := url[len(url)-1]
		if !strings.ContainsRune(trailingPunct, rune(c)) {
			break
		}
		if c == ')' && strings.Count(url, "(") >= strings.Count(url, ")") {
			break
		}
		url = url[:len(url)-1]
	}
	return url
}

func hasHost(url string) bool {
	i := strings.Index(url, "://")
	return i >= 0 && i+3 < len(url)
}
