package render

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// replyPolicy keeps only structural markup that maps onto terminal text.
// Scripts, styles, event handlers and unknown elements are dropped.
var replyPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "div", "span", "ul", "ol", "li",
		"b", "strong", "i", "em", "code", "pre", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	return p
}()

var blankLines = regexp.MustCompile(`\n{3,}`)

// SanitizeReply converts untrusted reply markup into markdown-flavoured
// plain text. Tags become line structure or markdown emphasis, entities
// are decoded and terminal control characters are removed.
func SanitizeReply(markup string) string {
	clean := replyPolicy.Sanitize(markup)
	text := htmlToText(clean)
	text = stripControl(text)
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// htmlToText walks sanitized HTML and emits text
func htmlToText(fragment string) string {
	var sb strings.Builder
	var hrefs []string
	inPre := false

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return sb.String()

		case html.TextToken:
			sb.Write(z.Text())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch tag {
			case "br":
				sb.WriteString("\n")
			case "p", "div", "blockquote":
				sb.WriteString("\n\n")
			case "li":
				sb.WriteString("\n- ")
			case "b", "strong":
				sb.WriteString("**")
			case "i", "em":
				sb.WriteString("_")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
			case "pre":
				inPre = true
				sb.WriteString("\n\n```\n")
			case "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteString("\n\n" + strings.Repeat("#", int(tag[1]-'0')) + " ")
			case "a":
				href := ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "href" {
						href = string(val)
					}
				}
				hrefs = append(hrefs, href)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p", "div", "blockquote", "ul", "ol":
				sb.WriteString("\n\n")
			case "b", "strong":
				sb.WriteString("**")
			case "i", "em":
				sb.WriteString("_")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
			case "pre":
				inPre = false
				sb.WriteString("\n```\n\n")
			case "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteString("\n\n")
			case "a":
				if n := len(hrefs); n > 0 {
					if href := hrefs[n-1]; href != "" {
						sb.WriteString(" (" + href + ")")
					}
					hrefs = hrefs[:n-1]
				}
			}
		}
	}
}

// stripControl removes control characters other than newline and tab,
// which keeps escape sequences in a reply from reaching the terminal
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
