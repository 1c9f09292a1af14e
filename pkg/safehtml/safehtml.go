// Package safehtml provides escaping-by-default string templating for the
// binding and component layers. Interpolated values are escaped unless they
// are already HTML, so untrusted data cannot break out of markup.
package safehtml

import (
	"fmt"
	"strings"
)

// HTML wraps markup that is safe to insert without further escaping. Obtain
// one from Tmpl, Trusted or Join; the zero value is empty markup.
type HTML struct {
	Content string
}

// Tmpl formats markup with fmt verbs. The format string is trusted; every
// argument is escaped before substitution, except HTML and []HTML values,
// whose content passes through verbatim. Nested Tmpl results therefore
// compose without double escaping.
func Tmpl(format string, args ...any) HTML {
	safe := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case HTML:
			safe[i] = v.Content
		case []HTML:
			parts := make([]string, len(v))
			for j, h := range v {
				parts[j] = h.Content
			}
			safe[i] = strings.Join(parts, "")
		case string:
			safe[i] = Escape(v)
		default:
			safe[i] = Escape(fmt.Sprint(v))
		}
	}
	return HTML{Content: fmt.Sprintf(format, safe...)}
}

// Trusted wraps content without escaping. Trusted(x).Content == x, exactly.
// Only use it for markup from a trusted source.
func Trusted(content string) HTML {
	return HTML{Content: content}
}

// Join concatenates safe fragments with a separator. The separator is
// trusted markup.
func Join(items []HTML, sep string) HTML {
	parts := make([]string, len(items))
	for i, h := range items {
		parts[i] = h.Content
	}
	return HTML{Content: strings.Join(parts, sep)}
}

// Escape converts the HTML metacharacters in s to entities.
func Escape(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// EscapeAttr escapes s for use inside an attribute value. Beyond the
// standard entities it encodes whitespace that could break attribute
// parsing.
func EscapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
