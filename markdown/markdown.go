// Package markdown renders post and comment bodies as HTML templ
// components. It covers the subset authors actually use: headings,
// paragraphs, lists, blockquotes, fenced code, rules, and the inline
// bold/italic/code/link forms. Everything is HTML-escaped first, so a
// body can never inject markup.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic      = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode  = regexp.MustCompile("`([^`]+)`")
	reLink        = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reOrderedItem = regexp.MustCompile(`^\d+\.\s`)
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, md)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of md to buf.
func Render(buf *bytes.Buffer, md string) {
	var inPara, inList, inOrdered, inQuote, inCode bool

	closeBlocks := func() {
		if inPara {
			buf.WriteString("</p>")
			inPara = false
		}
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
		if inOrdered {
			buf.WriteString("</ol>")
			inOrdered = false
		}
		if inQuote {
			buf.WriteString("</blockquote>")
			inQuote = false
		}
	}

	for _, raw := range strings.Split(md, "\n") {
		line := strings.TrimRight(raw, "\r")

		if strings.HasPrefix(line, "```") {
			if inCode {
				buf.WriteString("</code></pre>")
				inCode = false
			} else {
				closeBlocks()
				buf.WriteString("<pre><code>")
				inCode = true
			}
			continue
		}
		if inCode {
			buf.WriteString(html.EscapeString(line))
			buf.WriteString("\n")
			continue
		}

		if strings.TrimSpace(line) == "" {
			closeBlocks()
			continue
		}

		switch {
		case strings.HasPrefix(line, "---"):
			closeBlocks()
			buf.WriteString("<hr/>")
		case strings.HasPrefix(line, "### "):
			closeBlocks()
			buf.WriteString("<h3>" + FormatInline(strings.TrimSpace(line[4:])) + "</h3>")
		case strings.HasPrefix(line, "## "):
			closeBlocks()
			buf.WriteString("<h2>" + FormatInline(strings.TrimSpace(line[3:])) + "</h2>")
		case strings.HasPrefix(line, "# "):
			closeBlocks()
			buf.WriteString("<h1>" + FormatInline(strings.TrimSpace(line[2:])) + "</h1>")
		case strings.HasPrefix(line, "- "):
			if !inList {
				closeBlocks()
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>" + FormatInline(strings.TrimSpace(line[2:])) + "</li>")
		case reOrderedItem.MatchString(line):
			if !inOrdered {
				closeBlocks()
				buf.WriteString("<ol>")
				inOrdered = true
			}
			item := reOrderedItem.ReplaceAllString(line, "")
			buf.WriteString("<li>" + FormatInline(strings.TrimSpace(item)) + "</li>")
		case strings.HasPrefix(line, "> "):
			if !inQuote {
				closeBlocks()
				buf.WriteString("<blockquote>")
				inQuote = true
			}
			buf.WriteString(FormatInline(strings.TrimSpace(line[2:])))
		default:
			if !inPara {
				closeBlocks()
				buf.WriteString("<p>")
				inPara = true
			} else {
				buf.WriteString(" ")
			}
			buf.WriteString(FormatInline(strings.TrimSpace(line)))
		}
	}
	if inCode {
		buf.WriteString("</code></pre>")
	}
	closeBlocks()
}

// FormatInline applies inline formatting (code, links, bold, italic) to s.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)

	// Extract inline code first so bold/italic regexes never touch it.
	var codeSpans []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reInlineCode.FindStringSubmatch(m)
		placeholder := "\x00C" + strconv.Itoa(len(codeSpans)) + "\x00"
		codeSpans = append(codeSpans, "<code>"+match[1]+"</code>")
		return placeholder
	})

	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `" rel="noopener">` + match[1] + `</a>`
	})

	escaped = applyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		return seg
	})

	for i, code := range codeSpans {
		escaped = strings.Replace(escaped, "\x00C"+strconv.Itoa(i)+"\x00", code, 1)
	}
	return escaped
}

// applyOutsideTags applies fn only to text segments outside HTML tags,
// so formatting regexes never touch URLs inside href attributes.
func applyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto":
		return html.EscapeString(val)
	default:
		return ""
	}
}
