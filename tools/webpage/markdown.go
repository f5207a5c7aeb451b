package webpage

import (
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,table"

var (
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// ToMarkdown extracts the readable content of an HTML page as lightweight
// markdown: headings, paragraphs, list items, code blocks, quotes and tables.
func ToMarkdown(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script,style,noscript,svg,iframe,nav,footer").Remove()

	var out []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		out = append(out, "# "+title)
	}

	doc.Find(blockSelector).Each(func(i int, s *goquery.Selection) {
		// Nested blocks are rendered by their outermost ancestor.
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if block := renderBlock(s); block != "" {
			out = append(out, block)
		}
	})
	return Clean(strings.Join(out, "\n\n")), nil
}

func renderBlock(s *goquery.Selection) string {
	name := goquery.NodeName(s)
	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := inlineText(s)
		if text == "" {
			return ""
		}
		return strings.Repeat("#", int(name[1]-'0')) + " " + text
	case "li":
		text := inlineText(s)
		if text == "" {
			return ""
		}
		return "- " + text
	case "pre":
		return "```\n" + strings.Trim(s.Text(), "\n") + "\n```"
	case "blockquote":
		return "> " + inlineText(s)
	case "table":
		return renderTable(s)
	default:
		return inlineText(s)
	}
}

// inlineText renders the text of s with links as [text](href).
func inlineText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(i int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
		case "a":
			text := strings.TrimSpace(c.Text())
			href, ok := c.Attr("href")
			if ok && text != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
				b.WriteString("[" + text + "](" + href + ")")
			} else {
				b.WriteString(c.Text())
			}
		case "code":
			b.WriteString("`" + c.Text() + "`")
		case "br":
			b.WriteString("\n")
		default:
			b.WriteString(inlineText(c))
		}
	})
	return strings.TrimSpace(reSpaces.ReplaceAllString(b.String(), " "))
}

func renderTable(sel *goquery.Selection) string {
	var rows []string
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cols []string
		tr.Find("th,td").Each(func(j int, td *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(td.Text()))
		})
		if len(cols) == 0 {
			return
		}
		rows = append(rows, "| "+strings.Join(cols, " | ")+" |")
		if len(rows) == 1 {
			rows = append(rows, "|"+strings.Repeat(" --- |", len(cols)))
		}
	})
	return strings.Join(rows, "\n")
}

// Clean strips control characters and collapses runs of blank lines.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	b := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	b = reNewlines.ReplaceAllString(b, "\n\n")
	return strings.TrimSpace(b)
}
