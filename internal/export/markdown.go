package export

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/starford/agencyhub/internal/models"
)

// AssetMarkdown renders an asset's title and note body as Markdown.
func AssetMarkdown(a *models.ContentAsset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", oneLine(a.Title))
	fmt.Fprintf(&b, "*%s, %s*\n\n", strings.ReplaceAll(string(a.AssetType), "_", " "), a.UpdatedAt.Format("2 Jan 2006"))
	if a.Body.Note == nil {
		return b.String()
	}
	switch a.Body.Note.Format {
	case models.FormatHTML:
		b.WriteString(HTMLToMarkdown(a.Body.Note.HTML))
	case models.FormatDoc:
		b.WriteString(DocToMarkdown(a.Body.Note.Doc))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	reBreak    = regexp.MustCompile(`(?i)<br\s*/?>`)
	reBlockEnd = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|ul|ol|blockquote)>`)
	reHeading  = regexp.MustCompile(`(?i)<h([1-6])[^>]*>`)
	reItem     = regexp.MustCompile(`(?i)<li[^>]*>`)
	reBold     = regexp.MustCompile(`(?i)</?(strong|b)>`)
	reItalic   = regexp.MustCompile(`(?i)</?(em|i)>`)
	reTag      = regexp.MustCompile(`<[^>]*>`)
	reBlank    = regexp.MustCompile(`\n{3,}`)
)

// HTMLToMarkdown handles the subset of HTML the editor produces: headings,
// paragraphs, lists, line breaks, bold and italic.
func HTMLToMarkdown(s string) string {
	s = reBreak.ReplaceAllString(s, "\n")
	s = reHeading.ReplaceAllStringFunc(s, func(m string) string {
		level := reHeading.FindStringSubmatch(m)[1][0] - '0'
		return "\n" + strings.Repeat("#", int(level)) + " "
	})
	s = reItem.ReplaceAllString(s, "\n- ")
	s = reBlockEnd.ReplaceAllString(s, "\n\n")
	s = reBold.ReplaceAllString(s, "**")
	s = reItalic.ReplaceAllString(s, "*")
	s = reTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = reBlank.ReplaceAllString(s, "\n\n")
	// list items end up separated by blank lines; pull them together
	s = strings.ReplaceAll(s, "\n\n- ", "\n- ")
	return strings.TrimSpace(s) + "\n"
}

type docMark struct {
	Type string `json:"type"`
}

type docNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text"`
	Attrs   map[string]any `json:"attrs"`
	Marks   []docMark      `json:"marks"`
	Content []docNode      `json:"content"`
}

// DocToMarkdown renders editor JSON (paragraph, heading, bulletList,
// orderedList, listItem, text with bold/italic marks).
func DocToMarkdown(raw json.RawMessage) string {
	var root docNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return ""
	}
	var blocks []string
	for _, n := range root.Content {
		if s := block(n); s != "" {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func block(n docNode) string {
	switch n.Type {
	case "heading":
		level := 1
		if l, ok := n.Attrs["level"].(float64); ok && l >= 1 && l <= 6 {
			level = int(l)
		}
		return strings.Repeat("#", level) + " " + inline(n.Content)
	case "bulletList", "orderedList":
		var items []string
		for i, item := range n.Content {
			marker := "-"
			if n.Type == "orderedList" {
				marker = fmt.Sprintf("%d.", i+1)
			}
			var parts []string
			for _, c := range item.Content {
				parts = append(parts, block(c))
			}
			items = append(items, marker+" "+strings.Join(parts, " "))
		}
		return strings.Join(items, "\n")
	case "blockquote":
		var parts []string
		for _, c := range n.Content {
			parts = append(parts, "> "+block(c))
		}
		return strings.Join(parts, "\n")
	}
	return inline(n.Content)
}

func inline(nodes []docNode) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case "text":
			t := n.Text
			for _, m := range n.Marks {
				switch m.Type {
				case "bold":
					t = "**" + t + "**"
				case "italic":
					t = "*" + t + "*"
				}
			}
			b.WriteString(t)
		case "hardBreak":
			b.WriteString("\n")
		default:
			b.WriteString(inline(n.Content))
		}
	}
	return b.String()
}
