// Package parser reads copywriting framework documents: Markdown with optional
// YAML frontmatter.
package parser

import (
	"bytes"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document holds the output of parsing a framework file.
type Document struct {
	Frontmatter map[string]any
	Body        string
	Name        string
	Description string
}

// Parse extracts frontmatter and body from raw Markdown bytes. The name comes
// from frontmatter "name" or "title", else the first H1 heading, else
// fallback (usually the file name without extension).
func Parse(data []byte, fallback string) (*Document, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	name := deriveName(fm, body)
	if name == "" {
		name = strings.TrimSuffix(path.Base(fallback), path.Ext(fallback))
	}
	return &Document{
		Frontmatter: fm,
		Body:        strings.TrimSpace(body),
		Name:        name,
		Description: fmString(fm, "description"),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the whole file as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

func fmString(fm map[string]any, key string) string {
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func deriveName(fm map[string]any, body string) string {
	for _, k := range []string{"name", "title"} {
		if s := fmString(fm, k); s != "" {
			return s
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
