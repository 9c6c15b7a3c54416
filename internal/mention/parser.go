// Package mention extracts @mentions and #tags from journal text and resolves
// mentions against known clients, projects and content.
package mention

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/agencyhub/internal/models"
)

// Kind is the entity category a mention resolved to.
type Kind string

const (
	KindClient  Kind = "client"
	KindProject Kind = "project"
	KindContent Kind = "content"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z0-9][A-Za-z0-9_-]*)`)

// Candidates are the entities a mention may resolve to.
type Candidates struct {
	Clients  []models.Entity
	Projects []models.Entity
	Content  []models.Entity
}

// Span locates one resolved mention in the source text (byte offsets, End
// exclusive, covering the leading '@').
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
}

// Result holds the output of parsing one entry.
type Result struct {
	Clients  []string `json:"mentioned_clients"`
	Projects []string `json:"mentioned_projects"`
	Content  []string `json:"mentioned_content"`
	Tags     []string `json:"tags"`
	Spans    []Span   `json:"spans"`
}

type candidate struct {
	kind Kind
	id   string
	name string
}

var kindOrder = map[Kind]int{KindClient: 0, KindProject: 1, KindContent: 2}

// Parse scans text for @mentions and #tags. It never fails: text with nothing
// to extract yields empty, non-nil slices.
func Parse(text string, c Candidates) Result {
	res := Result{
		Clients:  []string{},
		Projects: []string{},
		Content:  []string{},
		Tags:     extractTags(text),
		Spans:    []Span{},
	}

	cands := flatten(c)
	if len(cands) > 0 {
		seen := make(map[Kind]map[string]struct{}, 3)
		for i := 0; i < len(text); {
			at := strings.IndexByte(text[i:], '@')
			if at < 0 {
				break
			}
			pos := i + at
			if !opensMention(text[:pos]) {
				i = pos + 1
				continue
			}
			m, ok := matchAt(text, pos+1, cands)
			if !ok {
				i = pos + 1
				continue
			}
			end := pos + 1 + len(m.name)
			res.Spans = append(res.Spans, Span{Start: pos, End: end, Kind: m.kind, ID: m.id})
			if seen[m.kind] == nil {
				seen[m.kind] = make(map[string]struct{})
			}
			if _, dup := seen[m.kind][m.id]; !dup {
				seen[m.kind][m.id] = struct{}{}
				switch m.kind {
				case KindClient:
					res.Clients = append(res.Clients, m.id)
				case KindProject:
					res.Projects = append(res.Projects, m.id)
				case KindContent:
					res.Content = append(res.Content, m.id)
				}
			}
			i = end
		}
	}
	return res
}

// flatten merges all candidates, longest name first so that "Acme Corp"
// wins over "Acme" at the same position.
func flatten(c Candidates) []candidate {
	var out []candidate
	add := func(kind Kind, list []models.Entity) {
		for _, e := range list {
			name := strings.TrimSpace(e.Name)
			if name == "" || e.ID == "" {
				continue
			}
			out = append(out, candidate{kind: kind, id: e.ID, name: name})
		}
	}
	add(KindClient, c.Clients)
	add(KindProject, c.Projects)
	add(KindContent, c.Content)

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].name) != len(out[j].name) {
			return len(out[i].name) > len(out[j].name)
		}
		if out[i].kind != out[j].kind {
			return kindOrder[out[i].kind] < kindOrder[out[j].kind]
		}
		return out[i].id < out[j].id
	})
	return out
}

// matchAt returns the first candidate whose name appears at text[start:]
// (case-insensitive) and ends on a word boundary.
func matchAt(text string, start int, cands []candidate) (candidate, bool) {
	rest := text[start:]
	for _, cd := range cands {
		if len(rest) < len(cd.name) {
			continue
		}
		if !strings.EqualFold(rest[:len(cd.name)], cd.name) {
			continue
		}
		if !boundary(rest[len(cd.name):]) {
			continue
		}
		return cd, true
	}
	return candidate{}, false
}

// opensMention reports whether an '@' preceded by before starts a mention: at
// the start of the text, after whitespace or after an opening bracket or
// quote. This keeps e-mail addresses like bob@acme.com from matching.
func opensMention(before string) bool {
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsSpace(r) || strings.ContainsRune("([{\"'", r)
}

func boundary(after string) bool {
	if after == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(after)
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

// extractTags returns lower-cased #tags, de-duplicated in first-seen order.
func extractTags(text string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		t := strings.ToLower(m[1])
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
