package studio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/starford/agencyhub/internal/models"
)

// TaskType selects the built-in instructions for a generation.
type TaskType string

const (
	TaskEmail       TaskType = "email"
	TaskAdCopy      TaskType = "ad_copy"
	TaskBlogPost    TaskType = "blog_post"
	TaskLandingPage TaskType = "landing_page"
	TaskSocialPost  TaskType = "social_post"
	TaskCustom      TaskType = "custom"
)

type taskSpec struct {
	label        string
	instructions string
	asset        models.AssetType
}

var tasks = map[TaskType]taskSpec{
	TaskEmail: {
		label: "Email",
		instructions: "Write a marketing email. Start with a subject line prefixed with \"Subject:\", " +
			"then a short preview line, then the body. Keep paragraphs short and end with one clear call to action.",
		asset: models.AssetEmail,
	},
	TaskAdCopy: {
		label: "Ad copy",
		instructions: "Write three ad variations. Each has a headline of at most 40 characters, " +
			"a primary text of at most 125 characters and a call to action.",
		asset: models.AssetAdCopy,
	},
	TaskBlogPost: {
		label: "Blog post",
		instructions: "Write a blog post with a title, an introduction, sections with descriptive " +
			"subheadings and a conclusion. Use plain language and concrete examples.",
		asset: models.AssetBlogPost,
	},
	TaskLandingPage: {
		label: "Landing page",
		instructions: "Write landing page copy: hero headline, subheadline, three benefit blocks, " +
			"social proof placeholder, an FAQ of three questions and a closing call to action.",
		asset: models.AssetLandingPage,
	},
	TaskSocialPost: {
		label: "Social post",
		instructions: "Write three social media posts of different lengths. Suggest up to three hashtags per post.",
		asset: models.AssetNote,
	},
	TaskCustom: {
		label:        "Custom",
		instructions: "Follow the request below exactly.",
		asset:        models.AssetNote,
	},
}

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	_, ok := tasks[t]
	return ok
}

// TaskTypes lists the task types in display order.
func TaskTypes() []TaskType {
	return []TaskType{TaskEmail, TaskAdCopy, TaskBlogPost, TaskLandingPage, TaskSocialPost, TaskCustom}
}

const basePrompt = "You are a senior copywriter at a marketing agency. Write in the client's brand voice " +
	"and respect every value and restriction in the brand profile."

// systemPrompt assembles brand context, framework snippets and task
// instructions. Empty parts are left out.
func systemPrompt(task TaskType, brand models.BrandProfile, snippets []models.ChunkMatch) (string, error) {
	var b strings.Builder
	b.WriteString(basePrompt)

	if len(brand) > 0 {
		var raw bytes.Buffer
		enc := json.NewEncoder(&raw)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(brand); err != nil {
			return "", fmt.Errorf("studio: encode brand profile: %w", err)
		}
		b.WriteString("\n\n## Brand profile\n```json\n")
		b.Write(raw.Bytes())
		b.WriteString("```")
	}

	if len(snippets) > 0 {
		b.WriteString("\n\n## Copywriting frameworks\nApply these where they fit the request.")
		for _, s := range snippets {
			fmt.Fprintf(&b, "\n\n### %s\n%s", s.FrameworkName, s.Content)
		}
	}

	b.WriteString("\n\n## Task\n")
	b.WriteString(tasks[task].instructions)
	return b.String(), nil
}

// textToHTML turns model output into simple paragraphs for a note body.
func textToHTML(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = html.EscapeString(l)
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

func defaultTitle(task TaskType, prompt string) string {
	p := strings.Join(strings.Fields(prompt), " ")
	if r := []rune(p); len(r) > 60 {
		p = strings.TrimSpace(string(r[:60])) + "..."
	}
	return tasks[task].label + ": " + p
}
