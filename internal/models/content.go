package models

import (
	"encoding/json"
	"errors"
	"html"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AssetType classifies library content.
type AssetType string

const (
	AssetNote        AssetType = "note"
	AssetEmail       AssetType = "email"
	AssetAdCopy      AssetType = "ad_copy"
	AssetBlogPost    AssetType = "blog_post"
	AssetLandingPage AssetType = "landing_page"
	AssetResearchPDF AssetType = "research_pdf"
	AssetFile        AssetType = "file"
)

// AssetTypes lists every asset type.
var AssetTypes = []AssetType{AssetNote, AssetEmail, AssetAdCopy, AssetBlogPost, AssetLandingPage, AssetResearchPDF, AssetFile}

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	for _, v := range AssetTypes {
		if t == v {
			return true
		}
	}
	return false
}

// NoteFormat says how a note body is encoded.
type NoteFormat string

const (
	// FormatDoc is a structured rich-text document (editor JSON).
	FormatDoc NoteFormat = "doc"
	// FormatHTML is an HTML string.
	FormatHTML NoteFormat = "html"
)

// NoteBody is written content owned by the library.
type NoteBody struct {
	Format NoteFormat      `json:"format"`
	Doc    json.RawMessage `json:"doc,omitempty"`
	HTML   string          `json:"html,omitempty"`
}

// FileBody points at an uploaded blob in object storage.
type FileBody struct {
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type"`
	Filename  string `json:"filename,omitempty"`
}

// BodyKind names the active Body variant.
type BodyKind string

const (
	BodyNote BodyKind = "note"
	BodyFile BodyKind = "file"
)

// Body is the tagged content of an asset: exactly one of Note or File.
type Body struct {
	Note *NoteBody `json:"note,omitempty"`
	File *FileBody `json:"file,omitempty"`
}

var (
	errBodyBoth  = errors.New("must hold either note content or a file, not both")
	errBodyEmpty = errors.New("must hold note content or a file")
)

// Kind returns the active variant, or "" when the body is empty or ambiguous.
func (b Body) Kind() BodyKind {
	switch {
	case b.Note != nil && b.File == nil:
		return BodyNote
	case b.File != nil && b.Note == nil:
		return BodyFile
	}
	return ""
}

// Validate enforces the variant invariant and the per-variant required fields.
func (b Body) Validate() error {
	switch {
	case b.Note != nil && b.File != nil:
		return errBodyBoth
	case b.Note == nil && b.File == nil:
		return errBodyEmpty
	case b.Note != nil:
		n := b.Note
		return validation.ValidateStruct(n,
			validation.Field(&n.Format, validation.Required, validation.In(FormatDoc, FormatHTML)),
			validation.Field(&n.Doc, validation.When(n.Format == FormatDoc, validation.Required, validation.By(isJSON))),
		)
	default:
		f := b.File
		return validation.ValidateStruct(f,
			validation.Field(&f.URL, validation.Required),
			validation.Field(&f.ObjectKey, validation.Required),
			validation.Field(&f.Size, validation.Min(int64(0))),
		)
	}
}

func isJSON(v any) error {
	raw, _ := v.(json.RawMessage)
	if len(raw) > 0 && !json.Valid(raw) {
		return errors.New("must be valid JSON")
	}
	return nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// PlainText flattens note content for search, prompts and export. File bodies
// have no text.
func (b Body) PlainText() string {
	if b.Note == nil {
		return ""
	}
	switch b.Note.Format {
	case FormatHTML:
		s := tagRe.ReplaceAllString(b.Note.HTML, " ")
		return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
	case FormatDoc:
		var node any
		if err := json.Unmarshal(b.Note.Doc, &node); err != nil {
			return ""
		}
		var parts []string
		collectText(node, &parts)
		return strings.Join(parts, " ")
	}
	return ""
}

// collectText walks editor JSON and gathers every "text" leaf.
func collectText(node any, out *[]string) {
	switch v := node.(type) {
	case map[string]any:
		if t, ok := v["text"].(string); ok && t != "" {
			*out = append(*out, t)
		}
		if c, ok := v["content"]; ok {
			collectText(c, out)
		}
	case []any:
		for _, item := range v {
			collectText(item, out)
		}
	}
}

// AIProvenance records how generated content was produced.
type AIProvenance struct {
	Model        string   `json:"model"`
	Provider     string   `json:"provider"`
	TaskType     string   `json:"task_type"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	CostUSD      float64  `json:"cost_usd"`
	ExecutionID  string   `json:"execution_id,omitempty"`
	FrameworkIDs []string `json:"framework_ids,omitempty"`
}

// AssetMetadata is the free-form metadata column.
type AssetMetadata struct {
	AI    *AIProvenance  `json:"ai,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// ContentAsset is one item in the content library.
type ContentAsset struct {
	ID        string        `json:"id"`
	ClientID  string        `json:"client_id"`
	ProjectID *string       `json:"project_id,omitempty"`
	Title     string        `json:"title"`
	AssetType AssetType     `json:"asset_type"`
	Body      Body          `json:"body"`
	Metadata  AssetMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Validate checks the asset and its body variant.
func (a *ContentAsset) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.ClientID, validation.Required),
		validation.Field(&a.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&a.AssetType, validation.Required, validation.By(func(v any) error {
			if t, _ := v.(AssetType); !t.Valid() {
				return errors.New("unknown asset type")
			}
			return nil
		})),
		validation.Field(&a.Body),
	)
}
