// Package questionnaire defines the eight-section client intake form and the
// server-side validation that re-derives its conditional logic.
package questionnaire

// Kind is the input type of a question.
type Kind string

const (
	KindText        Kind = "text"
	KindLongText    Kind = "long_text"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindEmail       Kind = "email"
	KindURL         Kind = "url"
	KindNumber      Kind = "number"
	KindFile        Kind = "file"
)

// Condition makes a question required only when another answer in the same
// section takes one of the listed values.
type Condition struct {
	Question string   `json:"question"`
	In       []string `json:"in"`
}

// Question is one schema entry.
type Question struct {
	Key          string     `json:"key"`
	Label        string     `json:"label"`
	Kind         Kind       `json:"kind"`
	Required     bool       `json:"required"`
	MinLength    int        `json:"min_length,omitempty"`
	Options      []string   `json:"options,omitempty"`
	RequiredWhen *Condition `json:"required_when,omitempty"`
}

// Section is one page of the form.
type Section struct {
	Number    int        `json:"number"`
	Key       string     `json:"key"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Faith integration answers for section 7.
const (
	FaithSeparate      = "separate"
	FaithValuesAligned = "values_aligned"
	FaithExplicit      = "explicit"
)

var voiceOptions = []string{"professional", "friendly", "bold", "playful", "authoritative", "compassionate", "inspirational"}

// Sections is the fixed form, in order.
var Sections = []Section{
	{
		Number: 1, Key: "business_overview", Title: "Business Overview",
		Questions: []Question{
			{Key: "company_name", Label: "Company name", Kind: KindText, Required: true},
			{Key: "industry", Label: "Industry", Kind: KindText, Required: true},
			{Key: "business_description", Label: "What does your business do?", Kind: KindLongText, Required: true, MinLength: 20},
			{Key: "website", Label: "Website", Kind: KindURL},
			{Key: "years_in_business", Label: "Years in business", Kind: KindNumber},
		},
	},
	{
		Number: 2, Key: "target_audience", Title: "Target Audience",
		Questions: []Question{
			{Key: "ideal_customer", Label: "Describe your ideal customer", Kind: KindLongText, Required: true, MinLength: 20},
			{Key: "customer_pain_points", Label: "Customer pain points", Kind: KindLongText, Required: true},
			{Key: "age_range", Label: "Primary age range", Kind: KindSelect, Options: []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}},
			{Key: "geographic_focus", Label: "Geographic focus", Kind: KindText},
		},
	},
	{
		Number: 3, Key: "brand_identity", Title: "Brand Identity",
		Questions: []Question{
			{Key: "brand_voice", Label: "Brand voice", Kind: KindMultiSelect, Required: true, Options: voiceOptions},
			{Key: "brand_values", Label: "Core brand values", Kind: KindLongText, Required: true},
			{Key: "brand_personality", Label: "If your brand were a person…", Kind: KindLongText},
			{Key: "logo_files", Label: "Logo files", Kind: KindFile},
		},
	},
	{
		Number: 4, Key: "competitive_landscape", Title: "Competitive Landscape",
		Questions: []Question{
			{Key: "main_competitors", Label: "Main competitors", Kind: KindLongText, Required: true},
			{Key: "differentiators", Label: "What sets you apart?", Kind: KindLongText, Required: true},
			{Key: "competitor_urls", Label: "Competitor websites", Kind: KindLongText},
		},
	},
	{
		Number: 5, Key: "marketing_goals", Title: "Marketing Goals",
		Questions: []Question{
			{Key: "primary_goals", Label: "Primary goals", Kind: KindMultiSelect, Required: true,
				Options: []string{"brand_awareness", "lead_generation", "sales", "retention", "engagement", "community"}},
			{Key: "success_metrics", Label: "How will we measure success?", Kind: KindLongText, Required: true},
			{Key: "monthly_budget", Label: "Monthly marketing budget", Kind: KindSelect,
				Options: []string{"under_1k", "1k_5k", "5k_10k", "10k_25k", "over_25k"}},
		},
	},
	{
		Number: 6, Key: "current_marketing", Title: "Current Marketing",
		Questions: []Question{
			{Key: "current_channels", Label: "Channels you use today", Kind: KindMultiSelect, Required: true,
				Options: []string{"email", "social", "paid_ads", "seo", "events", "print", "none"}},
			{Key: "what_worked", Label: "What has worked?", Kind: KindLongText},
			{Key: "what_didnt_work", Label: "What hasn't worked?", Kind: KindLongText},
			{Key: "existing_assets", Label: "Existing marketing assets", Kind: KindFile},
		},
	},
	{
		Number: 7, Key: "faith_values", Title: "Faith & Values Integration",
		Questions: []Question{
			{Key: "faith_integration", Label: "How should faith show up in your marketing?", Kind: KindSelect, Required: true,
				Options: []string{FaithSeparate, FaithValuesAligned, FaithExplicit}},
			{Key: "faith_tradition", Label: "Faith tradition", Kind: KindText,
				RequiredWhen: &Condition{Question: "faith_integration", In: []string{FaithValuesAligned, FaithExplicit}}},
			{Key: "faith_messaging_guidelines", Label: "Faith messaging guidelines", Kind: KindLongText,
				RequiredWhen: &Condition{Question: "faith_integration", In: []string{FaithValuesAligned, FaithExplicit}}},
		},
	},
	{
		Number: 8, Key: "content_preferences", Title: "Content Preferences",
		Questions: []Question{
			{Key: "content_topics", Label: "Topics you want to talk about", Kind: KindLongText, Required: true},
			{Key: "topics_to_avoid", Label: "Topics to avoid", Kind: KindLongText},
			{Key: "preferred_content_types", Label: "Preferred content types", Kind: KindMultiSelect, Required: true,
				Options: []string{"email", "ad_copy", "blog_post", "social", "landing_page", "video_script"}},
			{Key: "approval_contact_email", Label: "Who approves content?", Kind: KindEmail, Required: true},
		},
	},
}

// SectionByNumber looks a section up by its 1-based number.
func SectionByNumber(n int) (Section, bool) {
	if n < 1 || n > len(Sections) {
		return Section{}, false
	}
	return Sections[n-1], true
}

// SectionByKey looks a section up by key.
func SectionByKey(key string) (Section, bool) {
	for _, s := range Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Question returns the schema entry for key.
func (s Section) Question(key string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// active reports whether q takes part in validation given the section's answers.
// A conditional question is inactive unless its condition holds.
func (q Question) active(answers map[string]any) bool {
	if q.RequiredWhen == nil {
		return true
	}
	lead, _ := answers[q.RequiredWhen.Question].(string)
	for _, v := range q.RequiredWhen.In {
		if lead == v {
			return true
		}
	}
	return false
}

// RequiredKeys lists the questions that must be answered for this section to
// be complete, given its current answers.
func (s Section) RequiredKeys(answers map[string]any) []string {
	var out []string
	for _, q := range s.Questions {
		if !q.active(answers) {
			continue
		}
		if q.Required || q.RequiredWhen != nil {
			out = append(out, q.Key)
		}
	}
	return out
}
