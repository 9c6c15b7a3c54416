package questionnaire

import (
	"github.com/starford/agencyhub/internal/models"
)

// SectionProgress is the per-section entry of a Progress report.
type SectionProgress struct {
	Number   int    `json:"number"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Answered int    `json:"answered"`
	Complete bool   `json:"complete"`
}

// Progress summarises how much of the form is done.
type Progress struct {
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Percent   int               `json:"percent"`
	Resume    int               `json:"resume_section"`
	Sections  []SectionProgress `json:"sections"`
}

// Report computes progress for stored responses.
func Report(responses models.IntakeResponses) Progress {
	p := Progress{Total: len(Sections), Sections: make([]SectionProgress, 0, len(Sections))}
	for _, s := range Sections {
		answers := responses[s.Key]
		sp := SectionProgress{
			Number:   s.Number,
			Key:      s.Key,
			Title:    s.Title,
			Answered: answered(s, answers),
			Complete: SectionComplete(s, answers),
		}
		if sp.Complete {
			p.Completed++
		}
		p.Sections = append(p.Sections, sp)
	}
	p.Percent = p.Completed * 100 / p.Total
	p.Resume = ResumeSection(responses)
	return p
}

// ResumeSection returns the number of the first incomplete section, or the
// last section when everything is complete.
func ResumeSection(responses models.IntakeResponses) int {
	for _, s := range Sections {
		if !SectionComplete(s, responses[s.Key]) {
			return s.Number
		}
	}
	return len(Sections)
}

// Status derives the questionnaire status after a write. Only a successful
// submit produces completed; an edit that breaks a completed form drops it
// back to in_progress.
func Status(prev models.QuestionnaireStatus, responses models.IntakeResponses, submitted bool) models.QuestionnaireStatus {
	if !hasAnswers(responses) {
		return models.QuestionnaireNotStarted
	}
	valid := len(Validate(responses)) == 0
	if valid && (submitted || prev == models.QuestionnaireCompleted) {
		return models.QuestionnaireCompleted
	}
	return models.QuestionnaireInProgress
}

// Merge applies a section autosave to stored responses and returns the new
// copy. Unknown questions are dropped and a nil or blank answer removes the key.
func Merge(responses models.IntakeResponses, s Section, answers map[string]any) models.IntakeResponses {
	out := responses.Clone()
	if out == nil {
		out = models.IntakeResponses{}
	}
	cur := out[s.Key]
	if cur == nil {
		cur = map[string]any{}
	}
	for k, v := range answers {
		if _, ok := s.Question(k); !ok {
			continue
		}
		if !present(v) {
			delete(cur, k)
			continue
		}
		cur[k] = v
	}
	if len(cur) == 0 {
		delete(out, s.Key)
	} else {
		out[s.Key] = cur
	}
	return out
}

// BrandProfile flattens the answers into label -> value pairs grouped by
// section title, the shape prompts are built from. File answers and
// inactive conditional questions are left out.
func BrandProfile(responses models.IntakeResponses) models.BrandProfile {
	out := make(models.BrandProfile)
	for _, s := range Sections {
		answers := responses[s.Key]
		group := make(map[string]any)
		for _, q := range s.Questions {
			if q.Kind == KindFile || !q.active(answers) {
				continue
			}
			v, ok := answers[q.Key]
			if !ok || !present(v) {
				continue
			}
			group[q.Label] = v
		}
		if len(group) > 0 {
			out[s.Title] = group
		}
	}
	return out
}

func answered(s Section, answers map[string]any) int {
	n := 0
	for _, q := range s.Questions {
		if v, ok := answers[q.Key]; ok && present(v) {
			n++
		}
	}
	return n
}

func hasAnswers(responses models.IntakeResponses) bool {
	for _, s := range Sections {
		if answered(s, responses[s.Key]) > 0 {
			return true
		}
	}
	return false
}
