package questionnaire

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/agencyhub/internal/models"
)

// Errors maps "section.question" to a human-readable message.
type Errors map[string]string

// ValidateSection checks one section's answers against the schema. Every
// problem is reported; conditional questions whose condition does not hold are
// skipped even if the client sent values for them.
func ValidateSection(s Section, answers map[string]any) Errors {
	errs := Errors{}
	for _, q := range s.Questions {
		if !q.active(answers) {
			continue
		}
		v, ok := answers[q.Key]
		if !ok || !present(v) {
			if q.Required || q.RequiredWhen != nil {
				errs[s.Key+"."+q.Key] = validation.ErrRequired.Error()
			}
			continue
		}
		if err := validation.Validate(v, rulesFor(q)...); err != nil {
			errs[s.Key+"."+q.Key] = err.Error()
		}
	}
	return errs
}

// Validate checks every section and merges the results.
func Validate(responses models.IntakeResponses) Errors {
	errs := Errors{}
	for _, s := range Sections {
		for k, msg := range ValidateSection(s, responses[s.Key]) {
			errs[k] = msg
		}
	}
	return errs
}

// SectionComplete reports whether the section passes validation.
func SectionComplete(s Section, answers map[string]any) bool {
	return len(ValidateSection(s, answers)) == 0
}

func rulesFor(q Question) []validation.Rule {
	switch q.Kind {
	case KindText, KindLongText:
		rules := []validation.Rule{validation.By(isString)}
		if q.MinLength > 0 {
			rules = append(rules, validation.By(minRunes(q.MinLength)))
		}
		return rules
	case KindEmail:
		return []validation.Rule{validation.By(isString), is.EmailFormat}
	case KindURL:
		return []validation.Rule{validation.By(isString), is.URL}
	case KindSelect:
		return []validation.Rule{validation.By(isString), validation.In(options(q)...).Error("must be one of: " + strings.Join(q.Options, ", "))}
	case KindMultiSelect:
		return []validation.Rule{validation.By(oneOfEach(q.Options))}
	case KindNumber:
		return []validation.Rule{validation.By(isNonNegativeNumber)}
	case KindFile:
		return []validation.Rule{validation.By(isFileRef)}
	}
	return nil
}

func options(q Question) []any {
	out := make([]any, len(q.Options))
	for i, o := range q.Options {
		out[i] = o
	}
	return out
}

// present reports whether an answer counts as given. Blank strings and empty
// lists do not.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

var errNotText = errors.New("must be text")

func isString(v any) error {
	if _, ok := v.(string); !ok {
		return errNotText
	}
	return nil
}

func minRunes(n int) validation.RuleFunc {
	return func(v any) error {
		s, _ := v.(string)
		if len([]rune(strings.TrimSpace(s))) < n {
			return fmt.Errorf("must be at least %d characters", n)
		}
		return nil
	}
}

func oneOfEach(opts []string) validation.RuleFunc {
	allowed := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		allowed[o] = struct{}{}
	}
	return func(v any) error {
		var items []string
		switch x := v.(type) {
		case []string:
			items = x
		case []any:
			for _, it := range x {
				s, ok := it.(string)
				if !ok {
					return errors.New("must be a list of options")
				}
				items = append(items, s)
			}
		default:
			return errors.New("must be a list of options")
		}
		for _, it := range items {
			if _, ok := allowed[it]; !ok {
				return fmt.Errorf("%q is not an allowed option", it)
			}
		}
		return nil
	}
}

func isNonNegativeNumber(v any) error {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return errors.New("must be a number")
	}
	if f < 0 {
		return errors.New("must be no less than 0")
	}
	return nil
}

// isFileRef accepts one upload reference or a list of them. A reference is an
// object with a non-empty object_key or url.
func isFileRef(v any) error {
	check := func(x any) error {
		m, ok := x.(map[string]any)
		if !ok {
			return errors.New("must be an uploaded file reference")
		}
		key, _ := m["object_key"].(string)
		url, _ := m["url"].(string)
		if key == "" && url == "" {
			return errors.New("file reference needs object_key or url")
		}
		return nil
	}
	if list, ok := v.([]any); ok {
		for _, it := range list {
			if err := check(it); err != nil {
				return err
			}
		}
		return nil
	}
	return check(v)
}
