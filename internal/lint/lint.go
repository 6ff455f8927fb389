// Package lint checks recipe documents for content hygiene: frontmatter
// completeness, resolvable cross-references, and labeled code fences.
package lint

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	slug "github.com/goliatone/go-slug"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/models"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/recipe"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/storage"
)

// ErrFindings signals that a lint run produced at least one finding
// with error severity.
var ErrFindings = errors.New("lint: findings with error severity")

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifiers.
const (
	RuleFrontmatterMissing = "frontmatter-missing"
	RuleFrontmatterInvalid = "frontmatter-invalid"
	RuleTitleMissing       = "title-missing"
	RuleDescriptionMissing = "description-missing"
	RuleDifficultyInvalid  = "difficulty-invalid"
	RulePublishDateInvalid = "publish-date-invalid"
	RuleSlugInvalid        = "slug-invalid"
	RuleRelatedUnresolved  = "related-unresolved"
	RuleSelfRelated        = "self-related"
	RuleFenceLangMissing   = "code-fence-language-missing"
	RuleFenceLangUnknown   = "code-fence-language-unknown"
)

// Finding is a single lint result.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// Report aggregates findings over a set of documents.
type Report struct {
	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings"`
}

// Errors returns the number of error-severity findings.
func (r *Report) Errors() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings returns the number of warning-severity findings.
func (r *Report) Warnings() int {
	return len(r.Findings) - r.Errors()
}

// HasErrors reports whether any error-severity finding exists.
func (r *Report) HasErrors() bool {
	return r.Errors() > 0
}

// Linter validates recipe documents against the corpus conventions.
type Linter struct {
	knownLanguages map[string]struct{}
}

// defaultLanguages are the code-fence languages that appear in the corpus.
var defaultLanguages = []string{
	"yaml", "bash", "go", "python", "json", "mermaid",
	"sh", "shell", "console", "dockerfile", "toml", "text",
}

// New returns a Linter with the default language set, optionally extended
// by extraLanguages.
func New(extraLanguages ...string) *Linter {
	known := make(map[string]struct{}, len(defaultLanguages)+len(extraLanguages))
	for _, l := range defaultLanguages {
		known[l] = struct{}{}
	}
	for _, l := range extraLanguages {
		known[l] = struct{}{}
	}
	return &Linter{knownLanguages: known}
}

// LintDocument checks a single parsed document. slugs is the set of known
// recipe slugs (full and base form) used to resolve relatedRecipes; a nil
// set skips cross-reference checks.
func (l *Linter) LintDocument(doc *recipe.Document, slugs map[string]struct{}) []Finding {
	var out []Finding
	add := func(rule string, sev Severity, line int, format string, args ...any) {
		out = append(out, Finding{
			Rule:     rule,
			Severity: sev,
			Path:     doc.Path,
			Line:     line,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	switch {
	case !doc.HasFrontmatter:
		add(RuleFrontmatterMissing, SeverityError, 1, "no frontmatter block at top of file")
	case doc.MetaErr != nil:
		add(RuleFrontmatterInvalid, SeverityError, 1, "frontmatter is not valid YAML: %v", doc.MetaErr)
	default:
		for _, f := range validateMeta(doc.Path, doc.Meta) {
			out = append(out, f)
		}
	}

	if !slug.IsValid(recipe.BaseSlug(doc.Slug)) {
		add(RuleSlugInvalid, SeverityWarning, 0, "file name %q is not a valid slug", recipe.BaseSlug(doc.Slug))
	}

	if slugs != nil {
		for _, rel := range doc.Meta.RelatedRecipes {
			if rel == doc.Slug || rel == recipe.BaseSlug(doc.Slug) {
				add(RuleSelfRelated, SeverityWarning, 0, "recipe lists itself in relatedRecipes")
				continue
			}
			if _, ok := slugs[rel]; !ok {
				add(RuleRelatedUnresolved, SeverityError, 0, "relatedRecipes entry %q does not match any recipe", rel)
			}
		}
	}

	for _, cb := range doc.CodeBlocks {
		if cb.Language == "" {
			add(RuleFenceLangMissing, SeverityError, cb.Line, "fenced code block has no language tag")
			continue
		}
		if _, ok := l.knownLanguages[cb.Language]; !ok {
			add(RuleFenceLangUnknown, SeverityWarning, cb.Line, "unknown code block language %q", cb.Language)
		}
	}

	return out
}

// LintCorpus parses and lints every recipe under the store, resolving
// relatedRecipes against the full corpus.
func (l *Linter) LintCorpus(store storage.Provider) (*Report, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("lint: list corpus: %w", err)
	}

	docs := make([]*recipe.Document, 0, len(metas))
	slugs := make(map[string]struct{}, len(metas)*2)
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("lint: read %s: %w", m.Path, err)
		}
		doc := recipe.Parse(m.Path, data)
		docs = append(docs, doc)
		slugs[doc.Slug] = struct{}{}
		slugs[recipe.BaseSlug(doc.Slug)] = struct{}{}
	}

	report := &Report{Checked: len(docs)}
	for _, doc := range docs {
		report.Findings = append(report.Findings, l.LintDocument(doc, slugs)...)
	}
	sortFindings(report.Findings)
	return report, nil
}

// validateMeta applies field-level rules to a decoded frontmatter block.
func validateMeta(path string, m models.Frontmatter) []Finding {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Description, validation.Required),
		validation.Field(&m.Difficulty, validation.In(
			models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced)),
		validation.Field(&m.PublishDate, validation.Date("2006-01-02")),
	)
	if err == nil {
		return nil
	}

	errs, ok := err.(validation.Errors)
	if !ok {
		return []Finding{{
			Rule:     RuleFrontmatterInvalid,
			Severity: SeverityError,
			Path:     path,
			Message:  err.Error(),
		}}
	}

	ruleByField := map[string]string{
		"title":       RuleTitleMissing,
		"description": RuleDescriptionMissing,
		"difficulty":  RuleDifficultyInvalid,
		"publishDate": RulePublishDateInvalid,
	}

	var out []Finding
	for field, ferr := range errs {
		rule, ok := ruleByField[field]
		if !ok {
			rule = RuleFrontmatterInvalid
		}
		out = append(out, Finding{
			Rule:     rule,
			Severity: SeverityError,
			Path:     path,
			Message:  fmt.Sprintf("%s: %v", field, ferr),
		})
	}
	sortFindings(out)
	return out
}

func sortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Path != fs[j].Path {
			return fs[i].Path < fs[j].Path
		}
		if fs[i].Line != fs[j].Line {
			return fs[i].Line < fs[j].Line
		}
		return fs[i].Rule < fs[j].Rule
	})
}
