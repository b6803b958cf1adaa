package fieldmap

import (
	"regexp"
	"strings"

	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/sanitize"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Render substitutes {{reference}} placeholders with resolved submission
// values. Lists are joined with ", ". Placeholders whose reference is not
// valid are left as written. The template is scanned once; substituted
// values are never re-evaluated.
func Render(template string, rec *submission.Record) string {
	template = sanitize.TextArea(template)
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return template
	}

	replacements := make([]string, 0, len(matches)*2)
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		token, ref := m[0], m[1]
		if seen[token] || !ValidReference(ref) {
			continue
		}
		seen[token] = true
		replacements = append(replacements, token, renderValue(Resolve(rec, ref)))
	}
	if len(replacements) == 0 {
		return template
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

func renderValue(v submission.Value) string {
	if v.Kind() != submission.KindList {
		return sanitize.Text(v.Flatten())
	}
	parts := make([]string, 0, len(v.Items()))
	for _, item := range v.Items() {
		parts = append(parts, sanitize.Text(item.Flatten()))
	}
	return strings.Join(parts, ", ")
}
