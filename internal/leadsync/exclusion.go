package leadsync

import (
	"fmt"
	"regexp"
	"strings"

	"leadsync_backend/platform/logger"
)

var lineBreaks = regexp.MustCompile(`\r\n|\r|\n`)

// ExclusionRules matches submitter emails against operator patterns. Each
// line is either a delimited regular expression ("/spam\.example$/i") or a
// bare expression matched case-insensitively. Lines that do not compile are
// skipped.
type ExclusionRules struct {
	patterns []*regexp.Regexp
}

// ParseExclusionRules compiles newline-separated patterns, logging and
// skipping the invalid ones.
func ParseExclusionRules(raw string, log *logger.Logger) ExclusionRules {
	var rules ExclusionRules
	for _, line := range lineBreaks.Split(raw, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		re, err := compilePattern(line)
		if err != nil {
			log.Warn("leadsync: invalid exclusion pattern skipped", "pattern", line, "error", err)
			continue
		}
		rules.patterns = append(rules.patterns, re)
	}
	return rules
}

// Len returns the number of usable patterns.
func (r ExclusionRules) Len() int { return len(r.patterns) }

// Matches reports whether email matches any pattern. The email is
// lower-cased and trimmed first.
func (r ExclusionRules) Matches(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, re := range r.patterns {
		if re.MatchString(email) {
			return true
		}
	}
	return false
}

func compilePattern(line string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(line, "/") {
		return regexp.Compile("(?i)" + line)
	}

	end := strings.LastIndex(line, "/")
	if end == 0 {
		return nil, fmt.Errorf("missing closing delimiter")
	}
	body, modifiers := line[1:end], line[end+1:]
	flags := ""
	for _, m := range modifiers {
		switch m {
		case 'i', 'm', 's', 'U':
			if !strings.ContainsRune(flags, m) {
				flags += string(m)
			}
		default:
			return nil, fmt.Errorf("unsupported modifier %q", m)
		}
	}
	if flags != "" {
		body = "(?" + flags + ")" + body
	}
	return regexp.Compile(body)
}
