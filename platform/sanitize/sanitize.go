// Package sanitize provides text sanitization for untrusted form input.
package sanitize

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	whitespaceRegex = regexp.MustCompile(`[\r\n\t ]+`)
	inlineWSRegex   = regexp.MustCompile(`[\t ]+`)
	octetRegex      = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	emailLocalRegex = regexp.MustCompile(`[^a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~.\-]`)
	domainPartRegex = regexp.MustCompile(`[^a-zA-Z0-9\-]`)
)

var allowedSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ftps": true, "mailto": true,
	"news": true, "irc": true, "gopher": true, "nntp": true, "feed": true,
	"telnet": true, "mms": true, "rtsp": true, "sms": true, "svn": true,
	"tel": true, "fax": true, "xmpp": true, "webcal": true, "urn": true,
}

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
// Entities are decoded and the result is stripped again to catch encoded tags.
func StripHTML(s string) string {
	result := html.UnescapeString(strict.Sanitize(s))
	result = html.UnescapeString(strict.Sanitize(result))
	return strings.TrimSpace(result)
}

// Text sanitizes a single-line value: invalid UTF-8 is dropped, tags are
// stripped, percent-encoded octets removed and all whitespace collapsed.
func Text(s string) string {
	return clean(s, false)
}

// TextArea is Text but keeps line breaks, for note templates and long answers.
func TextArea(s string) string {
	return clean(s, true)
}

func clean(s string, keepNewlines bool) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = StripHTML(s)
	s = octetRegex.ReplaceAllString(s, "")
	if keepNewlines {
		lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(inlineWSRegex.ReplaceAllString(line, " "))
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Email strips characters that are not allowed in an address. It returns
// the empty string when the value cannot be an email at all.
func Email(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return ""
	}
	at := strings.LastIndex(s, "@")
	if at < 1 {
		return ""
	}
	local := emailLocalRegex.ReplaceAllString(s[:at], "")
	if local == "" {
		return ""
	}

	domain := strings.Trim(s[at+1:], " \t\r\n\x00\x0B.")
	if strings.Contains(domain, "..") {
		return ""
	}
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return ""
	}
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(domainPartRegex.ReplaceAllString(part, ""), "-")
		if part != "" {
			cleaned = append(cleaned, part)
		}
	}
	if len(cleaned) < 2 {
		return ""
	}
	return local + "@" + strings.Join(cleaned, ".")
}

// URL cleans a URL for storage. Unknown schemes produce the empty string and
// scheme-less host-like values get an http:// prefix.
func URL(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return ""
	}

	if !strings.Contains(s, ":") && !strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "#") && !strings.HasPrefix(s, "?") && !strings.HasPrefix(s, ".") {
		s = "http://" + s
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && !allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return ""
	}
	return parsed.String()
}
