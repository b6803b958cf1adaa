// Package fieldmap turns a sanitized submission and a form mapping into CRM
// payloads: field references, note templates, contact, account and lead.
package fieldmap

import (
	"regexp"
	"strings"

	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/sanitize"
)

const maxSearchDepth = 3

var (
	referencePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\[\]]+$`)
	bracketPattern   = regexp.MustCompile(`^([^\[]+)\[([^\]]+)\]$`)
	segmentPattern   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ValidReference reports whether ref uses only the reference alphabet.
func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}

// Resolve looks a field reference up in rec. It tries, in order, the exact
// top-level key, "parent[child]", "parent.child" and finally a depth-bounded
// search for a key named ref anywhere in the tree. Invalid references and
// misses yield the empty value.
func Resolve(rec *submission.Record, ref string) submission.Value {
	ref = sanitize.Text(ref)
	if ref == "" || !ValidReference(ref) {
		return submission.Value{}
	}

	if v, ok := rec.Get(ref); ok {
		return v
	}

	if strings.Contains(ref, "[") && strings.Contains(ref, "]") {
		if m := bracketPattern.FindStringSubmatch(ref); m != nil {
			if v, ok := child(rec, m[1], m[2]); ok {
				return v
			}
		}
	}

	if strings.Contains(ref, ".") {
		parts := strings.Split(ref, ".")
		if len(parts) == 2 {
			if !segmentPattern.MatchString(parts[0]) || !segmentPattern.MatchString(parts[1]) {
				return submission.Value{}
			}
			if v, ok := child(rec, parts[0], parts[1]); ok {
				return v
			}
		}
	}

	if v, ok := search(submission.Map(rec), ref, 0); ok {
		return v
	}
	return submission.Value{}
}

// ResolveString resolves ref and flattens the result to text.
func ResolveString(rec *submission.Record, ref string) string {
	return Resolve(rec, ref).Flatten()
}

func child(rec *submission.Record, parent, key string) (submission.Value, bool) {
	p, ok := rec.Get(parent)
	if !ok || p.Kind() != submission.KindMap {
		return submission.Value{}, false
	}
	return p.Record().Get(key)
}

func search(v submission.Value, name string, depth int) (submission.Value, bool) {
	if depth >= maxSearchDepth {
		return submission.Value{}, false
	}
	switch v.Kind() {
	case submission.KindMap:
		rec := v.Record()
		for _, key := range rec.Keys() {
			value, _ := rec.Get(key)
			if key == name {
				return value, true
			}
			if found, ok := descend(value, name, depth); ok {
				return found, true
			}
		}
	case submission.KindList:
		for _, item := range v.Items() {
			if found, ok := descend(item, name, depth); ok {
				return found, true
			}
		}
	}
	return submission.Value{}, false
}

// descend checks the direct child shortcut before recursing one level down.
func descend(value submission.Value, name string, depth int) (submission.Value, bool) {
	switch value.Kind() {
	case submission.KindMap:
		if direct, ok := value.Record().Get(name); ok {
			return direct, true
		}
		return search(value, name, depth+1)
	case submission.KindList:
		return search(value, name, depth+1)
	}
	return submission.Value{}, false
}

// namesGroup returns "first last" from the nested name group, trimmed.
func namesGroup(rec *submission.Record, group string) (string, bool) {
	v, ok := rec.Get(group)
	if !ok || v.Kind() != submission.KindMap {
		return "", false
	}
	first, _ := v.Record().Get("first_name")
	last, _ := v.Record().Get("last_name")
	if first.IsEmpty() && last.IsEmpty() {
		return "", false
	}
	return strings.TrimSpace(first.Flatten() + " " + last.Flatten()), true
}
