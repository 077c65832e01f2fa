package models

import "strings"

// TagSeparator is written between tags in the canonical form.
const TagSeparator = ", "

// ParseTags splits a comma-delimited tag string into trimmed, non-empty tags.
// Duplicates are dropped keeping first-seen order; comparison is case-sensitive.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return normalizeTags(strings.Split(s, ","))
}

// FormatTags joins tags into the canonical storage string.
func FormatTags(tags []string) string {
	return strings.Join(normalizeTags(tags), TagSeparator)
}

func normalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
