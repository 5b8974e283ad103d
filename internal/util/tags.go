package util

import "strings"

// SplitTags splits a comma joined tag string, dropping blanks.
func SplitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeTags trims every tag and rejoins them with ",".
func NormalizeTags(tags string) string {
	return strings.Join(SplitTags(tags), ",")
}
