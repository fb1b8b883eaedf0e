package service

import (
	"regexp"
	"strings"
)

// Skill and prompt files start with YAML frontmatter carrying a name
// field. Echoing such a file into the chat view would leak its whole
// body, so the transcript gets a short notice instead.
var frontmatterPattern = regexp.MustCompile(`^---\s*\nname:\s*(.+)`)

// DetectResourceNotice is the default ResourceNotice predicate. It
// reports whether text looks like a loaded resource file and, if so,
// the notice to show in its place.
func DetectResourceNotice(text string) (string, bool) {
	m := frontmatterPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return "Loaded skill: " + strings.TrimSpace(m[1]), true
}
