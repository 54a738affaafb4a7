package notes

import (
	"regexp"
	"sort"
	"strings"
)

// tagPattern matches inline hashtags. A tag may contain letters, digits,
// underscores and hyphens but must contain at least one letter, so #123
// is a number reference, not a tag.
var tagPattern = regexp.MustCompile(`#([\p{L}\p{Nd}_-]*\p{L}[\p{L}\p{Nd}_-]*)`)

// ExtractTags collects tags from a note: frontmatter tags plus inline
// hashtags in the body. Tags are lowercased and deduplicated, returned
// sorted.
func ExtractTags(content string) []string {
	meta, body := parseFrontmatter(content)

	seen := make(map[string]struct{})
	for _, tag := range meta.tagList() {
		tag = normalizeTag(tag)
		if tag != "" {
			seen[tag] = struct{}{}
		}
	}
	for _, match := range tagPattern.FindAllStringSubmatch(body, -1) {
		if tag := normalizeTag(match[1]); tag != "" {
			seen[tag] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// normalizeTag lowercases and strips a leading '#' so frontmatter
// entries written either way compare equal.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
