package notes

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// metadata is the parsed YAML frontmatter of a note. Tags accept both
// list form and a comma-separated string, since both are common in the
// wild.
type metadata struct {
	Title string `yaml:"title"`
	Tags  any    `yaml:"tags"`
}

// tagList normalizes the Tags field into a string slice.
func (m metadata) tagList() []string {
	switch v := m.Tags.(type) {
	case string:
		var out []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// parseFrontmatter splits a note into its YAML frontmatter and body.
// Notes without frontmatter, or with frontmatter that fails to parse,
// return empty metadata and the full content as body.
func parseFrontmatter(content string) (metadata, string) {
	var meta metadata

	rest, ok := strings.CutPrefix(content, frontmatterDelim+"\n")
	if !ok {
		return meta, content
	}
	raw, body, ok := strings.Cut(rest, "\n"+frontmatterDelim)
	if !ok {
		return meta, content
	}
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return metadata{}, content
	}
	return meta, body
}
