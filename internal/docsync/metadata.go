package docsync

import (
	"path"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

const summaryLimit = 140

var headingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// DeriveTitle returns the text of the first top-level heading line found
// anywhere in content, falling back to the final path segment.
func DeriveTitle(content, docPath string) string {
	if match := headingPattern.FindStringSubmatch(content); match != nil {
		return match[1]
	}
	if base := path.Base(docPath); base != "." && base != "/" {
		return base
	}
	return docPath
}

// tagsEnvelope decodes only the front-matter field the index consumes. The
// value is left untyped because authors write both scalar and list shapes.
type tagsEnvelope struct {
	Tags any `yaml:"tags"`
}

var tagSeparators = regexp.MustCompile(`[\s,]+`)

// DeriveTags extracts the front-matter tags field as an ordered list,
// splitting scalar values on whitespace and commas. Content without front
// matter, without a tags field, or with a front-matter block that fails to
// parse yields no tags.
func DeriveTags(content string) []string {
	var envelope tagsEnvelope
	if _, err := frontmatter.Parse(strings.NewReader(content), &envelope); err != nil {
		return nil
	}

	switch value := envelope.Tags.(type) {
	case string:
		return splitTags(value)
	case []any:
		tags := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					tags = append(tags, trimmed)
				}
			}
		}
		if len(tags) == 0 {
			return nil
		}
		return tags
	default:
		return nil
	}
}

func splitTags(value string) []string {
	var tags []string
	for _, part := range tagSeparators.Split(value, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// DeriveSummary returns the first non-blank line that is neither a heading
// nor a fenced-code opener, capped at 140 characters. Scanning stops at the
// first fence even when no summary line was found yet, so a document whose
// only prose is a heading followed by code yields an empty summary.
func DeriveSummary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			break
		}
		return truncate(trimmed, summaryLimit)
	}
	return ""
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
