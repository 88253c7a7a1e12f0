package matching

import (
	"strings"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
)

// ParseTag converts a raw catalog tag token into its typed form. The
// namespaced prefixes are parsed here, once, at catalog-load time rather
// than on every match evaluation.
func ParseTag(raw string) (models.Tag, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return models.Tag{}, false
	}
	kind := models.TagCondition
	subject := token
	switch {
	case strings.HasPrefix(token, "include_"):
		kind, subject = models.TagInclude, strings.TrimPrefix(token, "include_")
	case strings.HasPrefix(token, "require_"):
		kind, subject = models.TagRequire, strings.TrimPrefix(token, "require_")
	case strings.HasPrefix(token, "exclude_"):
		kind, subject = models.TagExclude, strings.TrimPrefix(token, "exclude_")
	}
	if subject == "" {
		return models.Tag{}, false
	}
	return models.Tag{Kind: kind, Subject: subject}, true
}

// ParseTags parses a raw tag list, dropping empty tokens. A missing or
// malformed tag field ends up as an empty set.
func ParseTags(raw []string) []models.Tag {
	if len(raw) == 0 {
		return nil
	}
	tags := make([]models.Tag, 0, len(raw))
	for _, token := range raw {
		if tag, ok := ParseTag(token); ok {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
